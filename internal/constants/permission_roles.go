package constants

// PermissionRoles maps each permission to roles allowed to perform it.
// Members can initiate movements against their own household; whether a
// movement executes or waits is the guardrail engine's job, not this map's.
var PermissionRoles = map[string][]string{
	ViewData:         {Member, Guardian, Admin, Owner},
	CreateGoal:       {Member, Guardian, Admin, Owner},
	ContributeGoal:   {Member, Guardian, Admin, Owner},
	CreateBudget:     {Guardian, Admin, Owner},
	RecordSpend:      {Member, Guardian, Admin, Owner},
	InitiateTransfer: {Member, Guardian, Admin, Owner},
	ScheduleDonation: {Member, Guardian, Admin, Owner},
	ManageCauses:     {Guardian, Admin, Owner},
	RequestPayout:    {Member, Guardian, Admin, Owner},
	ManageStreams:    {Guardian, Admin, Owner},
	SubmitOrder:      {Member, Guardian, Admin, Owner},
	ApproveRequest:   {Guardian, Admin, Owner},
	ManageGuardrails: {Admin, Owner},
	ManageAccounts:   {Admin, Owner},
	ManageMoneyMap:   {Guardian, Admin, Owner},
	InviteUser:       {Admin, Owner},
	RemoveUser:       {Admin, Owner},
	AssignRole:       {Admin, Owner},
	UpdateOrg:        {Admin, Owner},
}

// AllowedRole returns true if role is in the list of allowed roles for the permission.
func AllowedRole(permission, role string) bool {
	roles, ok := PermissionRoles[permission]
	if !ok {
		return false
	}
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
