package constants

const (
	ViewData         = "view_data"
	CreateGoal       = "create_goal"
	ContributeGoal   = "contribute_goal"
	CreateBudget     = "create_budget"
	RecordSpend      = "record_spend"
	InitiateTransfer = "initiate_transfer"
	ScheduleDonation = "schedule_donation"
	ManageCauses     = "manage_causes"
	RequestPayout    = "request_payout"
	ManageStreams    = "manage_streams"
	SubmitOrder      = "submit_order"
	ApproveRequest   = "approve_request"
	ManageGuardrails = "manage_guardrails"
	ManageAccounts   = "manage_accounts"
	ManageMoneyMap   = "manage_money_map"
	InviteUser       = "invite_user"
	RemoveUser       = "remove_user"
	AssignRole       = "assign_role"
	UpdateOrg        = "update_org"
)
