package middleware

import (
	"minta-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const userLocal = "user"

// RequireAuth ensures a user is in the session. Returns 401 with standard error format if not.
func RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := c.Locals(userLocal)
		if user == nil {
			return response.Unauthorized(c, "Unauthorized")
		}
		c.Locals("auth", user)
		return c.Next()
	}
}

// GetUser returns the session user from Locals (nil if not logged in).
func GetUser(c *fiber.Ctx) interface{} {
	return c.Locals(userLocal)
}

// SessionActor is the verified identity every handler works with: user, org
// and role from the session map.
type SessionActor struct {
	UserID uuid.UUID
	OrgID  uuid.UUID
	Role   string
}

// GetSessionActor extracts and parses the session user. Returns nil when the
// session is missing or the user has no org (callers decide the status code).
func GetSessionActor(c *fiber.Ctx) *SessionActor {
	m, ok := GetUser(c).(map[string]interface{})
	if !ok {
		return nil
	}
	userIDStr, _ := m["user_id"].(string)
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return nil
	}
	role, _ := m["role"].(string)
	actor := &SessionActor{UserID: userID, Role: role}
	if o, ok := m["org_id"].(string); ok && o != "" {
		if orgID, err := uuid.Parse(o); err == nil {
			actor.OrgID = orgID
		}
	}
	if actor.OrgID == uuid.Nil {
		return nil
	}
	return actor
}
