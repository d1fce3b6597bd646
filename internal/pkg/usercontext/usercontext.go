package usercontext

import "github.com/gofiber/fiber/v2"

// Session keys written at login and read by the context middleware
const (
	SessionKeyAuth    = "authenticated"
	SessionKeyUserID  = "user_id"
	SessionKeyName    = "user_name"
	SessionKeyIsAdmin = "user_is_admin"
)

// Locals keys shared between middleware and controllers
const (
	KeyUserContext = "USER_CONTEXT"
	KeyUserID      = "USER_ID"
	KeyUsername    = "USER_NAME"
	KeyIsAdmin     = "USER_IS_ADMIN"
	KeyLoggedIn    = "FROM_PROTECTED"
)

// UserContext represents the complete user context for a request. It is
// built once per request by middleware and read everywhere else; handlers
// never reach into the session directly.
type UserContext struct {
	UserID             uint   `json:"user_id"`
	Username           string `json:"username"`
	IsLoggedIn         bool   `json:"is_logged_in"`
	IsAdmin            bool   `json:"is_admin"`
	Tier               string `json:"tier"`
	SubscriptionStatus string `json:"subscription_status"`
}

// GetUserContext retrieves the user context from fiber context
// Returns a default anonymous context if none is set
func GetUserContext(c *fiber.Ctx) UserContext {
	if ctx := c.Locals(KeyUserContext); ctx != nil {
		if uc, ok := ctx.(UserContext); ok {
			return uc
		}
	}
	return UserContext{IsLoggedIn: false, IsAdmin: false}
}

// SetUserContext stores the user context on the request
func SetUserContext(c *fiber.Ctx, uc UserContext) {
	c.Locals(KeyUserContext, uc)
	c.Locals(KeyLoggedIn, uc.IsLoggedIn)
	c.Locals(KeyUserID, uc.UserID)
	c.Locals(KeyUsername, uc.Username)
	c.Locals(KeyIsAdmin, uc.IsAdmin)
}

// IsLoggedIn checks if the current user is logged in
func IsLoggedIn(c *fiber.Ctx) bool {
	return GetUserContext(c).IsLoggedIn
}

// GetUserID returns the current user's ID, or 0 if not logged in
func GetUserID(c *fiber.Ctx) uint {
	return GetUserContext(c).UserID
}
