package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/docfoxhq/DocFox/app/repository"
	"github.com/docfoxhq/DocFox/internal/pkg/session"
	"github.com/docfoxhq/DocFox/internal/pkg/usercontext"
)

// UserContextMiddleware builds the request's user context from the session.
// Tier and subscription status are read fresh from the database on every
// request: a billing webhook can change them at any moment and entitlement
// checks must see the current values.
func UserContextMiddleware(users repository.UserRepository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		anonymous := func() error {
			usercontext.SetUserContext(c, usercontext.UserContext{})
			return c.Next()
		}

		store := session.GetSessionStore()
		if store == nil {
			return anonymous()
		}
		sess, err := store.Get(c)
		if err != nil {
			return anonymous()
		}

		rawUserID := sess.Get(usercontext.SessionKeyUserID)
		userID, ok := rawUserID.(uint)
		if !ok || userID == 0 {
			return anonymous()
		}

		user, err := users.GetByID(userID)
		if err != nil || user == nil {
			return anonymous()
		}

		usercontext.SetUserContext(c, usercontext.UserContext{
			UserID:             user.ID,
			Username:           user.Name,
			IsLoggedIn:         true,
			IsAdmin:            user.Role == "admin",
			Tier:               user.SubscriptionTier,
			SubscriptionStatus: user.SubscriptionStatus,
		})
		return c.Next()
	}
}
