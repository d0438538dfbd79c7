// Package ratelimit throttles public endpoints per (purpose, client IP).
package ratelimit

import (
	"time"

	"github.com/Kyz7/sitecms/internal/apperr"
	"github.com/Kyz7/sitecms/internal/response"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

const (
	LoginMax      = 10
	LoginWindow   = 15 * time.Minute
	ContactMax    = 5
	ContactWindow = time.Hour
)

// Storage backs every limiter built by New. Nil means process-local memory.
var Storage fiber.Storage

func New(purpose string, max int, window time.Duration) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:               max,
		Expiration:        window,
		LimiterMiddleware: limiter.SlidingWindow{},
		Storage:           Storage,
		KeyGenerator: func(c *fiber.Ctx) string {
			return purpose + ":" + c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return response.Error(c, fiber.StatusTooManyRequests, string(apperr.KindRateLimited),
				"Too many requests, please try again later", nil)
		},
	})
}

func Login() fiber.Handler {
	return New("login", LoginMax, LoginWindow)
}

func Contact() fiber.Handler {
	return New("contact", ContactMax, ContactWindow)
}
