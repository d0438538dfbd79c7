package server

import (
	"errors"

	"github.com/Kyz7/sitecms/internal/apperr"
	"github.com/Kyz7/sitecms/internal/config"
	"github.com/Kyz7/sitecms/internal/response"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

const BodyLimit = 8 * 1024 * 1024

func New(db *gorm.DB) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "sitecms",
		BodyLimit:    BodyLimit,
		ErrorHandler: errorHandler,
		// Behind the hosting proxy c.IP() must come from X-Forwarded-For so the
		// limiter keys on the client.
		ProxyHeader: proxyHeader(),
	})

	SetupRoutes(app, db)

	return app
}

func proxyHeader() string {
	if config.Current.IsProduction() {
		return fiber.HeaderXForwardedFor
	}
	return ""
}

// errorHandler renders framework errors (unknown route, body too large) in
// the same envelope as handler errors.
func errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		kind := apperr.KindUpstream
		switch fe.Code {
		case fiber.StatusNotFound:
			kind = apperr.KindNotFound
		case fiber.StatusRequestEntityTooLarge:
			kind = apperr.KindTooLarge
		case fiber.StatusTooManyRequests:
			kind = apperr.KindRateLimited
		case fiber.StatusUnauthorized:
			kind = apperr.KindAuth
		default:
			if fe.Code >= 400 && fe.Code < 500 {
				kind = apperr.KindValidation
			}
		}
		return response.Error(c, fe.Code, string(kind), fe.Message, nil)
	}
	return response.FromError(c, err)
}
