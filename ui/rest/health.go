package rest

import (
	"github.com/draftcast/draftcast/core/config"
	"github.com/gofiber/fiber/v2"
)

type Health struct{}

func InitRestHealth(app fiber.Router) Health {
	rest := Health{}
	app.Get("/health", rest.Check)
	return rest
}

func (handler *Health) Check(c *fiber.Ctx) error {
	version := ""
	if config.Global != nil {
		version = config.Global.App.Version
	}
	return c.JSON(fiber.Map{
		"status":  "ok",
		"version": version,
	})
}
