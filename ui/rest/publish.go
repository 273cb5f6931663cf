package rest

import (
	"crypto/subtle"
	"strings"
	"time"

	"github.com/draftcast/draftcast/pkg/utils"
	"github.com/draftcast/draftcast/publisher"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// PublishJob exposes the scheduled publishing engine to the external
// periodic trigger. The endpoint is guarded by a pre-shared bearer secret
// since a run mutates external platform state.
type PublishJob struct {
	Engine *publisher.Engine
	Secret string
}

func InitRestPublishJob(app fiber.Router, engine *publisher.Engine, secret string) PublishJob {
	rest := PublishJob{Engine: engine, Secret: secret}
	app.Get("/jobs/publish-scheduled", rest.Run)
	app.Post("/jobs/publish-scheduled", rest.Run)
	return rest
}

func (handler *PublishJob) Run(c *fiber.Ctx) error {
	if !handler.authorized(c.Get(fiber.HeaderAuthorization)) {
		return c.Status(fiber.StatusUnauthorized).JSON(utils.ResponseData{
			Status:  fiber.StatusUnauthorized,
			Code:    "UNAUTHORIZED",
			Message: "Invalid or missing bearer token",
		})
	}

	summary, err := handler.Engine.RunOnce(c.UserContext(), time.Now().UTC())
	if err != nil {
		logrus.WithError(err).Error("[PUBLISHER] Run aborted")
		return c.Status(fiber.StatusInternalServerError).JSON(utils.ResponseData{
			Status:  fiber.StatusInternalServerError,
			Code:    "INTERNAL_SERVER_ERROR",
			Message: err.Error(),
		})
	}

	return c.JSON(utils.ResponseData{
		Status:  fiber.StatusOK,
		Code:    "SUCCESS",
		Message: "Publish run complete",
		Results: summary,
	})
}

func (handler *PublishJob) authorized(header string) bool {
	if handler.Secret == "" {
		return false
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return false
	}
	token := strings.TrimPrefix(header, prefix)
	return subtle.ConstantTimeCompare([]byte(token), []byte(handler.Secret)) == 1
}
