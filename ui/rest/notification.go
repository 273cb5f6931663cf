package rest

import (
	"time"

	notifDomain "github.com/draftcast/draftcast/notifications/domain"
	pkgError "github.com/draftcast/draftcast/pkg/error"
	"github.com/draftcast/draftcast/pkg/utils"
	"github.com/draftcast/draftcast/validations"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type Notification struct {
	Repo notifDomain.Repository
}

func InitRestNotification(app fiber.Router, repo notifDomain.Repository) Notification {
	rest := Notification{Repo: repo}
	app.Get("/notifications/:userID/targets", rest.ListTargets)
	app.Post("/notifications/:userID/targets", rest.RegisterTarget)
	app.Delete("/notifications/targets/:id", rest.RemoveTarget)
	return rest
}

func (handler *Notification) ListTargets(c *fiber.Ctx) error {
	targets, err := handler.Repo.ListByUser(c.UserContext(), c.Params("userID"))
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Notification targets retrieved",
		Results: targets,
	})
}

func (handler *Notification) RegisterTarget(c *fiber.Ctx) error {
	var request notifDomain.RegisterTargetRequest
	if err := c.BodyParser(&request); err != nil {
		panic(pkgError.ValidationError("invalid JSON body"))
	}
	utils.PanicIfNeeded(validations.ValidateRegisterTarget(c.UserContext(), request))

	target := notifDomain.Target{
		ID:        uuid.NewString(),
		UserID:    c.Params("userID"),
		Endpoint:  request.Endpoint,
		P256dhKey: request.P256dhKey,
		AuthKey:   request.AuthKey,
		CreatedAt: time.Now().UTC(),
	}
	utils.PanicIfNeeded(handler.Repo.Save(c.UserContext(), target))

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Notification target registered",
		Results: target,
	})
}

func (handler *Notification) RemoveTarget(c *fiber.Ctx) error {
	utils.PanicIfNeeded(handler.Repo.Delete(c.UserContext(), c.Params("id")))

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Notification target removed",
	})
}
