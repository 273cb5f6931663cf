package rest

import (
	"errors"

	contentDomain "github.com/draftcast/draftcast/content/domain"
	pkgError "github.com/draftcast/draftcast/pkg/error"
	"github.com/draftcast/draftcast/pkg/utils"
	"github.com/draftcast/draftcast/validations"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type Content struct {
	Repo contentDomain.Repository
}

func InitRestContent(app fiber.Router, repo contentDomain.Repository) Content {
	rest := Content{Repo: repo}
	app.Get("/content", rest.List)
	app.Get("/content/:kind/:id", rest.Get)
	app.Post("/content/:kind/:id/approve", rest.Approve)
	app.Post("/content/:kind/:id/unschedule", rest.Unschedule)
	return rest
}

func (handler *Content) List(c *fiber.Ctx) error {
	items, err := handler.Repo.List(c.UserContext())
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Content list retrieved",
		Results: items,
	})
}

func (handler *Content) Get(c *fiber.Ctx) error {
	kind := parseKind(c.Params("kind"))
	item, err := handler.Repo.Get(c.UserContext(), kind, c.Params("id"))
	panicIfContentMissing(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Content retrieved",
		Results: item,
	})
}

func (handler *Content) Approve(c *fiber.Ctx) error {
	kind := parseKind(c.Params("kind"))

	var request contentDomain.ApproveContentRequest
	if err := c.BodyParser(&request); err != nil {
		panic(pkgError.ValidationError("invalid JSON body"))
	}
	utils.PanicIfNeeded(validations.ValidateApproveContent(c.UserContext(), request))

	err := handler.Repo.SetApproval(c.UserContext(), kind, c.Params("id"), request.Approved, request.AutoPublish, request.ScheduledAt)
	panicIfContentMissing(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Content approval updated",
	})
}

func (handler *Content) Unschedule(c *fiber.Ctx) error {
	kind := parseKind(c.Params("kind"))

	err := handler.Repo.SetAutoPublish(c.UserContext(), kind, c.Params("id"), false)
	panicIfContentMissing(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Auto-publish disabled",
	})
}

func parseKind(raw string) contentDomain.Kind {
	switch contentDomain.Kind(raw) {
	case contentDomain.KindPost, contentDomain.KindArticle, contentDomain.KindCarousel:
		return contentDomain.Kind(raw)
	default:
		panic(pkgError.ValidationError("unknown content kind: " + raw))
	}
}

func panicIfContentMissing(err error) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		panic(pkgError.NotFoundError("content not found"))
	}
	utils.PanicIfNeeded(err)
}
