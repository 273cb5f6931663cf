package rest

import (
	"errors"
	"time"

	connDomain "github.com/draftcast/draftcast/connections/domain"
	pkgError "github.com/draftcast/draftcast/pkg/error"
	"github.com/draftcast/draftcast/pkg/utils"
	"github.com/gofiber/fiber/v2"
)

type Connection struct {
	Repo connDomain.Repository
}

func InitRestConnection(app fiber.Router, repo connDomain.Repository) Connection {
	rest := Connection{Repo: repo}
	app.Get("/connections/:userID", rest.Status)
	app.Delete("/connections/:userID", rest.Disconnect)
	return rest
}

// Status reports connection health without ever exposing token material.
func (handler *Connection) Status(c *fiber.Ctx) error {
	conn, err := handler.Repo.GetByUserID(c.UserContext(), c.Params("userID"))
	if errors.Is(err, connDomain.ErrNotConnected) {
		return c.JSON(utils.ResponseData{
			Status:  200,
			Code:    "SUCCESS",
			Message: "Connection status retrieved",
			Results: map[string]any{"connected": false},
		})
	}
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Connection status retrieved",
		Results: map[string]any{
			"connected":  true,
			"profile_id": conn.ProfileID,
			"expires_at": conn.ExpiresAt,
			"expired":    conn.Expired(time.Now().UTC()),
		},
	})
}

func (handler *Connection) Disconnect(c *fiber.Ctx) error {
	userID := c.Params("userID")
	if userID == "" {
		panic(pkgError.ValidationError("userID is required"))
	}
	utils.PanicIfNeeded(handler.Repo.Delete(c.UserContext(), userID))

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Connection removed",
	})
}
