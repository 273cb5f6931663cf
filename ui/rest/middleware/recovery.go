package middleware

import (
	"fmt"

	pkgError "github.com/draftcast/draftcast/pkg/error"
	"github.com/draftcast/draftcast/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// Recovery converts handler panics into JSON error envelopes. Typed
// application errors map to their own status code; anything else is a 500.
func Recovery() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		defer func() {
			err := recover()
			if err != nil {
				var res utils.ResponseData
				res.Status = 500
				res.Code = "INTERNAL_SERVER_ERROR"
				res.Message = fmt.Sprintf("%v", err)

				logrus.Errorf("Panic recovered in middleware: %v", err)

				typedErr, isTyped := err.(pkgError.GenericError)
				if isTyped {
					res.Status = typedErr.StatusCode()
					res.Code = typedErr.ErrCode()
					res.Message = typedErr.Error()
				}

				_ = ctx.Status(res.Status).JSON(res)
			}
		}()

		return ctx.Next()
	}
}
