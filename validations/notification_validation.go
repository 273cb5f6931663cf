package validations

import (
	"context"

	notifDomain "github.com/draftcast/draftcast/notifications/domain"
	pkgError "github.com/draftcast/draftcast/pkg/error"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

func ValidateRegisterTarget(ctx context.Context, request notifDomain.RegisterTargetRequest) error {
	err := validation.ValidateStructWithContext(ctx, &request,
		validation.Field(&request.Endpoint, validation.Required, is.URL),
		validation.Field(&request.P256dhKey, validation.Required),
		validation.Field(&request.AuthKey, validation.Required),
	)

	if err != nil {
		return pkgError.ValidationError(err.Error())
	}

	return nil
}
