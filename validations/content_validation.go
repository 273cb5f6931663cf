package validations

import (
	"context"

	contentDomain "github.com/draftcast/draftcast/content/domain"
	pkgError "github.com/draftcast/draftcast/pkg/error"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

func ValidateApproveContent(ctx context.Context, request contentDomain.ApproveContentRequest) error {
	err := validation.ValidateStructWithContext(ctx, &request,
		validation.Field(&request.ScheduledAt,
			validation.When(request.AutoPublish, validation.Required.Error("scheduled_at is required when auto_publish is enabled"))),
	)

	if err != nil {
		return pkgError.ValidationError(err.Error())
	}

	return nil
}
