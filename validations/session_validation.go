package validations

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	domainSession "github.com/crmkit/wabridge/domains/session"
	pkgError "github.com/crmkit/wabridge/pkg/error"
)

func ValidateStartSession(ctx context.Context, request domainSession.StartRequest) error {
	err := validation.ValidateStructWithContext(ctx, &request,
		validation.Field(&request.SessionID, validation.Required, validation.Length(1, 128)),
		validation.Field(&request.OrgID, validation.Required, validation.Length(1, 128)),
	)

	if err != nil {
		return pkgError.ValidationError(err.Error())
	}

	return nil
}
