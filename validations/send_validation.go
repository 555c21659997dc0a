package validations

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	domainSend "github.com/crmkit/wabridge/domains/send"
	pkgError "github.com/crmkit/wabridge/pkg/error"
)

func ValidateSend(ctx context.Context, request domainSend.Request) error {
	err := validation.ValidateStructWithContext(ctx, &request,
		validation.Field(&request.SessionID, validation.Required),
		validation.Field(&request.RemoteJID,
			validation.Required.When(request.ConversationID == "").Error("either remoteJid or conversationId is required")),
		validation.Field(&request.Body,
			validation.Required.When(request.MediaURL == "").Error("message body is required")),
		validation.Field(&request.MediaType,
			validation.Required.When(request.MediaURL != "").Error("mediaType is required with mediaUrl"),
			validation.In("image", "document").Error("mediaType must be image or document")),
	)

	if err != nil {
		return pkgError.ValidationError(err.Error())
	}

	return nil
}
