package validations

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	domainSend "github.com/crmkit/wabridge/domains/send"
	domainSession "github.com/crmkit/wabridge/domains/session"
)

func TestValidateSend(t *testing.T) {
	ctx := context.Background()

	cases := []struct {
		name    string
		request domainSend.Request
		wantErr bool
	}{
		{
			name:    "text to remote jid",
			request: domainSend.Request{SessionID: "s", RemoteJID: "521@s.whatsapp.net", Body: "hi"},
		},
		{
			name:    "text to conversation",
			request: domainSend.Request{SessionID: "s", ConversationID: "c", Body: "hi"},
		},
		{
			name:    "image with media url",
			request: domainSend.Request{SessionID: "s", RemoteJID: "521@s.whatsapp.net", MediaURL: "https://x/y.jpg", MediaType: "image"},
		},
		{
			name:    "missing session",
			request: domainSend.Request{RemoteJID: "521@s.whatsapp.net", Body: "hi"},
			wantErr: true,
		},
		{
			name:    "missing target",
			request: domainSend.Request{SessionID: "s", Body: "hi"},
			wantErr: true,
		},
		{
			name:    "neither body nor media",
			request: domainSend.Request{SessionID: "s", RemoteJID: "521@s.whatsapp.net"},
			wantErr: true,
		},
		{
			name:    "media without type",
			request: domainSend.Request{SessionID: "s", RemoteJID: "521@s.whatsapp.net", MediaURL: "https://x/y.jpg"},
			wantErr: true,
		},
		{
			name:    "unsupported media type",
			request: domainSend.Request{SessionID: "s", RemoteJID: "521@s.whatsapp.net", MediaURL: "https://x/y.gif", MediaType: "gif"},
			wantErr: true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateSend(ctx, tc.request)
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateStartSession(t *testing.T) {
	ctx := context.Background()

	assert.NoError(t, ValidateStartSession(ctx, domainSession.StartRequest{SessionID: "s", OrgID: "o"}))
	assert.Error(t, ValidateStartSession(ctx, domainSession.StartRequest{SessionID: "s"}))
	assert.Error(t, ValidateStartSession(ctx, domainSession.StartRequest{OrgID: "o"}))
}
