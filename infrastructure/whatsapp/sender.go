package whatsapp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/types"
	"google.golang.org/protobuf/proto"

	pkgError "github.com/crmkit/wabridge/pkg/error"
)

// SendResult carries the protocol acknowledgement for one outbound message.
type SendResult struct {
	MessageID string
	Timestamp time.Time
}

// ActiveHandle returns the live handle for a session or the typed not-active
// error when there is none or the connection is down.
func (m *Manager) ActiveHandle(sessionID string) (*SessionHandle, error) {
	handle, ok := m.registry.Get(sessionID)
	if !ok {
		return nil, pkgError.ErrSessionNotActive
	}
	if !handle.Client.IsConnected() {
		return nil, pkgError.ErrSessionNotActive
	}
	return handle, nil
}

// ResolveRecipient parses and normalizes a remote JID for dispatch. Bare phone
// numbers are promoted to user JIDs.
func ResolveRecipient(remoteJID string) (types.JID, error) {
	if !strings.ContainsRune(remoteJID, '@') {
		if remoteJID == "" {
			return types.EmptyJID, pkgError.ValidationError("recipient is required")
		}
		return types.NewJID(remoteJID, types.DefaultUserServer), nil
	}
	jid, err := types.ParseJID(remoteJID)
	if err != nil || jid.User == "" {
		return types.EmptyJID, pkgError.ValidationError(fmt.Sprintf("invalid recipient %q", remoteJID))
	}
	return jid.ToNonAD(), nil
}

// SendText dispatches a plain text message and returns the protocol id.
func (m *Manager) SendText(ctx context.Context, sessionID string, to types.JID, body string) (SendResult, error) {
	handle, err := m.ActiveHandle(sessionID)
	if err != nil {
		return SendResult{}, err
	}
	resp, err := handle.Client.SendMessage(ctx, to, &waE2E.Message{
		Conversation: proto.String(body),
	})
	if err != nil {
		return SendResult{}, err
	}
	return SendResult{MessageID: string(resp.ID), Timestamp: resp.Timestamp}, nil
}

// SendImage uploads the image bytes to WhatsApp media servers and dispatches
// an image message with the optional caption.
func (m *Manager) SendImage(ctx context.Context, sessionID string, to types.JID, data []byte, mimeType, caption string) (SendResult, error) {
	handle, err := m.ActiveHandle(sessionID)
	if err != nil {
		return SendResult{}, err
	}
	uploaded, err := handle.Client.Upload(ctx, data, whatsmeow.MediaImage)
	if err != nil {
		return SendResult{}, err
	}
	resp, err := handle.Client.SendMessage(ctx, to, &waE2E.Message{
		ImageMessage: &waE2E.ImageMessage{
			Caption:       proto.String(caption),
			Mimetype:      proto.String(mimeType),
			URL:           proto.String(uploaded.URL),
			DirectPath:    proto.String(uploaded.DirectPath),
			MediaKey:      uploaded.MediaKey,
			FileEncSHA256: uploaded.FileEncSHA256,
			FileSHA256:    uploaded.FileSHA256,
			FileLength:    proto.Uint64(uploaded.FileLength),
		},
	})
	if err != nil {
		return SendResult{}, err
	}
	return SendResult{MessageID: string(resp.ID), Timestamp: resp.Timestamp}, nil
}

// SendDocument uploads arbitrary bytes as a document with a file name.
func (m *Manager) SendDocument(ctx context.Context, sessionID string, to types.JID, data []byte, mimeType, fileName, caption string) (SendResult, error) {
	handle, err := m.ActiveHandle(sessionID)
	if err != nil {
		return SendResult{}, err
	}
	uploaded, err := handle.Client.Upload(ctx, data, whatsmeow.MediaDocument)
	if err != nil {
		return SendResult{}, err
	}
	resp, err := handle.Client.SendMessage(ctx, to, &waE2E.Message{
		DocumentMessage: &waE2E.DocumentMessage{
			Title:         proto.String(fileName),
			FileName:      proto.String(fileName),
			Caption:       proto.String(caption),
			Mimetype:      proto.String(mimeType),
			URL:           proto.String(uploaded.URL),
			DirectPath:    proto.String(uploaded.DirectPath),
			MediaKey:      uploaded.MediaKey,
			FileEncSHA256: uploaded.FileEncSHA256,
			FileSHA256:    uploaded.FileSHA256,
			FileLength:    proto.Uint64(uploaded.FileLength),
		},
	})
	if err != nil {
		return SendResult{}, err
	}
	return SendResult{MessageID: string(resp.ID), Timestamp: resp.Timestamp}, nil
}
