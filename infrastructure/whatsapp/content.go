package whatsapp

import (
	"fmt"

	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waE2E"

	"github.com/crmkit/wabridge/domains/chatstorage"
)

// Content is the normalized projection of an incoming WhatsApp message body.
// Exactly one content type applies per message; unsupported payloads come back
// with ok=false and are dropped by the caller.
type Content struct {
	Type      chatstorage.ContentType
	Body      string
	MediaMime string
	FileName  string
	Media     whatsmeow.DownloadableMessage
}

// extractContent maps the protobuf message union onto a single typed content
// value. Media bodies carry the caption; location carries "lat,lon (name)";
// contact carries the display name with the vCard preserved as body.
func extractContent(msg *waE2E.Message) (Content, bool) {
	if msg == nil {
		return Content{}, false
	}

	if text := msg.GetConversation(); text != "" {
		return Content{Type: chatstorage.ContentText, Body: text}, true
	}
	if ext := msg.GetExtendedTextMessage(); ext != nil && ext.GetText() != "" {
		return Content{Type: chatstorage.ContentText, Body: ext.GetText()}, true
	}
	if img := msg.GetImageMessage(); img != nil {
		return Content{
			Type:      chatstorage.ContentImage,
			Body:      img.GetCaption(),
			MediaMime: img.GetMimetype(),
			Media:     img,
		}, true
	}
	if doc := msg.GetDocumentMessage(); doc != nil {
		return Content{
			Type:      chatstorage.ContentDocument,
			Body:      doc.GetCaption(),
			MediaMime: doc.GetMimetype(),
			FileName:  doc.GetFileName(),
			Media:     doc,
		}, true
	}
	if vid := msg.GetVideoMessage(); vid != nil {
		return Content{
			Type:      chatstorage.ContentVideo,
			Body:      vid.GetCaption(),
			MediaMime: vid.GetMimetype(),
			Media:     vid,
		}, true
	}
	if aud := msg.GetAudioMessage(); aud != nil {
		return Content{
			Type:      chatstorage.ContentAudio,
			MediaMime: aud.GetMimetype(),
			Media:     aud,
		}, true
	}
	if stk := msg.GetStickerMessage(); stk != nil {
		return Content{
			Type:      chatstorage.ContentSticker,
			MediaMime: stk.GetMimetype(),
			Media:     stk,
		}, true
	}
	if loc := msg.GetLocationMessage(); loc != nil {
		body := fmt.Sprintf("%f,%f", loc.GetDegreesLatitude(), loc.GetDegreesLongitude())
		if name := loc.GetName(); name != "" {
			body = fmt.Sprintf("%s (%s)", body, name)
		}
		return Content{Type: chatstorage.ContentLocation, Body: body}, true
	}
	if ct := msg.GetContactMessage(); ct != nil {
		return Content{
			Type:     chatstorage.ContentContact,
			Body:     ct.GetVcard(),
			FileName: ct.GetDisplayName(),
		}, true
	}

	// Protocol messages (revokes, app state keys) and reactions carry no
	// renderable body.
	return Content{}, false
}

// previewFor renders the conversation list preview for a content value.
func previewFor(c Content) string {
	switch c.Type {
	case chatstorage.ContentText:
		return c.Body
	case chatstorage.ContentImage:
		if c.Body != "" {
			return c.Body
		}
		return "[Image]"
	case chatstorage.ContentDocument:
		if c.FileName != "" {
			return c.FileName
		}
		return "[Document]"
	case chatstorage.ContentVideo:
		if c.Body != "" {
			return c.Body
		}
		return "[Video]"
	case chatstorage.ContentAudio:
		return "[Audio]"
	case chatstorage.ContentSticker:
		return "[Sticker]"
	case chatstorage.ContentLocation:
		return "[Location]"
	case chatstorage.ContentContact:
		if c.FileName != "" {
			return c.FileName
		}
		return "[Contact]"
	}
	return ""
}
