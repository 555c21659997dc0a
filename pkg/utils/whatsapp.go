package utils

import (
	"strings"

	"go.mau.fi/whatsmeow/types"
)

// PreviewMaxLen bounds the conversation last-message preview.
const PreviewMaxLen = 100

func IsGroupJID(jid string) bool {
	return strings.HasSuffix(jid, "@"+types.GroupServer)
}

func IsLIDJID(jid string) bool {
	return strings.HasSuffix(jid, "@"+types.HiddenUserServer)
}

// PhoneFromJID returns the bare phone number for a phone-bound address, or ""
// for group, broadcast and linked-identifier addresses.
func PhoneFromJID(jid string) string {
	parsed, err := types.ParseJID(jid)
	if err != nil || parsed.Server != types.DefaultUserServer {
		return ""
	}
	return parsed.User
}

// PhoneVariants returns the lookup candidates for a phone number, covering
// the "+"-prefixed and bare forms stored by different CRM importers.
func PhoneVariants(phone string) []string {
	trimmed := strings.TrimSpace(phone)
	if trimmed == "" {
		return nil
	}
	bare := strings.TrimPrefix(trimmed, "+")
	return []string{bare, "+" + bare}
}

func TruncatePreview(s string) string {
	runes := []rune(s)
	if len(runes) <= PreviewMaxLen {
		return s
	}
	return string(runes[:PreviewMaxLen])
}

// MediaExtension maps a mime type onto a storage object extension.
func MediaExtension(mimeType string) string {
	switch {
	case strings.HasPrefix(mimeType, "image/jpeg"):
		return "jpg"
	case strings.HasPrefix(mimeType, "image/png"):
		return "png"
	case strings.HasPrefix(mimeType, "image/webp"):
		return "webp"
	case strings.HasPrefix(mimeType, "video/"):
		return "mp4"
	case strings.HasPrefix(mimeType, "audio/"):
		return "ogg"
	case strings.HasPrefix(mimeType, "application/pdf"):
		return "pdf"
	default:
		return "bin"
	}
}
