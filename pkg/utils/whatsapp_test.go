package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPhoneFromJID(t *testing.T) {
	assert.Equal(t, "5215512345678", PhoneFromJID("5215512345678@s.whatsapp.net"))
	assert.Empty(t, PhoneFromJID("120363011234567890@g.us"))
	assert.Empty(t, PhoneFromJID("99887766554433@lid"))
	assert.Empty(t, PhoneFromJID("not a jid"))
}

func TestJIDNamespaceChecks(t *testing.T) {
	assert.True(t, IsGroupJID("120363011234567890@g.us"))
	assert.False(t, IsGroupJID("5215512345678@s.whatsapp.net"))
	assert.True(t, IsLIDJID("99887766554433@lid"))
	assert.False(t, IsLIDJID("5215512345678@s.whatsapp.net"))
}

func TestPhoneVariants(t *testing.T) {
	assert.Equal(t, []string{"5215512345678", "+5215512345678"}, PhoneVariants("+5215512345678"))
	assert.Equal(t, []string{"5215512345678", "+5215512345678"}, PhoneVariants("5215512345678"))
	assert.Nil(t, PhoneVariants("   "))
}

func TestTruncatePreview(t *testing.T) {
	assert.Equal(t, "short", TruncatePreview("short"))

	long := strings.Repeat("ñ", PreviewMaxLen+20)
	truncated := TruncatePreview(long)
	assert.Equal(t, PreviewMaxLen, len([]rune(truncated)))
}

func TestMediaExtension(t *testing.T) {
	assert.Equal(t, "jpg", MediaExtension("image/jpeg"))
	assert.Equal(t, "png", MediaExtension("image/png"))
	assert.Equal(t, "mp4", MediaExtension("video/mp4"))
	assert.Equal(t, "ogg", MediaExtension("audio/ogg; codecs=opus"))
	assert.Equal(t, "pdf", MediaExtension("application/pdf"))
	assert.Equal(t, "bin", MediaExtension("application/x-unknown"))
}
