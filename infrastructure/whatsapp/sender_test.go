package whatsapp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mau.fi/whatsmeow/types"

	pkgError "github.com/crmkit/wabridge/pkg/error"
)

func TestResolveRecipient(t *testing.T) {
	jid, err := ResolveRecipient("5215512345678@s.whatsapp.net")
	require.NoError(t, err)
	assert.Equal(t, "5215512345678", jid.User)
	assert.Equal(t, types.DefaultUserServer, jid.Server)

	group, err := ResolveRecipient("120363011234567890@g.us")
	require.NoError(t, err)
	assert.Equal(t, types.GroupServer, group.Server)

	bare, err := ResolveRecipient("5215512345678")
	require.NoError(t, err)
	assert.Equal(t, "5215512345678@s.whatsapp.net", bare.String())
}

func TestResolveRecipientStripsDeviceSuffix(t *testing.T) {
	jid, err := ResolveRecipient("5215512345678:12@s.whatsapp.net")
	require.NoError(t, err)
	assert.Equal(t, "5215512345678@s.whatsapp.net", jid.String())
}

func TestResolveRecipientInvalid(t *testing.T) {
	_, err := ResolveRecipient("@s.whatsapp.net")
	require.Error(t, err)
	webErr, ok := err.(pkgError.WebError)
	require.True(t, ok)
	assert.Equal(t, 400, webErr.StatusCode())
}

func TestActiveHandleMissingSession(t *testing.T) {
	manager := &Manager{registry: NewRegistry()}

	_, err := manager.ActiveHandle("ghost")
	assert.ErrorIs(t, err, pkgError.ErrSessionNotActive)
}
