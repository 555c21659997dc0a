package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainSession "github.com/crmkit/wabridge/domains/session"
	"github.com/crmkit/wabridge/infrastructure/whatsapp"
	pkgError "github.com/crmkit/wabridge/pkg/error"
)

func TestSessionStatusUnknownSession(t *testing.T) {
	manager := whatsapp.NewManager(whatsapp.NewRegistry(), nil, nil, nil, nil, nil, nil)
	store := &fakeSessionStore{sessions: map[string]*domainSession.Session{}}
	service := NewSessionService(manager, store)

	_, err := service.Status(context.Background(), "ghost")
	assert.ErrorIs(t, err, pkgError.ErrSessionNotFound)
}

func TestSessionStatusKnownButInactive(t *testing.T) {
	manager := whatsapp.NewManager(whatsapp.NewRegistry(), nil, nil, nil, nil, nil, nil)
	store := &fakeSessionStore{sessions: map[string]*domainSession.Session{
		"sess-1": {ID: "sess-1", OrgID: "org-1", Status: domainSession.StatusDisconnected},
	}}
	service := NewSessionService(manager, store)

	response, err := service.Status(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.False(t, response.Active)
	assert.Equal(t, "sess-1", response.SessionID)
}

func TestStartSessionValidatesRequest(t *testing.T) {
	manager := whatsapp.NewManager(whatsapp.NewRegistry(), nil, nil, nil, nil, nil, nil)
	store := &fakeSessionStore{sessions: map[string]*domainSession.Session{}}
	service := NewSessionService(manager, store)

	err := service.Start(context.Background(), domainSession.StartRequest{SessionID: "sess-1"})
	require.Error(t, err)
	webErr, ok := err.(pkgError.WebError)
	require.True(t, ok)
	assert.Equal(t, 400, webErr.StatusCode())
}
