package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/crmkit/wabridge/infrastructure/whatsapp"
)

func TestHealthCheck(t *testing.T) {
	registry := whatsapp.NewRegistry()
	service := NewHealthService(registry)

	response := service.Check(context.Background())
	assert.Equal(t, "ok", response.Status)
	assert.Equal(t, 0, response.ActiveSessions)
	assert.GreaterOrEqual(t, response.Uptime, int64(0))

	registry.Set(&whatsapp.SessionHandle{SessionID: "sess-1"})
	response = service.Check(context.Background())
	assert.Equal(t, 1, response.ActiveSessions)
}
