package usecase

import (
	"context"
	"time"

	domainHealth "github.com/crmkit/wabridge/domains/health"
	"github.com/crmkit/wabridge/infrastructure/whatsapp"
)

type serviceHealth struct {
	registry  *whatsapp.Registry
	startedAt time.Time
}

func NewHealthService(registry *whatsapp.Registry) domainHealth.IUsecase {
	return &serviceHealth{registry: registry, startedAt: time.Now()}
}

func (service *serviceHealth) Check(ctx context.Context) domainHealth.Response {
	return domainHealth.Response{
		Status:         "ok",
		ActiveSessions: service.registry.Count(),
		Uptime:         int64(time.Since(service.startedAt).Seconds()),
	}
}
