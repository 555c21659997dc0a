package usecase

import (
	"context"

	domainSession "github.com/crmkit/wabridge/domains/session"
	"github.com/crmkit/wabridge/infrastructure/whatsapp"
	"github.com/crmkit/wabridge/validations"
)

type serviceSession struct {
	manager *whatsapp.Manager
	store   domainSession.IStore
}

func NewSessionService(manager *whatsapp.Manager, store domainSession.IStore) domainSession.IUsecase {
	return &serviceSession{manager: manager, store: store}
}

func (service *serviceSession) Start(ctx context.Context, request domainSession.StartRequest) error {
	if err := validations.ValidateStartSession(ctx, request); err != nil {
		return err
	}
	return service.manager.StartSession(ctx, request.SessionID, request.OrgID)
}

func (service *serviceSession) Disconnect(ctx context.Context, sessionID string) error {
	return service.manager.DisconnectSession(ctx, sessionID)
}

// Status reports liveness from the in-memory registry; the durable row only
// backs the 404 check for sessions the bridge has never seen.
func (service *serviceSession) Status(ctx context.Context, sessionID string) (domainSession.StatusResponse, error) {
	if _, err := service.store.Get(ctx, sessionID); err != nil {
		return domainSession.StatusResponse{}, err
	}
	active := false
	if _, err := service.manager.ActiveHandle(sessionID); err == nil {
		active = true
	}
	return domainSession.StatusResponse{Active: active, SessionID: sessionID}, nil
}

func (service *serviceSession) List(ctx context.Context) ([]domainSession.Session, error) {
	return service.store.ListAll(ctx)
}
