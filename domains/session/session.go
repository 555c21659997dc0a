package session

import (
	"context"
	"time"
)

type Status string

const (
	StatusConnecting   Status = "connecting"
	StatusQRPending    Status = "qr_pending"
	StatusConnected    Status = "connected"
	StatusDisconnected Status = "disconnected"
)

// Session is one bridge-managed WhatsApp connection for one business number.
type Session struct {
	ID          string     `json:"id"`
	OrgID       string     `json:"org_id"`
	Status      Status     `json:"status"`
	QRCode      string     `json:"qr_code,omitempty"`
	PhoneNumber string     `json:"phone_number,omitempty"`
	ConnectedAt *time.Time `json:"connected_at,omitempty"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// IStore persists session rows. The bridge is the sole writer.
type IStore interface {
	Upsert(ctx context.Context, sess *Session) error
	Get(ctx context.Context, id string) (*Session, error)
	SetQRPending(ctx context.Context, id, qrCode string) error
	SetConnected(ctx context.Context, id, phoneNumber string) error
	// SetDisconnected clears QR payload, phone number and connected-at.
	SetDisconnected(ctx context.Context, id string) error
	ListByStatus(ctx context.Context, status Status) ([]Session, error)
	ListAll(ctx context.Context) ([]Session, error)
}

type StartRequest struct {
	SessionID string `json:"sessionId"`
	OrgID     string `json:"orgId"`
}

type StatusResponse struct {
	Active    bool   `json:"active"`
	SessionID string `json:"sessionId"`
}

// IUsecase is the control surface over the connection manager.
type IUsecase interface {
	Start(ctx context.Context, request StartRequest) error
	Disconnect(ctx context.Context, sessionID string) error
	Status(ctx context.Context, sessionID string) (StatusResponse, error)
	List(ctx context.Context) ([]Session, error)
}
