package credential

import "context"

// CredsKey is the key name holding the session's identity credentials.
const CredsKey = "creds"

// Creds is the bridge-level identity record for a paired session.
type Creds struct {
	DeviceJID    string `json:"device_jid"`
	PhoneNumber  string `json:"phone_number"`
	PushName     string `json:"push_name,omitempty"`
	RegisteredAt int64  `json:"registered_at"`
}

// KeyUpdates maps category -> id -> value; a nil value deletes that key.
type KeyUpdates map[string]map[string][]byte

// IStore is the durable keyed-blob store for per-session protocol state.
// Values are stored through a binary-safe JSON envelope so arbitrary byte
// buffers survive the round trip.
type IStore interface {
	// Load returns the stored identity credentials, or (nil, nil) when the
	// session has never paired.
	Load(ctx context.Context, sessionID string) (*Creds, error)
	SaveCreds(ctx context.Context, sessionID string, creds *Creds) error
	// GetKeys returns only the ids that have stored values; missing ids are
	// simply absent, not an error.
	GetKeys(ctx context.Context, sessionID, keyType string, ids []string) (map[string][]byte, error)
	// SetKeys issues one idempotent upsert or delete per (category, id) and
	// waits for all of them before returning.
	SetKeys(ctx context.Context, sessionID string, updates KeyUpdates) error
	// DeleteAll purges every record for the session; required before the
	// session can be re-paired from scratch.
	DeleteAll(ctx context.Context, sessionID string) error
}
