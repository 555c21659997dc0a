package chatstorage

import (
	"context"
	"time"
)

type Direction string

const (
	DirectionInbound  Direction = "inbound"
	DirectionOutbound Direction = "outbound"
)

type MessageStatus string

const (
	StatusPending   MessageStatus = "pending"
	StatusSent      MessageStatus = "sent"
	StatusDelivered MessageStatus = "delivered"
	StatusRead      MessageStatus = "read"
	StatusFailed    MessageStatus = "failed"
)

type ContentType string

const (
	ContentText     ContentType = "text"
	ContentImage    ContentType = "image"
	ContentDocument ContentType = "document"
	ContentVideo    ContentType = "video"
	ContentAudio    ContentType = "audio"
	ContentSticker  ContentType = "sticker"
	ContentLocation ContentType = "location"
	ContentContact  ContentType = "contact"
)

// Conversation is one remote chat thread bound to a session.
type Conversation struct {
	ID            string     `json:"id"`
	OrgID         string     `json:"org_id"`
	SessionID     string     `json:"session_id"`
	RemoteJID     string     `json:"remote_jid"`
	Name          string     `json:"name"`
	PhoneNumber   string     `json:"phone_number,omitempty"`
	ContactID     string     `json:"contact_id,omitempty"`
	IsOpen        bool       `json:"is_open"`
	LastPreview   string     `json:"last_message_preview"`
	LastMessageAt *time.Time `json:"last_message_at,omitempty"`
	UnreadCount   int        `json:"unread_count"`
	Provider      string     `json:"provider"`
}

type Message struct {
	ID             string        `json:"id"`
	ConversationID string        `json:"conversation_id"`
	WaMessageID    string        `json:"wa_message_id,omitempty"`
	Direction      Direction     `json:"direction"`
	Type           ContentType   `json:"type"`
	Body           string        `json:"body,omitempty"`
	MediaURL       string        `json:"media_url,omitempty"`
	SenderName     string        `json:"sender_name,omitempty"`
	Status         MessageStatus `json:"status"`
	RawPayload     string        `json:"raw_payload,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
}

// Contact is a CRM-owned row; the bridge reads it for auto-linking and never
// writes it.
type Contact struct {
	ID    string `json:"id"`
	OrgID string `json:"org_id"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// IRepository is the durable conversation/message store. Every write is an
// idempotent upsert or field-level backfill so racing event projections
// converge regardless of ordering.
type IRepository interface {
	// UpsertConversation inserts or refreshes the row keyed by
	// (session_id, remote_jid) and returns its id.
	UpsertConversation(ctx context.Context, conv *Conversation) (string, error)
	GetConversation(ctx context.Context, id string) (*Conversation, error)
	FindConversationByRemoteJID(ctx context.Context, sessionID, remoteJID string) (*Conversation, error)
	UpdateConversationPreview(ctx context.Context, id, preview string, at time.Time) error
	// IncrementUnread is an atomic server-side increment, never read-modify-write.
	IncrementUnread(ctx context.Context, id string) error
	ResetUnread(ctx context.Context, id string) error
	LinkContact(ctx context.Context, conversationID, contactID string) error
	// BackfillConversationIdentity fills name/phone on every conversation of
	// the session whose remote_jid matches one of the address variants,
	// touching only fields that are still empty or placeholder.
	BackfillConversationIdentity(ctx context.Context, sessionID string, remoteJIDs []string, name, phone string) error

	FindContactByPhone(ctx context.Context, orgID, phone string) (*Contact, error)

	// InsertMessage reports false without error when wa_message_id already
	// exists (duplicate-import guard).
	InsertMessage(ctx context.Context, msg *Message) (bool, error)
	GetMessageByWaID(ctx context.Context, waMessageID string) (*Message, error)
	// AdvanceMessageStatus only ever moves the status forward
	// (pending→sent→delivered→read); failed is terminal.
	AdvanceMessageStatus(ctx context.Context, waMessageID string, status MessageStatus) error
	MarkMessageSent(ctx context.Context, id, waMessageID string) error
	MarkMessageFailed(ctx context.Context, id string) error
	LatestMessage(ctx context.Context, conversationID string) (*Message, error)
}
