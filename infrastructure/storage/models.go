package storage

import (
	"database/sql"
	"time"
)

type sessionModel struct {
	ID          string       `gorm:"primaryKey;column:id"`
	OrgID       string       `gorm:"column:org_id;not null;index"`
	Status      string       `gorm:"column:status;not null;default:'disconnected'"`
	QRCode      string       `gorm:"column:qr_code;type:text"`
	PhoneNumber string       `gorm:"column:phone_number"`
	ConnectedAt sql.NullTime `gorm:"column:connected_at"`
	CreatedAt   time.Time    `gorm:"column:created_at;not null"`
	UpdatedAt   time.Time    `gorm:"column:updated_at;not null"`
}

func (sessionModel) TableName() string { return "wa_sessions" }

type credentialModel struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"`
	SessionID string    `gorm:"column:session_id;not null;uniqueIndex:idx_session_key"`
	KeyName   string    `gorm:"column:key_name;not null;uniqueIndex:idx_session_key"`
	Value     string    `gorm:"column:value;type:text;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null"`
}

func (credentialModel) TableName() string { return "wa_session_keys" }

type conversationModel struct {
	ID            string         `gorm:"primaryKey;column:id"`
	OrgID         string         `gorm:"column:org_id;not null;index"`
	SessionID     string         `gorm:"column:session_id;not null;uniqueIndex:idx_session_remote"`
	RemoteJID     string         `gorm:"column:remote_jid;not null;uniqueIndex:idx_session_remote"`
	Name          string         `gorm:"column:name"`
	PhoneNumber   sql.NullString `gorm:"column:phone_number"`
	ContactID     sql.NullString `gorm:"column:contact_id"`
	IsOpen        bool           `gorm:"column:is_open;default:true"`
	LastPreview   string         `gorm:"column:last_message_preview"`
	LastMessageAt sql.NullTime   `gorm:"column:last_message_at"`
	UnreadCount   int            `gorm:"column:unread_count;not null;default:0"`
	Provider      string         `gorm:"column:provider;not null;default:'whatsapp'"`
	CreatedAt     time.Time      `gorm:"column:created_at;not null"`
	UpdatedAt     time.Time      `gorm:"column:updated_at;not null"`
}

func (conversationModel) TableName() string { return "conversations" }

type messageModel struct {
	ID             string         `gorm:"primaryKey;column:id"`
	ConversationID string         `gorm:"column:conversation_id;not null;index"`
	WaMessageID    sql.NullString `gorm:"column:wa_message_id;uniqueIndex"`
	Direction      string         `gorm:"column:direction;not null"`
	Type           string         `gorm:"column:type;not null;default:'text'"`
	Body           sql.NullString `gorm:"column:body;type:text"`
	MediaURL       sql.NullString `gorm:"column:media_url"`
	SenderName     string         `gorm:"column:sender_name"`
	Status         string         `gorm:"column:status;not null;default:'pending'"`
	RawPayload     sql.NullString `gorm:"column:raw_payload;type:text"`
	CreatedAt      time.Time      `gorm:"column:created_at;not null"`
}

func (messageModel) TableName() string { return "messages" }

type contactModel struct {
	ID    string `gorm:"primaryKey;column:id"`
	OrgID string `gorm:"column:org_id;not null;index"`
	Name  string `gorm:"column:name"`
	Phone string `gorm:"column:phone;index"`
}

func (contactModel) TableName() string { return "contacts" }
