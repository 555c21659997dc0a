package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	domainChatStorage "github.com/crmkit/wabridge/domains/chatstorage"
	pkgUtils "github.com/crmkit/wabridge/pkg/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var statusRank = map[domainChatStorage.MessageStatus]int{
	domainChatStorage.StatusPending:   0,
	domainChatStorage.StatusSent:      1,
	domainChatStorage.StatusDelivered: 2,
	domainChatStorage.StatusRead:      3,
}

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// UpsertConversation inserts the row for (session_id, remote_jid) when first
// seen and then applies field-level backfills, so concurrent first-contact
// events converge on a single row whichever order they land in.
func (r *Repository) UpsertConversation(ctx context.Context, conv *domainChatStorage.Conversation) (string, error) {
	row := conversationModel{
		ID:          uuid.NewString(),
		OrgID:       conv.OrgID,
		SessionID:   conv.SessionID,
		RemoteJID:   conv.RemoteJID,
		Name:        conv.Name,
		IsOpen:      true,
		LastPreview: pkgUtils.TruncatePreview(conv.LastPreview),
		Provider:    conv.Provider,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	if row.Provider == "" {
		row.Provider = "whatsapp"
	}
	if conv.PhoneNumber != "" {
		row.PhoneNumber = sql.NullString{String: conv.PhoneNumber, Valid: true}
	}
	if conv.LastMessageAt != nil {
		row.LastMessageAt = sql.NullTime{Time: *conv.LastMessageAt, Valid: true}
	}

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "session_id"}, {Name: "remote_jid"}},
		DoNothing: true,
	}).Create(&row).Error
	if err != nil {
		return "", err
	}

	var existing conversationModel
	err = r.db.WithContext(ctx).
		Where("session_id = ? AND remote_jid = ?", conv.SessionID, conv.RemoteJID).
		First(&existing).Error
	if err != nil {
		return "", err
	}

	updates := map[string]any{"updated_at": time.Now()}
	if conv.LastPreview != "" {
		updates["last_message_preview"] = pkgUtils.TruncatePreview(conv.LastPreview)
	}
	if conv.LastMessageAt != nil {
		updates["last_message_at"] = *conv.LastMessageAt
	}
	if conv.Name != "" && (existing.Name == "" || existing.Name == existing.RemoteJID) {
		updates["name"] = conv.Name
	}
	if conv.PhoneNumber != "" && !existing.PhoneNumber.Valid {
		updates["phone_number"] = conv.PhoneNumber
	}
	if len(updates) > 1 {
		err = r.db.WithContext(ctx).Model(&conversationModel{}).
			Where("id = ?", existing.ID).
			Updates(updates).Error
		if err != nil {
			return "", err
		}
	}
	return existing.ID, nil
}

func (r *Repository) GetConversation(ctx context.Context, id string) (*domainChatStorage.Conversation, error) {
	var row conversationModel
	err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	conv := toDomainConversation(row)
	return &conv, nil
}

func (r *Repository) FindConversationByRemoteJID(ctx context.Context, sessionID, remoteJID string) (*domainChatStorage.Conversation, error) {
	var row conversationModel
	err := r.db.WithContext(ctx).
		Where("session_id = ? AND remote_jid = ?", sessionID, remoteJID).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	conv := toDomainConversation(row)
	return &conv, nil
}

func (r *Repository) UpdateConversationPreview(ctx context.Context, id, preview string, at time.Time) error {
	return r.db.WithContext(ctx).Model(&conversationModel{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"last_message_preview": pkgUtils.TruncatePreview(preview),
			"last_message_at":      at,
			"updated_at":           time.Now(),
		}).Error
}

// IncrementUnread is a server-side atomic increment; a read-modify-write here
// would lose updates under concurrent inbound bursts.
func (r *Repository) IncrementUnread(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Model(&conversationModel{}).
		Where("id = ?", id).
		UpdateColumn("unread_count", gorm.Expr("unread_count + ?", 1)).Error
}

func (r *Repository) ResetUnread(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Model(&conversationModel{}).
		Where("id = ?", id).
		UpdateColumn("unread_count", 0).Error
}

func (r *Repository) LinkContact(ctx context.Context, conversationID, contactID string) error {
	return r.db.WithContext(ctx).Model(&conversationModel{}).
		Where("id = ? AND contact_id IS NULL", conversationID).
		Update("contact_id", contactID).Error
}

func (r *Repository) BackfillConversationIdentity(ctx context.Context, sessionID string, remoteJIDs []string, name, phone string) error {
	if len(remoteJIDs) == 0 {
		return nil
	}
	updates := map[string]any{"updated_at": time.Now()}
	if name != "" {
		updates["name"] = gorm.Expr("CASE WHEN name = '' OR name = remote_jid THEN ? ELSE name END", name)
	}
	if phone != "" {
		updates["phone_number"] = gorm.Expr("CASE WHEN phone_number IS NULL OR phone_number = '' THEN ? ELSE phone_number END", phone)
	}
	if len(updates) == 1 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&conversationModel{}).
		Where("session_id = ? AND remote_jid IN ?", sessionID, remoteJIDs).
		Updates(updates).Error
}

func (r *Repository) FindContactByPhone(ctx context.Context, orgID, phone string) (*domainChatStorage.Contact, error) {
	variants := pkgUtils.PhoneVariants(phone)
	if len(variants) == 0 {
		return nil, nil
	}
	var row contactModel
	err := r.db.WithContext(ctx).
		Where("org_id = ? AND phone IN ?", orgID, variants).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &domainChatStorage.Contact{ID: row.ID, OrgID: row.OrgID, Name: row.Name, Phone: row.Phone}, nil
}

// InsertMessage reports false when a row with the same wa_message_id already
// exists; history replay and live delivery may both offer the same message.
func (r *Repository) InsertMessage(ctx context.Context, msg *domainChatStorage.Message) (bool, error) {
	row := messageModel{
		ID:             msg.ID,
		ConversationID: msg.ConversationID,
		Direction:      string(msg.Direction),
		Type:           string(msg.Type),
		SenderName:     msg.SenderName,
		Status:         string(msg.Status),
		CreatedAt:      msg.CreatedAt,
	}
	if row.ID == "" {
		row.ID = uuid.NewString()
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now()
	}
	if msg.WaMessageID != "" {
		row.WaMessageID = sql.NullString{String: msg.WaMessageID, Valid: true}
	}
	if msg.Body != "" {
		row.Body = sql.NullString{String: msg.Body, Valid: true}
	}
	if msg.MediaURL != "" {
		row.MediaURL = sql.NullString{String: msg.MediaURL, Valid: true}
	}
	if msg.RawPayload != "" {
		row.RawPayload = sql.NullString{String: msg.RawPayload, Valid: true}
	}

	tx := r.db.WithContext(ctx)
	if msg.WaMessageID != "" {
		tx = tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "wa_message_id"}},
			DoNothing: true,
		})
	}
	result := tx.Create(&row)
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected == 0 {
		return false, nil
	}
	msg.ID = row.ID
	return true, nil
}

func (r *Repository) GetMessageByWaID(ctx context.Context, waMessageID string) (*domainChatStorage.Message, error) {
	var row messageModel
	err := r.db.WithContext(ctx).Where("wa_message_id = ?", waMessageID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	msg := toDomainMessage(row)
	return &msg, nil
}

// AdvanceMessageStatus applies the forward-only delivery ladder; stale or
// out-of-order acks fall through without effect.
func (r *Repository) AdvanceMessageStatus(ctx context.Context, waMessageID string, status domainChatStorage.MessageStatus) error {
	rank, ok := statusRank[status]
	if !ok {
		return nil
	}
	earlier := make([]string, 0, rank)
	for s, n := range statusRank {
		if n < rank {
			earlier = append(earlier, string(s))
		}
	}
	return r.db.WithContext(ctx).Model(&messageModel{}).
		Where("wa_message_id = ? AND status IN ?", waMessageID, earlier).
		Update("status", string(status)).Error
}

func (r *Repository) MarkMessageSent(ctx context.Context, id, waMessageID string) error {
	return r.db.WithContext(ctx).Model(&messageModel{}).
		Where("id = ? AND status = ?", id, string(domainChatStorage.StatusPending)).
		Updates(map[string]any{
			"wa_message_id": waMessageID,
			"status":        string(domainChatStorage.StatusSent),
		}).Error
}

func (r *Repository) MarkMessageFailed(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Model(&messageModel{}).
		Where("id = ? AND status <> ?", id, string(domainChatStorage.StatusRead)).
		Update("status", string(domainChatStorage.StatusFailed)).Error
}

func (r *Repository) LatestMessage(ctx context.Context, conversationID string) (*domainChatStorage.Message, error) {
	var row messageModel
	err := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at DESC").
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	msg := toDomainMessage(row)
	return &msg, nil
}

func toDomainConversation(row conversationModel) domainChatStorage.Conversation {
	conv := domainChatStorage.Conversation{
		ID:          row.ID,
		OrgID:       row.OrgID,
		SessionID:   row.SessionID,
		RemoteJID:   row.RemoteJID,
		Name:        row.Name,
		IsOpen:      row.IsOpen,
		LastPreview: row.LastPreview,
		UnreadCount: row.UnreadCount,
		Provider:    row.Provider,
	}
	if row.PhoneNumber.Valid {
		conv.PhoneNumber = row.PhoneNumber.String
	}
	if row.ContactID.Valid {
		conv.ContactID = row.ContactID.String
	}
	if row.LastMessageAt.Valid {
		t := row.LastMessageAt.Time
		conv.LastMessageAt = &t
	}
	return conv
}

func toDomainMessage(row messageModel) domainChatStorage.Message {
	msg := domainChatStorage.Message{
		ID:             row.ID,
		ConversationID: row.ConversationID,
		Direction:      domainChatStorage.Direction(row.Direction),
		Type:           domainChatStorage.ContentType(row.Type),
		SenderName:     row.SenderName,
		Status:         domainChatStorage.MessageStatus(row.Status),
		CreatedAt:      row.CreatedAt,
	}
	if row.WaMessageID.Valid {
		msg.WaMessageID = row.WaMessageID.String
	}
	if row.Body.Valid {
		msg.Body = row.Body.String
	}
	if row.MediaURL.Valid {
		msg.MediaURL = row.MediaURL.String
	}
	if row.RawPayload.Valid {
		msg.RawPayload = row.RawPayload.String
	}
	return msg
}
