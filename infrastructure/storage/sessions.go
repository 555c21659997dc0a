package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	domainSession "github.com/crmkit/wabridge/domains/session"
	pkgError "github.com/crmkit/wabridge/pkg/error"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SessionStore struct {
	db *gorm.DB
}

func NewSessionStore(db *gorm.DB) *SessionStore {
	return &SessionStore{db: db}
}

func (s *SessionStore) Upsert(ctx context.Context, sess *domainSession.Session) error {
	row := sessionModel{
		ID:          sess.ID,
		OrgID:       sess.OrgID,
		Status:      string(sess.Status),
		QRCode:      sess.QRCode,
		PhoneNumber: sess.PhoneNumber,
		UpdatedAt:   time.Now(),
	}
	if sess.ConnectedAt != nil {
		row.ConnectedAt = sql.NullTime{Time: *sess.ConnectedAt, Valid: true}
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"org_id", "status", "qr_code", "phone_number", "connected_at", "updated_at"}),
	}).Create(&row).Error
}

func (s *SessionStore) Get(ctx context.Context, id string) (*domainSession.Session, error) {
	var row sessionModel
	err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgError.ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	sess := toDomainSession(row)
	return &sess, nil
}

func (s *SessionStore) SetQRPending(ctx context.Context, id, qrCode string) error {
	return s.updateColumns(ctx, id, map[string]any{
		"status":  string(domainSession.StatusQRPending),
		"qr_code": qrCode,
	})
}

func (s *SessionStore) SetConnected(ctx context.Context, id, phoneNumber string) error {
	return s.updateColumns(ctx, id, map[string]any{
		"status":       string(domainSession.StatusConnected),
		"qr_code":      "",
		"phone_number": phoneNumber,
		"connected_at": time.Now(),
	})
}

func (s *SessionStore) SetDisconnected(ctx context.Context, id string) error {
	return s.updateColumns(ctx, id, map[string]any{
		"status":       string(domainSession.StatusDisconnected),
		"qr_code":      "",
		"phone_number": "",
		"connected_at": nil,
	})
}

func (s *SessionStore) ListByStatus(ctx context.Context, status domainSession.Status) ([]domainSession.Session, error) {
	var rows []sessionModel
	if err := s.db.WithContext(ctx).Where("status = ?", string(status)).Find(&rows).Error; err != nil {
		return nil, err
	}
	return toDomainSessions(rows), nil
}

func (s *SessionStore) ListAll(ctx context.Context) ([]domainSession.Session, error) {
	var rows []sessionModel
	if err := s.db.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	return toDomainSessions(rows), nil
}

func (s *SessionStore) updateColumns(ctx context.Context, id string, values map[string]any) error {
	values["updated_at"] = time.Now()
	return s.db.WithContext(ctx).Model(&sessionModel{}).Where("id = ?", id).Updates(values).Error
}

func toDomainSession(row sessionModel) domainSession.Session {
	sess := domainSession.Session{
		ID:          row.ID,
		OrgID:       row.OrgID,
		Status:      domainSession.Status(row.Status),
		QRCode:      row.QRCode,
		PhoneNumber: row.PhoneNumber,
		UpdatedAt:   row.UpdatedAt,
	}
	if row.ConnectedAt.Valid {
		t := row.ConnectedAt.Time
		sess.ConnectedAt = &t
	}
	return sess
}

func toDomainSessions(rows []sessionModel) []domainSession.Session {
	out := make([]domainSession.Session, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDomainSession(row))
	}
	return out
}
