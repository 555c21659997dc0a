package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	domainCredential "github.com/crmkit/wabridge/domains/credential"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CredentialStore struct {
	db *gorm.DB
}

func NewCredentialStore(db *gorm.DB) *CredentialStore {
	return &CredentialStore{db: db}
}

func compositeKey(keyType, id string) string {
	return fmt.Sprintf("%s-%s", keyType, id)
}

func (s *CredentialStore) Load(ctx context.Context, sessionID string) (*domainCredential.Creds, error) {
	var row credentialModel
	err := s.db.WithContext(ctx).
		Where("session_id = ? AND key_name = ?", sessionID, domainCredential.CredsKey).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	raw, err := decodeBlob(row.Value)
	if err != nil {
		return nil, err
	}
	var creds domainCredential.Creds
	if err := json.Unmarshal(raw, &creds); err != nil {
		return nil, fmt.Errorf("stored creds for %s are unreadable: %w", sessionID, err)
	}
	return &creds, nil
}

func (s *CredentialStore) SaveCreds(ctx context.Context, sessionID string, creds *domainCredential.Creds) error {
	raw, err := json.Marshal(creds)
	if err != nil {
		return err
	}
	return s.upsertKey(ctx, sessionID, domainCredential.CredsKey, raw)
}

func (s *CredentialStore) GetKeys(ctx context.Context, sessionID, keyType string, ids []string) (map[string][]byte, error) {
	if len(ids) == 0 {
		return map[string][]byte{}, nil
	}

	names := make([]string, 0, len(ids))
	nameToID := make(map[string]string, len(ids))
	for _, id := range ids {
		name := compositeKey(keyType, id)
		names = append(names, name)
		nameToID[name] = id
	}

	var rows []credentialModel
	err := s.db.WithContext(ctx).
		Where("session_id = ? AND key_name IN ?", sessionID, names).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	result := make(map[string][]byte, len(rows))
	for _, row := range rows {
		value, err := decodeBlob(row.Value)
		if err != nil {
			logrus.Warnf("[CREDSTORE] Skipping unreadable key %s for session %s: %v", row.KeyName, sessionID, err)
			continue
		}
		result[nameToID[row.KeyName]] = value
	}
	return result, nil
}

func (s *CredentialStore) SetKeys(ctx context.Context, sessionID string, updates domainCredential.KeyUpdates) error {
	var errs []error
	for keyType, byID := range updates {
		for id, value := range byID {
			name := compositeKey(keyType, id)
			var err error
			if value == nil {
				err = s.db.WithContext(ctx).
					Where("session_id = ? AND key_name = ?", sessionID, name).
					Delete(&credentialModel{}).Error
			} else {
				err = s.upsertKey(ctx, sessionID, name, value)
			}
			if err != nil {
				// Best effort: a dropped key write forces a future re-sync,
				// which the protocol layer tolerates.
				logrus.Errorf("[CREDSTORE] Failed to write key %s for session %s: %v", name, sessionID, err)
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

func (s *CredentialStore) DeleteAll(ctx context.Context, sessionID string) error {
	return s.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Delete(&credentialModel{}).Error
}

func (s *CredentialStore) upsertKey(ctx context.Context, sessionID, keyName string, value []byte) error {
	encoded, err := encodeBlob(value)
	if err != nil {
		return err
	}
	row := credentialModel{
		SessionID: sessionID,
		KeyName:   keyName,
		Value:     encoded,
		UpdatedAt: time.Now(),
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "session_id"}, {Name: "key_name"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&row).Error
}
