package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainCredential "github.com/crmkit/wabridge/domains/credential"
)

func TestCredentialStoreLoadAbsent(t *testing.T) {
	store := NewCredentialStore(openTestDB(t))

	creds, err := store.Load(context.Background(), "never-paired")
	require.NoError(t, err)
	assert.Nil(t, creds)
}

func TestCredentialStoreSaveAndLoad(t *testing.T) {
	store := NewCredentialStore(openTestDB(t))
	ctx := context.Background()

	original := &domainCredential.Creds{
		DeviceJID:    "5215512345678:12@s.whatsapp.net",
		PhoneNumber:  "5215512345678",
		PushName:     "Support",
		RegisteredAt: 1756600000,
	}
	require.NoError(t, store.SaveCreds(ctx, "sess-1", original))

	loaded, err := store.Load(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, original, loaded)
}

func TestCredentialStoreIdempotentWrite(t *testing.T) {
	db := openTestDB(t)
	store := NewCredentialStore(db)
	ctx := context.Background()

	updates := domainCredential.KeyUpdates{
		"app-state": {"critical_block": []byte{0x01, 0x02}},
	}
	require.NoError(t, store.SetKeys(ctx, "sess-1", updates))
	require.NoError(t, store.SetKeys(ctx, "sess-1", updates))

	var count int64
	require.NoError(t, db.Model(&credentialModel{}).
		Where("session_id = ? AND key_name = ?", "sess-1", "app-state-critical_block").
		Count(&count).Error)
	assert.EqualValues(t, 1, count)

	got, err := store.GetKeys(ctx, "sess-1", "app-state", []string{"critical_block"})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0x02}, got["critical_block"])
}

func TestCredentialStoreNilValueDeletes(t *testing.T) {
	store := NewCredentialStore(openTestDB(t))
	ctx := context.Background()

	require.NoError(t, store.SetKeys(ctx, "sess-1", domainCredential.KeyUpdates{
		"app-state": {"critical_block": []byte("v1")},
	}))
	require.NoError(t, store.SetKeys(ctx, "sess-1", domainCredential.KeyUpdates{
		"app-state": {"critical_block": nil},
	}))

	got, err := store.GetKeys(ctx, "sess-1", "app-state", []string{"critical_block"})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestCredentialStoreGetKeysSkipsMissing(t *testing.T) {
	store := NewCredentialStore(openTestDB(t))
	ctx := context.Background()

	require.NoError(t, store.SetKeys(ctx, "sess-1", domainCredential.KeyUpdates{
		"pre-key": {"1": []byte("a")},
	}))

	got, err := store.GetKeys(ctx, "sess-1", "pre-key", []string{"1", "2", "3"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, []byte("a"), got["1"])
}

func TestCredentialStoreDeleteAll(t *testing.T) {
	db := openTestDB(t)
	store := NewCredentialStore(db)
	ctx := context.Background()

	require.NoError(t, store.SaveCreds(ctx, "sess-1", &domainCredential.Creds{DeviceJID: "x"}))
	require.NoError(t, store.SetKeys(ctx, "sess-1", domainCredential.KeyUpdates{
		"lid-map": {"123@lid": []byte("456@s.whatsapp.net")},
	}))
	require.NoError(t, store.SaveCreds(ctx, "sess-2", &domainCredential.Creds{DeviceJID: "y"}))

	require.NoError(t, store.DeleteAll(ctx, "sess-1"))

	creds, err := store.Load(ctx, "sess-1")
	require.NoError(t, err)
	assert.Nil(t, creds)

	// Other sessions keep their rows.
	other, err := store.Load(ctx, "sess-2")
	require.NoError(t, err)
	require.NotNil(t, other)
	assert.Equal(t, "y", other.DeviceJID)
}
