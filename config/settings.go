package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.mau.fi/whatsmeow/proto/waCompanionReg"
)

var (
	AppVersion  = "v1.0.0"
	AppPort     = "3000"
	AppDebug    = false
	AppOs       = "WaBridge"
	AppPlatform = waCompanionReg.DeviceProps_PlatformType(1)

	// Shared secret expected in the X-Api-Key header on every /api route.
	AppSecretKey = ""

	// Postgres DSN for sessions, conversations, messages and credential blobs.
	DBURI = ""
	// DSN for the whatsmeow device store. Defaults to DBURI so protocol key
	// material lives in the same database and survives restarts anywhere.
	WaStoreDSN = ""

	WhatsappLogLevel = "ERROR"

	StorageEndpoint  = ""
	StorageBucket    = "wa-media"
	StorageAccessKey = ""

	ReconnectMaxAttempts = 10
	ReconnectBaseDelay   = 2 * time.Second
	ReconnectMaxDelay    = 60 * time.Second

	// History sync imports unnamed one-to-one chats only when enabled; the
	// default keeps unreadable linked-identifier threads out of the CRM inbox.
	HistoryImportUnnamedChats = false

	MediaFetchTimeout = 30 * time.Second
)

// Load reads settings from the environment. Call once at boot, before Validate.
func Load() {
	viper.AutomaticEnv()

	viper.SetDefault("APP_PORT", AppPort)
	viper.SetDefault("APP_DEBUG", AppDebug)
	viper.SetDefault("WHATSAPP_LOG_LEVEL", WhatsappLogLevel)
	viper.SetDefault("STORAGE_BUCKET", StorageBucket)
	viper.SetDefault("RECONNECT_MAX_ATTEMPTS", ReconnectMaxAttempts)
	viper.SetDefault("RECONNECT_BASE_DELAY", ReconnectBaseDelay)
	viper.SetDefault("RECONNECT_MAX_DELAY", ReconnectMaxDelay)
	viper.SetDefault("HISTORY_IMPORT_UNNAMED_CHATS", HistoryImportUnnamedChats)
	viper.SetDefault("MEDIA_FETCH_TIMEOUT", MediaFetchTimeout)

	AppPort = viper.GetString("APP_PORT")
	AppDebug = viper.GetBool("APP_DEBUG")
	AppSecretKey = strings.TrimSpace(viper.GetString("APP_SECRET_KEY"))
	DBURI = strings.TrimSpace(viper.GetString("DB_URI"))
	WaStoreDSN = strings.TrimSpace(viper.GetString("WA_STORE_DSN"))
	if WaStoreDSN == "" {
		WaStoreDSN = DBURI
	}
	WhatsappLogLevel = viper.GetString("WHATSAPP_LOG_LEVEL")
	StorageEndpoint = strings.TrimRight(strings.TrimSpace(viper.GetString("STORAGE_ENDPOINT")), "/")
	StorageBucket = viper.GetString("STORAGE_BUCKET")
	StorageAccessKey = strings.TrimSpace(viper.GetString("STORAGE_ACCESS_KEY"))
	ReconnectMaxAttempts = viper.GetInt("RECONNECT_MAX_ATTEMPTS")
	ReconnectBaseDelay = viper.GetDuration("RECONNECT_BASE_DELAY")
	ReconnectMaxDelay = viper.GetDuration("RECONNECT_MAX_DELAY")
	HistoryImportUnnamedChats = viper.GetBool("HISTORY_IMPORT_UNNAMED_CHATS")
	MediaFetchTimeout = viper.GetDuration("MEDIA_FETCH_TIMEOUT")
}

// Validate fails fast on settings the bridge cannot run without.
func Validate() error {
	if AppSecretKey == "" {
		return fmt.Errorf("APP_SECRET_KEY is required")
	}
	if DBURI == "" {
		return fmt.Errorf("DB_URI is required")
	}
	return nil
}
