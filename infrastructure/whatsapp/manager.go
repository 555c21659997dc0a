package whatsapp

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/skip2/go-qrcode"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/store"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	waLog "go.mau.fi/whatsmeow/util/log"

	"github.com/crmkit/wabridge/config"
	"github.com/crmkit/wabridge/domains/chatstorage"
	"github.com/crmkit/wabridge/domains/credential"
	"github.com/crmkit/wabridge/domains/session"
	"github.com/crmkit/wabridge/infrastructure/objectstore"
	pkgError "github.com/crmkit/wabridge/pkg/error"
)

// DeviceContainer is the slice of the whatsmeow device store the manager
// needs. *sqlstore.Container satisfies it.
type DeviceContainer interface {
	NewDevice() *store.Device
	GetDevice(ctx context.Context, jid types.JID) (*store.Device, error)
	DeleteDevice(ctx context.Context, device *store.Device) error
}

// Manager owns every live WhatsApp connection. All session lifecycle writes
// flow through it; REST handlers only ever read state or call into it.
type Manager struct {
	registry  *Registry
	container DeviceContainer
	sessions  session.IStore
	creds     credential.IStore
	repo      chatstorage.IRepository
	objects   objectstore.IClient
	waLog     waLog.Logger

	// sleep is swapped out in tests; nil means time.Sleep.
	sleep func(time.Duration)
}

func NewManager(
	registry *Registry,
	container DeviceContainer,
	sessions session.IStore,
	creds credential.IStore,
	repo chatstorage.IRepository,
	objects objectstore.IClient,
	log waLog.Logger,
) *Manager {
	return &Manager{
		registry:  registry,
		container: container,
		sessions:  sessions,
		creds:     creds,
		repo:      repo,
		objects:   objects,
		waLog:     log,
	}
}

func (m *Manager) Registry() *Registry {
	return m.registry
}

// StartSession connects (or reconnects) the given session. If the session is
// already paired the stored device is reused and no QR is emitted; otherwise a
// fresh device is created and the QR loop drives status to qr_pending.
func (m *Manager) StartSession(ctx context.Context, sessionID, orgID string) error {
	if old, ok := m.registry.Get(sessionID); ok {
		logrus.Infof("[WA] session %s already has a live handle, replacing", sessionID)
		m.teardown(old)
	}

	if err := m.sessions.Upsert(ctx, &session.Session{
		ID:     sessionID,
		OrgID:  orgID,
		Status: session.StatusConnecting,
	}); err != nil {
		return err
	}

	device, err := m.deviceFor(ctx, sessionID)
	if err != nil {
		_ = m.sessions.SetDisconnected(ctx, sessionID)
		return err
	}
	configureDeviceProps()

	client := whatsmeow.NewClient(device, m.waLog)
	connCtx, cancel := context.WithCancel(context.Background())
	handle := &SessionHandle{
		SessionID: sessionID,
		OrgID:     orgID,
		Client:    client,
		cancel:    cancel,
	}
	client.AddEventHandler(func(rawEvt interface{}) {
		m.handleEvent(connCtx, handle, rawEvt)
	})

	if old := m.registry.Set(handle); old != nil {
		m.teardown(old)
	}

	qrChan, err := client.GetQRChannel(connCtx)
	if err != nil {
		if !errors.Is(err, whatsmeow.ErrQRStoreContainsID) {
			m.registry.Remove(sessionID)
			cancel()
			_ = m.sessions.SetDisconnected(ctx, sessionID)
			return err
		}
		// Already paired, connect straight away.
		if err := client.Connect(); err != nil {
			m.registry.Remove(sessionID)
			cancel()
			_ = m.sessions.SetDisconnected(ctx, sessionID)
			return err
		}
		return nil
	}

	if err := client.Connect(); err != nil {
		m.registry.Remove(sessionID)
		cancel()
		_ = m.sessions.SetDisconnected(ctx, sessionID)
		return err
	}

	go m.runQRLoop(connCtx, handle, qrChan)
	return nil
}

// DisconnectSession logs the session out and purges its credential rows. The
// session must be explicitly re-paired afterwards.
func (m *Manager) DisconnectSession(ctx context.Context, sessionID string) error {
	handle := m.registry.Remove(sessionID)
	if handle != nil {
		handle.markClosing()
		handle.cancel()
		if handle.Client.IsLoggedIn() {
			if err := handle.Client.Logout(ctx); err != nil {
				logrus.Warnf("[WA] graceful logout failed for %s, forcing disconnect: %v", sessionID, err)
				handle.Client.Disconnect()
			}
		} else {
			handle.Client.Disconnect()
		}
	}

	m.purgeDevice(ctx, sessionID)
	if err := m.creds.DeleteAll(ctx, sessionID); err != nil {
		logrus.Errorf("[WA] purging credentials for %s: %v", sessionID, err)
	}
	return m.sessions.SetDisconnected(ctx, sessionID)
}

// purgeDevice drops the whatsmeow device row bound to the session so no
// protocol key material survives a destructive disconnect. A successful
// server-side logout already removes the row; this covers sessions with no
// live handle and logouts that never reached the server.
func (m *Manager) purgeDevice(ctx context.Context, sessionID string) {
	if m.container == nil {
		return
	}
	creds, err := m.creds.Load(ctx, sessionID)
	if err != nil || creds == nil || creds.DeviceJID == "" {
		return
	}
	jid, err := types.ParseJID(creds.DeviceJID)
	if err != nil {
		return
	}
	device, err := m.container.GetDevice(ctx, jid)
	if err != nil || device == nil {
		return
	}
	if err := m.container.DeleteDevice(ctx, device); err != nil {
		logrus.Errorf("[WA] deleting device %s for session %s: %v", creds.DeviceJID, sessionID, err)
	}
}

// Shutdown closes every live handle without touching stored credentials, so
// sessions resume on the next boot.
func (m *Manager) Shutdown() {
	for _, id := range m.registry.IDs() {
		if handle := m.registry.Remove(id); handle != nil {
			handle.markClosing()
			handle.cancel()
			handle.Client.Disconnect()
			logrus.Infof("[WA] session %s handle closed for shutdown", id)
		}
	}
}

// RestoreActiveSessions restarts every session that was connected when the
// process last stopped. One failing session never blocks the others.
func (m *Manager) RestoreActiveSessions(ctx context.Context) {
	sessions, err := m.sessions.ListByStatus(ctx, session.StatusConnected)
	if err != nil {
		logrus.Errorf("[WA] listing sessions to restore: %v", err)
		return
	}
	for _, sess := range sessions {
		if err := m.StartSession(ctx, sess.ID, sess.OrgID); err != nil {
			logrus.Errorf("[WA] restoring session %s: %v", sess.ID, err)
		} else {
			logrus.Infof("[WA] restoring session %s", sess.ID)
		}
	}
}

func configureDeviceProps() {
	osName := fmt.Sprintf("%s %s", config.AppOs, config.AppVersion)
	store.DeviceProps.PlatformType = &config.AppPlatform
	store.DeviceProps.Os = &osName
}

// deviceFor resolves the whatsmeow device store for a session: the stored
// device when the session has paired before, a fresh one otherwise.
func (m *Manager) deviceFor(ctx context.Context, sessionID string) (*store.Device, error) {
	creds, err := m.creds.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if creds != nil && creds.DeviceJID != "" {
		jid, err := types.ParseJID(creds.DeviceJID)
		if err != nil {
			return nil, pkgError.InternalServerError(fmt.Sprintf("stored device JID is invalid: %v", err))
		}
		device, err := m.container.GetDevice(ctx, jid)
		if err != nil {
			return nil, err
		}
		if device != nil {
			return device, nil
		}
		logrus.Warnf("[WA] device %s missing from protocol store, re-pairing session %s", creds.DeviceJID, sessionID)
	}
	return m.container.NewDevice(), nil
}

// runQRLoop consumes QR channel events until pairing succeeds or the channel
// closes. Each fresh code is rendered to a PNG data URI and persisted.
func (m *Manager) runQRLoop(ctx context.Context, handle *SessionHandle, qrChan <-chan whatsmeow.QRChannelItem) {
	for evt := range qrChan {
		switch evt.Event {
		case "code":
			png, err := qrcode.Encode(evt.Code, qrcode.Medium, 256)
			if err != nil {
				logrus.Errorf("[WA] encoding QR for %s: %v", handle.SessionID, err)
				continue
			}
			dataURI := "data:image/png;base64," + base64.StdEncoding.EncodeToString(png)
			if err := m.sessions.SetQRPending(ctx, handle.SessionID, dataURI); err != nil {
				logrus.Errorf("[WA] persisting QR for %s: %v", handle.SessionID, err)
			}
		case "success":
			logrus.Infof("[WA] session %s paired", handle.SessionID)
		case "timeout":
			logrus.Warnf("[WA] QR timed out for session %s", handle.SessionID)
			if !handle.isClosing() {
				handle.Client.Disconnect()
				m.registry.Remove(handle.SessionID)
				_ = m.sessions.SetDisconnected(ctx, handle.SessionID)
			}
			return
		}
	}
}

// onConnected persists the connected status plus the bridge-level credential
// record binding the session to its device identity.
func (m *Manager) onConnected(ctx context.Context, handle *SessionHandle) {
	deviceID := handle.Client.Store.ID
	if deviceID == nil {
		logrus.Errorf("[WA] session %s connected without a device identity", handle.SessionID)
		return
	}
	phone := deviceID.User
	if err := m.sessions.SetConnected(ctx, handle.SessionID, phone); err != nil {
		logrus.Errorf("[WA] persisting connected status for %s: %v", handle.SessionID, err)
	}
	if err := m.creds.SaveCreds(ctx, handle.SessionID, &credential.Creds{
		DeviceJID:    deviceID.String(),
		PhoneNumber:  phone,
		PushName:     handle.Client.Store.PushName,
		RegisteredAt: time.Now().Unix(),
	}); err != nil {
		logrus.Errorf("[WA] persisting credentials for %s: %v", handle.SessionID, err)
	}
	logrus.Infof("[WA] session %s connected as %s", handle.SessionID, phone)
}

// onDisconnected classifies the drop: logged-out is terminal and purges
// credentials, anything else schedules a capped-backoff reconnect.
func (m *Manager) onDisconnected(ctx context.Context, handle *SessionHandle, loggedOut bool, reason string) {
	if handle.isClosing() {
		return
	}
	if loggedOut {
		logrus.Warnf("[WA] session %s logged out (%s), purging credentials", handle.SessionID, reason)
		handle.markClosing()
		handle.cancel()
		m.registry.Remove(handle.SessionID)
		handle.Client.Disconnect()
		m.purgeDevice(ctx, handle.SessionID)
		if err := m.creds.DeleteAll(ctx, handle.SessionID); err != nil {
			logrus.Errorf("[WA] purging credentials for %s: %v", handle.SessionID, err)
		}
		if err := m.sessions.SetDisconnected(ctx, handle.SessionID); err != nil {
			logrus.Errorf("[WA] persisting disconnected status for %s: %v", handle.SessionID, err)
		}
		return
	}
	logrus.Warnf("[WA] session %s dropped (%s), scheduling reconnect", handle.SessionID, reason)
	go m.reconnect(handle)
}

// reconnectDelay returns the backoff before the given attempt: the base delay
// doubled per attempt, never above the configured cap.
func reconnectDelay(attempt int) time.Duration {
	delay := config.ReconnectBaseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= config.ReconnectMaxDelay {
			break
		}
	}
	if delay > config.ReconnectMaxDelay {
		return config.ReconnectMaxDelay
	}
	return delay
}

func (m *Manager) wait(d time.Duration) {
	if m.sleep != nil {
		m.sleep(d)
		return
	}
	time.Sleep(d)
}

// reconnect retries Connect with exponential backoff until it succeeds, the
// handle is closed, or the attempts run out.
func (m *Manager) reconnect(handle *SessionHandle) {
	m.runReconnect(handle, func() error {
		if handle.Client.IsConnected() {
			return nil
		}
		return handle.Client.Connect()
	})
}

func (m *Manager) runReconnect(handle *SessionHandle, connect func() error) {
	for attempt := 1; attempt <= config.ReconnectMaxAttempts; attempt++ {
		if handle.isClosing() {
			return
		}
		m.wait(reconnectDelay(attempt))
		if handle.isClosing() {
			return
		}
		logrus.Infof("[WA] reconnect attempt %d for session %s", attempt, handle.SessionID)
		err := connect()
		if err == nil || errors.Is(err, whatsmeow.ErrAlreadyConnected) {
			return
		}
		logrus.Warnf("[WA] reconnect attempt %d for session %s failed: %v", attempt, handle.SessionID, err)
	}
	logrus.Errorf("[WA] session %s exhausted reconnect attempts, marking disconnected", handle.SessionID)
	m.registry.Remove(handle.SessionID)
	handle.markClosing()
	handle.cancel()
	if err := m.sessions.SetDisconnected(context.Background(), handle.SessionID); err != nil {
		logrus.Errorf("[WA] persisting disconnected status for %s: %v", handle.SessionID, err)
	}
}

func (m *Manager) teardown(handle *SessionHandle) {
	handle.markClosing()
	handle.cancel()
	handle.Client.Disconnect()
}

// handleEvent is the single dispatch point registered on every client.
func (m *Manager) handleEvent(ctx context.Context, handle *SessionHandle, rawEvt interface{}) {
	switch evt := rawEvt.(type) {
	case *events.Connected:
		m.onConnected(ctx, handle)
	case *events.PairSuccess:
		logrus.Infof("[WA] session %s pair success with %s", handle.SessionID, evt.ID.String())
	case *events.Disconnected:
		m.onDisconnected(ctx, handle, false, "stream closed")
	case *events.StreamReplaced:
		m.onDisconnected(ctx, handle, false, "stream replaced")
	case *events.LoggedOut:
		m.onDisconnected(ctx, handle, true, evt.Reason.String())
	case *events.Message:
		m.handleMessage(ctx, handle, evt)
	case *events.Receipt:
		m.handleReceipt(ctx, handle, evt)
	case *events.HistorySync:
		m.handleHistorySync(ctx, handle, evt)
	case *events.PushName:
		m.handlePushName(ctx, handle, evt)
	case *events.Contact:
		m.handleContact(ctx, handle, evt)
	case *events.AppStateSyncComplete:
		logrus.Debugf("[WA] session %s app state sync complete: %v", handle.SessionID, evt.Name)
	}
}
