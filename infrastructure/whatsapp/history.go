package whatsapp

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"go.mau.fi/whatsmeow/proto/waHistorySync"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"

	"github.com/crmkit/wabridge/config"
	"github.com/crmkit/wabridge/domains/chatstorage"
	"github.com/crmkit/wabridge/domains/credential"
	"github.com/crmkit/wabridge/pkg/utils"
)

// handleHistorySync imports the backlog WhatsApp pushes after pairing.
// Imports are idempotent: re-delivered batches hit the message dedup guard
// and the field-level conversation backfills, so replays converge.
func (m *Manager) handleHistorySync(ctx context.Context, handle *SessionHandle, evt *events.HistorySync) {
	if evt.Data == nil {
		return
	}

	m.storeLIDMappings(ctx, handle, evt)

	switch evt.Data.GetSyncType() {
	case waHistorySync.HistorySync_INITIAL_BOOTSTRAP, waHistorySync.HistorySync_RECENT:
		for _, conv := range evt.Data.GetConversations() {
			m.importConversation(ctx, handle, conv)
		}
	case waHistorySync.HistorySync_PUSH_NAME:
		for _, pn := range evt.Data.GetPushnames() {
			m.importPushName(ctx, handle, pn)
		}
	}
}

// storeLIDMappings persists every phone↔LID pairing the sync carries, both
// into the protocol store (so live resolution works) and into the session's
// credential records (so the mapping survives a protocol-store rebuild).
func (m *Manager) storeLIDMappings(ctx context.Context, handle *SessionHandle, evt *events.HistorySync) {
	updates := make(map[string][]byte)
	for _, mapping := range evt.Data.PhoneNumberToLidMappings {
		if mapping.PnJID == nil || mapping.LidJID == nil {
			continue
		}
		pn, err := types.ParseJID(*mapping.PnJID)
		if err != nil {
			continue
		}
		lid, err := types.ParseJID(*mapping.LidJID)
		if err != nil {
			continue
		}
		if err := handle.Client.Store.LIDs.PutLIDMapping(ctx, lid, pn); err != nil {
			logrus.Warnf("[HISTORY] session %s: storing LID mapping %s→%s: %v", handle.SessionID, lid, pn, err)
		}
		updates[lid.String()] = []byte(pn.String())
	}
	if len(updates) == 0 {
		return
	}
	if err := m.creds.SetKeys(ctx, handle.SessionID, credential.KeyUpdates{"lid-map": updates}); err != nil {
		logrus.Warnf("[HISTORY] session %s: persisting LID map: %v", handle.SessionID, err)
	}
}

func (m *Manager) importConversation(ctx context.Context, handle *SessionHandle, conv *waHistorySync.Conversation) {
	if conv.GetID() == "" {
		return
	}
	jid, err := types.ParseJID(conv.GetID())
	if err != nil {
		return
	}
	if jid.String() == types.StatusBroadcastJID.String() || jid.Server == types.BroadcastServer {
		return
	}

	remote := m.canonicalJID(ctx, handle, jid)
	name := conv.GetDisplayName()
	isGroup := utils.IsGroupJID(remote.String())

	// Direct chats without a display name are usually stale threads the CRM
	// has no use for; import only when explicitly enabled.
	if !isGroup && name == "" && !config.HistoryImportUnnamedChats {
		return
	}

	record := &chatstorage.Conversation{
		OrgID:     handle.OrgID,
		SessionID: handle.SessionID,
		RemoteJID: remote.String(),
		Name:      name,
		Provider:  "whatsapp",
	}
	if !isGroup {
		record.PhoneNumber = utils.PhoneFromJID(remote.String())
	}
	convID, err := m.repo.UpsertConversation(ctx, record)
	if err != nil {
		logrus.Errorf("[HISTORY] session %s: upserting conversation %s: %v", handle.SessionID, remote, err)
		return
	}

	var lastAt time.Time
	var lastPreview string

	for _, hm := range conv.GetMessages() {
		if hm == nil || hm.Message == nil {
			continue
		}
		webMsg := hm.Message
		key := webMsg.GetKey()
		if key == nil || key.GetID() == "" {
			continue
		}
		content, ok := extractContent(webMsg.GetMessage())
		if !ok {
			continue
		}

		direction := chatstorage.DirectionInbound
		if key.GetFromMe() {
			direction = chatstorage.DirectionOutbound
		}
		// History carries no ack stream, so every imported row lands as
		// delivered regardless of direction.
		status := chatstorage.StatusDelivered

		ts := time.Unix(int64(webMsg.GetMessageTimestamp()), 0)
		inserted, err := m.repo.InsertMessage(ctx, &chatstorage.Message{
			ConversationID: convID,
			WaMessageID:    key.GetID(),
			Direction:      direction,
			Type:           content.Type,
			Body:           content.Body,
			Status:         status,
			CreatedAt:      ts,
		})
		if err != nil {
			logrus.Errorf("[HISTORY] session %s: importing message %s: %v", handle.SessionID, key.GetID(), err)
			continue
		}
		if inserted && ts.After(lastAt) {
			lastAt = ts
			lastPreview = utils.TruncatePreview(previewFor(content))
		}
	}

	if lastPreview == "" {
		return
	}
	// Never let an older backlog batch clobber a fresher live preview.
	current, err := m.repo.GetConversation(ctx, convID)
	if err == nil && current != nil && (current.LastMessageAt == nil || current.LastMessageAt.Before(lastAt)) {
		if err := m.repo.UpdateConversationPreview(ctx, convID, lastPreview, lastAt); err != nil {
			logrus.Errorf("[HISTORY] session %s: updating preview for %s: %v", handle.SessionID, convID, err)
		}
	}
}

func (m *Manager) importPushName(ctx context.Context, handle *SessionHandle, pn *waHistorySync.Pushname) {
	if pn.GetID() == "" || pn.GetPushname() == "" {
		return
	}
	jid, err := types.ParseJID(pn.GetID())
	if err != nil {
		return
	}
	remote := m.canonicalJID(ctx, handle, jid)
	variants := []string{remote.String()}
	if jid.ToNonAD().String() != remote.String() {
		variants = append(variants, jid.ToNonAD().String())
	}
	phone := utils.PhoneFromJID(remote.String())
	if err := m.repo.BackfillConversationIdentity(ctx, handle.SessionID, variants, pn.GetPushname(), phone); err != nil {
		logrus.Errorf("[HISTORY] session %s: backfilling push name for %s: %v", handle.SessionID, remote, err)
	}
}
