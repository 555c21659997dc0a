package whatsapp

import (
	"context"

	"github.com/sirupsen/logrus"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	"google.golang.org/protobuf/encoding/protojson"

	"github.com/crmkit/wabridge/domains/chatstorage"
	"github.com/crmkit/wabridge/pkg/utils"
)

// canonicalJID maps a chat address to the stable remote_jid used for
// conversation dedup. Hidden-user (LID) addresses are resolved to their phone
// number counterpart when the mapping is known, so the same contact never
// splits into two threads.
func (m *Manager) canonicalJID(ctx context.Context, handle *SessionHandle, jid types.JID) types.JID {
	if jid.Server != types.HiddenUserServer {
		return jid.ToNonAD()
	}
	pn, err := handle.Client.Store.LIDs.GetPNForLID(ctx, jid)
	if err != nil || pn.IsEmpty() {
		return jid.ToNonAD()
	}
	return pn.ToNonAD()
}

// handleMessage projects one live message event into the conversation store.
func (m *Manager) handleMessage(ctx context.Context, handle *SessionHandle, evt *events.Message) {
	chat := evt.Info.Chat
	if chat.String() == types.StatusBroadcastJID.String() {
		return
	}

	content, ok := extractContent(evt.Message)
	if !ok {
		logrus.Debugf("[EVENT] session %s: message %s has no renderable content, skipped", handle.SessionID, evt.Info.ID)
		return
	}

	remote := m.canonicalJID(ctx, handle, chat)
	conv := &chatstorage.Conversation{
		OrgID:     handle.OrgID,
		SessionID: handle.SessionID,
		RemoteJID: remote.String(),
		Provider:  "whatsapp",
	}
	if !utils.IsGroupJID(remote.String()) {
		conv.PhoneNumber = utils.PhoneFromJID(remote.String())
		if !evt.Info.IsFromMe {
			conv.Name = evt.Info.PushName
		}
	}
	convID, err := m.repo.UpsertConversation(ctx, conv)
	if err != nil {
		logrus.Errorf("[EVENT] session %s: upserting conversation for %s: %v", handle.SessionID, remote, err)
		return
	}

	m.autoLinkContact(ctx, handle, convID, conv.PhoneNumber)

	direction := chatstorage.DirectionInbound
	status := chatstorage.StatusDelivered
	senderName := evt.Info.PushName
	if evt.Info.IsFromMe {
		// Echoes from the user's other linked devices.
		direction = chatstorage.DirectionOutbound
		status = chatstorage.StatusSent
		senderName = handle.Client.Store.PushName
	}

	msg := &chatstorage.Message{
		ConversationID: convID,
		WaMessageID:    string(evt.Info.ID),
		Direction:      direction,
		Type:           content.Type,
		Body:           content.Body,
		SenderName:     senderName,
		Status:         status,
		CreatedAt:      evt.Info.Timestamp,
	}
	if raw, err := protojson.Marshal(evt.Message); err == nil {
		msg.RawPayload = string(raw)
	}
	if content.Media != nil {
		msg.MediaURL = m.storeMedia(ctx, handle, convID, string(evt.Info.ID), content)
	}

	inserted, err := m.repo.InsertMessage(ctx, msg)
	if err != nil {
		logrus.Errorf("[EVENT] session %s: inserting message %s: %v", handle.SessionID, evt.Info.ID, err)
		return
	}
	if !inserted {
		return
	}

	preview := utils.TruncatePreview(previewFor(content))
	if err := m.repo.UpdateConversationPreview(ctx, convID, preview, evt.Info.Timestamp); err != nil {
		logrus.Errorf("[EVENT] session %s: updating preview for %s: %v", handle.SessionID, convID, err)
	}
	if direction == chatstorage.DirectionInbound {
		if err := m.repo.IncrementUnread(ctx, convID); err != nil {
			logrus.Errorf("[EVENT] session %s: bumping unread for %s: %v", handle.SessionID, convID, err)
		}
	}
}

// autoLinkContact binds the conversation to a CRM contact matching its phone.
// Linking is best-effort and only fills an empty slot.
func (m *Manager) autoLinkContact(ctx context.Context, handle *SessionHandle, convID, phone string) {
	if phone == "" {
		return
	}
	conv, err := m.repo.GetConversation(ctx, convID)
	if err != nil || conv == nil || conv.ContactID != "" {
		return
	}
	contact, err := m.repo.FindContactByPhone(ctx, handle.OrgID, phone)
	if err != nil {
		logrus.Debugf("[EVENT] session %s: contact lookup for %s: %v", handle.SessionID, phone, err)
		return
	}
	if contact == nil {
		return
	}
	if err := m.repo.LinkContact(ctx, convID, contact.ID); err != nil {
		logrus.Errorf("[EVENT] session %s: linking contact %s to %s: %v", handle.SessionID, contact.ID, convID, err)
	}
}

// handleReceipt advances delivery state for each acknowledged message. Only
// delivered/read receipts matter; retry and other receipt kinds are ignored.
func (m *Manager) handleReceipt(ctx context.Context, handle *SessionHandle, evt *events.Receipt) {
	var status chatstorage.MessageStatus
	switch evt.Type {
	case types.ReceiptTypeDelivered:
		status = chatstorage.StatusDelivered
	case types.ReceiptTypeRead, types.ReceiptTypeReadSelf:
		status = chatstorage.StatusRead
	default:
		return
	}
	for _, id := range evt.MessageIDs {
		if err := m.repo.AdvanceMessageStatus(ctx, string(id), status); err != nil {
			logrus.Errorf("[EVENT] session %s: advancing message %s to %s: %v", handle.SessionID, id, status, err)
		}
	}
}

// handleContact backfills names from app state contact sync. The contact
// action carries the name the account holder saved, which beats a push name.
func (m *Manager) handleContact(ctx context.Context, handle *SessionHandle, evt *events.Contact) {
	name := evt.Action.GetFullName()
	if name == "" {
		name = evt.Action.GetFirstName()
	}
	if name == "" {
		return
	}
	jid := m.canonicalJID(ctx, handle, evt.JID)
	variants := []string{jid.String()}
	if evt.JID.String() != jid.String() {
		variants = append(variants, evt.JID.ToNonAD().String())
	}
	phone := utils.PhoneFromJID(jid.String())
	if err := m.repo.BackfillConversationIdentity(ctx, handle.SessionID, variants, name, phone); err != nil {
		logrus.Errorf("[EVENT] session %s: backfilling contact name for %s: %v", handle.SessionID, jid, err)
	}
}

// handlePushName backfills contact display names as the protocol learns them.
func (m *Manager) handlePushName(ctx context.Context, handle *SessionHandle, evt *events.PushName) {
	if evt.NewPushName == "" {
		return
	}
	jid := m.canonicalJID(ctx, handle, evt.JID)
	variants := []string{jid.String()}
	if evt.JID.String() != jid.String() {
		variants = append(variants, evt.JID.ToNonAD().String())
	}
	phone := utils.PhoneFromJID(jid.String())
	if err := m.repo.BackfillConversationIdentity(ctx, handle.SessionID, variants, evt.NewPushName, phone); err != nil {
		logrus.Errorf("[EVENT] session %s: backfilling name for %s: %v", handle.SessionID, jid, err)
	}
}
