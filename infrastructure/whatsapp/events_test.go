package whatsapp

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.mau.fi/whatsmeow/proto/waSyncAction"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	"google.golang.org/protobuf/proto"

	"github.com/crmkit/wabridge/domains/chatstorage"
)

// stubRepo records the calls the event pipeline makes.
type stubRepo struct {
	advanced      map[string]chatstorage.MessageStatus
	upserts       []chatstorage.Conversation
	inserted      []chatstorage.Message
	insertedAgain bool
	backfills     []string
}

func newStubRepo() *stubRepo {
	return &stubRepo{advanced: map[string]chatstorage.MessageStatus{}}
}

func (s *stubRepo) UpsertConversation(ctx context.Context, conv *chatstorage.Conversation) (string, error) {
	s.upserts = append(s.upserts, *conv)
	return "conv-1", nil
}

func (s *stubRepo) GetConversation(ctx context.Context, id string) (*chatstorage.Conversation, error) {
	return &chatstorage.Conversation{ID: id}, nil
}

func (s *stubRepo) FindConversationByRemoteJID(ctx context.Context, sessionID, remoteJID string) (*chatstorage.Conversation, error) {
	return nil, nil
}

func (s *stubRepo) UpdateConversationPreview(ctx context.Context, id, preview string, at time.Time) error {
	return nil
}

func (s *stubRepo) IncrementUnread(ctx context.Context, id string) error { return nil }
func (s *stubRepo) ResetUnread(ctx context.Context, id string) error     { return nil }
func (s *stubRepo) LinkContact(ctx context.Context, conversationID, contactID string) error {
	return nil
}

func (s *stubRepo) BackfillConversationIdentity(ctx context.Context, sessionID string, remoteJIDs []string, name, phone string) error {
	s.backfills = append(s.backfills, name)
	return nil
}

func (s *stubRepo) FindContactByPhone(ctx context.Context, orgID, phone string) (*chatstorage.Contact, error) {
	return nil, nil
}

func (s *stubRepo) InsertMessage(ctx context.Context, msg *chatstorage.Message) (bool, error) {
	for _, existing := range s.inserted {
		if existing.WaMessageID != "" && existing.WaMessageID == msg.WaMessageID {
			s.insertedAgain = true
			return false, nil
		}
	}
	s.inserted = append(s.inserted, *msg)
	return true, nil
}

func (s *stubRepo) GetMessageByWaID(ctx context.Context, waMessageID string) (*chatstorage.Message, error) {
	return nil, nil
}

func (s *stubRepo) AdvanceMessageStatus(ctx context.Context, waMessageID string, status chatstorage.MessageStatus) error {
	s.advanced[waMessageID] = status
	return nil
}

func (s *stubRepo) MarkMessageSent(ctx context.Context, id, waMessageID string) error { return nil }
func (s *stubRepo) MarkMessageFailed(ctx context.Context, id string) error           { return nil }
func (s *stubRepo) LatestMessage(ctx context.Context, conversationID string) (*chatstorage.Message, error) {
	return nil, nil
}

func TestHandleReceiptMapsDeliveryStates(t *testing.T) {
	repo := newStubRepo()
	manager := &Manager{registry: NewRegistry(), repo: repo}
	handle := &SessionHandle{SessionID: "sess-1"}
	ctx := context.Background()

	manager.handleReceipt(ctx, handle, &events.Receipt{
		MessageIDs: []types.MessageID{"A", "B"},
		Type:       types.ReceiptTypeDelivered,
	})
	assert.Equal(t, chatstorage.StatusDelivered, repo.advanced["A"])
	assert.Equal(t, chatstorage.StatusDelivered, repo.advanced["B"])

	manager.handleReceipt(ctx, handle, &events.Receipt{
		MessageIDs: []types.MessageID{"A"},
		Type:       types.ReceiptTypeRead,
	})
	assert.Equal(t, chatstorage.StatusRead, repo.advanced["A"])

	manager.handleReceipt(ctx, handle, &events.Receipt{
		MessageIDs: []types.MessageID{"C"},
		Type:       types.ReceiptTypeReadSelf,
	})
	assert.Equal(t, chatstorage.StatusRead, repo.advanced["C"])
}

func TestHandleContactBackfillsName(t *testing.T) {
	repo := newStubRepo()
	manager := &Manager{registry: NewRegistry(), repo: repo}
	handle := &SessionHandle{SessionID: "sess-1"}

	manager.handleContact(context.Background(), handle, &events.Contact{
		JID:    types.NewJID("628123456789", types.DefaultUserServer),
		Action: &waSyncAction.ContactAction{FullName: proto.String("Budi Santoso")},
	})
	assert.Equal(t, []string{"Budi Santoso"}, repo.backfills)

	// First name is the fallback when no full name is synced.
	manager.handleContact(context.Background(), handle, &events.Contact{
		JID:    types.NewJID("628123456780", types.DefaultUserServer),
		Action: &waSyncAction.ContactAction{FirstName: proto.String("Sari")},
	})
	assert.Equal(t, []string{"Budi Santoso", "Sari"}, repo.backfills)

	// An empty action never clobbers anything.
	manager.handleContact(context.Background(), handle, &events.Contact{
		JID:    types.NewJID("628123456781", types.DefaultUserServer),
		Action: &waSyncAction.ContactAction{},
	})
	assert.Len(t, repo.backfills, 2)
}

func TestHandleReceiptIgnoresOtherKinds(t *testing.T) {
	repo := newStubRepo()
	manager := &Manager{registry: NewRegistry(), repo: repo}
	handle := &SessionHandle{SessionID: "sess-1"}

	manager.handleReceipt(context.Background(), handle, &events.Receipt{
		MessageIDs: []types.MessageID{"A"},
		Type:       types.ReceiptTypeRetry,
	})
	assert.Empty(t, repo.advanced)
}
