package usecase

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"go.mau.fi/whatsmeow/types"

	domainChatStorage "github.com/crmkit/wabridge/domains/chatstorage"
	domainSend "github.com/crmkit/wabridge/domains/send"
	domainSession "github.com/crmkit/wabridge/domains/session"
	"github.com/crmkit/wabridge/infrastructure/objectstore"
	"github.com/crmkit/wabridge/infrastructure/whatsapp"
	pkgError "github.com/crmkit/wabridge/pkg/error"
	pkgUtils "github.com/crmkit/wabridge/pkg/utils"
	"github.com/crmkit/wabridge/validations"
)

// Dispatcher is the protocol-facing slice of the connection manager the send
// service needs.
type Dispatcher interface {
	ActiveHandle(sessionID string) (*whatsapp.SessionHandle, error)
	SendText(ctx context.Context, sessionID string, to types.JID, body string) (whatsapp.SendResult, error)
	SendImage(ctx context.Context, sessionID string, to types.JID, data []byte, mimeType, caption string) (whatsapp.SendResult, error)
	SendDocument(ctx context.Context, sessionID string, to types.JID, data []byte, mimeType, fileName, caption string) (whatsapp.SendResult, error)
}

type serviceSend struct {
	dispatcher Dispatcher
	repo       domainChatStorage.IRepository
	sessions   domainSession.IStore
	objects    objectstore.IClient
}

func NewSendService(dispatcher Dispatcher, repo domainChatStorage.IRepository, sessions domainSession.IStore, objects objectstore.IClient) domainSend.IUsecase {
	return &serviceSend{dispatcher: dispatcher, repo: repo, sessions: sessions, objects: objects}
}

// Send records the outbound message as pending before touching the network,
// then dispatches and reconciles the row with the protocol acknowledgement.
// Failed sends stay on the row as a terminal failed status; retrying is the
// caller's decision.
func (service *serviceSend) Send(ctx context.Context, request domainSend.Request) (domainSend.Response, error) {
	if err := validations.ValidateSend(ctx, request); err != nil {
		return domainSend.Response{}, err
	}
	if _, err := service.dispatcher.ActiveHandle(request.SessionID); err != nil {
		return domainSend.Response{}, err
	}

	convID, remoteJID, err := service.resolveConversation(ctx, request)
	if err != nil {
		return domainSend.Response{}, err
	}
	recipient, err := whatsapp.ResolveRecipient(remoteJID)
	if err != nil {
		return domainSend.Response{}, err
	}

	contentType := domainChatStorage.ContentText
	switch request.MediaType {
	case "image":
		contentType = domainChatStorage.ContentImage
	case "document":
		contentType = domainChatStorage.ContentDocument
	}

	msg := &domainChatStorage.Message{
		ConversationID: convID,
		Direction:      domainChatStorage.DirectionOutbound,
		Type:           contentType,
		Body:           request.Body,
		MediaURL:       request.MediaURL,
		SenderName:     request.SenderName,
		Status:         domainChatStorage.StatusPending,
		CreatedAt:      time.Now(),
	}
	if _, err := service.repo.InsertMessage(ctx, msg); err != nil {
		return domainSend.Response{}, err
	}

	result, err := service.dispatch(ctx, request, recipient, contentType)
	if err != nil {
		if markErr := service.repo.MarkMessageFailed(ctx, msg.ID); markErr != nil {
			logrus.Errorf("[SEND] marking message %s failed: %v", msg.ID, markErr)
		}
		return domainSend.Response{Success: false, Error: err.Error()}, err
	}

	if err := service.repo.MarkMessageSent(ctx, msg.ID, result.MessageID); err != nil {
		logrus.Errorf("[SEND] reconciling message %s with %s: %v", msg.ID, result.MessageID, err)
	}
	service.refreshConversation(ctx, convID, request, contentType, result.Timestamp)

	return domainSend.Response{Success: true, MessageID: result.MessageID}, nil
}

// resolveConversation pins down the target thread: an explicit conversation id
// wins; otherwise the (session, remote address) pair is upserted so the row
// exists before the first message lands.
func (service *serviceSend) resolveConversation(ctx context.Context, request domainSend.Request) (convID, remoteJID string, err error) {
	if request.ConversationID != "" {
		conv, err := service.repo.GetConversation(ctx, request.ConversationID)
		if err != nil {
			return "", "", err
		}
		if conv == nil {
			return "", "", pkgError.NotFoundError("Conversation not found")
		}
		return conv.ID, conv.RemoteJID, nil
	}

	sess, err := service.sessions.Get(ctx, request.SessionID)
	if err != nil {
		return "", "", err
	}
	recipient, err := whatsapp.ResolveRecipient(request.RemoteJID)
	if err != nil {
		return "", "", err
	}
	conv := &domainChatStorage.Conversation{
		OrgID:       sess.OrgID,
		SessionID:   request.SessionID,
		RemoteJID:   recipient.String(),
		PhoneNumber: pkgUtils.PhoneFromJID(recipient.String()),
		Provider:    "whatsapp",
	}
	id, err := service.repo.UpsertConversation(ctx, conv)
	if err != nil {
		return "", "", err
	}
	return id, recipient.String(), nil
}

func (service *serviceSend) dispatch(ctx context.Context, request domainSend.Request, recipient types.JID, contentType domainChatStorage.ContentType) (whatsapp.SendResult, error) {
	if contentType == domainChatStorage.ContentText {
		return service.dispatcher.SendText(ctx, request.SessionID, recipient, request.Body)
	}

	data, fetchedMime, err := service.objects.Fetch(ctx, request.MediaURL)
	if err != nil {
		return whatsapp.SendResult{}, err
	}
	mimeType := request.MimeType
	if mimeType == "" {
		mimeType = fetchedMime
	}
	if contentType == domainChatStorage.ContentImage {
		return service.dispatcher.SendImage(ctx, request.SessionID, recipient, data, mimeType, request.Body)
	}
	return service.dispatcher.SendDocument(ctx, request.SessionID, recipient, data, mimeType, request.FileName, request.Body)
}

// refreshConversation updates the thread preview and clears the unread badge:
// an agent replying means the thread has been looked at.
func (service *serviceSend) refreshConversation(ctx context.Context, convID string, request domainSend.Request, contentType domainChatStorage.ContentType, at time.Time) {
	preview := request.Body
	switch {
	case contentType == domainChatStorage.ContentImage && preview == "":
		preview = "[Image]"
	case contentType == domainChatStorage.ContentDocument && preview == "":
		preview = "[Document]"
		if request.FileName != "" {
			preview = request.FileName
		}
	}
	if at.IsZero() {
		at = time.Now()
	}
	if err := service.repo.UpdateConversationPreview(ctx, convID, pkgUtils.TruncatePreview(preview), at); err != nil {
		logrus.Errorf("[SEND] updating preview for %s: %v", convID, err)
	}
	if err := service.repo.ResetUnread(ctx, convID); err != nil {
		logrus.Errorf("[SEND] resetting unread for %s: %v", convID, err)
	}
}
