package send

import "context"

type Request struct {
	SessionID      string `json:"sessionId"`
	ConversationID string `json:"conversationId"`
	RemoteJID      string `json:"remoteJid"`
	Body           string `json:"body,omitempty"`
	SenderID       string `json:"senderId,omitempty"`
	SenderName     string `json:"senderName,omitempty"`
	MediaURL       string `json:"mediaUrl,omitempty"`
	MediaType      string `json:"mediaType,omitempty"`
	FileName       string `json:"fileName,omitempty"`
	MimeType       string `json:"mimeType,omitempty"`
}

type Response struct {
	Success   bool   `json:"success"`
	MessageID string `json:"messageId,omitempty"`
	Error     string `json:"error,omitempty"`
}

type IUsecase interface {
	Send(ctx context.Context, request Request) (Response, error)
}
