package rest

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crmkit/wabridge/config"
	domainSend "github.com/crmkit/wabridge/domains/send"
	pkgError "github.com/crmkit/wabridge/pkg/error"
	"github.com/crmkit/wabridge/ui/rest/middleware"
)

type fakeSendService struct {
	response domainSend.Response
	err      error
	requests []domainSend.Request
}

func (f *fakeSendService) Send(ctx context.Context, request domainSend.Request) (domainSend.Response, error) {
	f.requests = append(f.requests, request)
	if f.err != nil {
		return f.response, f.err
	}
	return f.response, nil
}

func newMessageApp(service domainSend.IUsecase) *fiber.App {
	app := fiber.New()
	api := app.Group("/api", middleware.SharedSecret())
	InitRestMessage(api, service)
	return app
}

func postSend(t *testing.T, app *fiber.App, payload string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/messages/send", bytes.NewReader([]byte(payload)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Api-Key", "test-secret")
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func TestSendMessageSuccess(t *testing.T) {
	config.AppSecretKey = "test-secret"
	service := &fakeSendService{response: domainSend.Response{Success: true, MessageID: "WAID1"}}
	app := newMessageApp(service)

	resp := postSend(t, app, `{"sessionId":"sess-1","remoteJid":"5215512345678@s.whatsapp.net","body":"hola"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "WAID1", body["messageId"])

	require.Len(t, service.requests, 1)
	assert.Equal(t, "hola", service.requests[0].Body)
}

func TestSendMessageValidationError(t *testing.T) {
	config.AppSecretKey = "test-secret"
	service := &fakeSendService{err: pkgError.ErrEmptyMessage}
	app := newMessageApp(service)

	resp := postSend(t, app, `{"sessionId":"sess-1","remoteJid":"5215512345678@s.whatsapp.net"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.NotEmpty(t, decodeBody(t, resp)["error"])
}

func TestSendMessageSessionNotActive(t *testing.T) {
	config.AppSecretKey = "test-secret"
	service := &fakeSendService{err: pkgError.ErrSessionNotActive}
	app := newMessageApp(service)

	resp := postSend(t, app, `{"sessionId":"ghost","remoteJid":"5215512345678@s.whatsapp.net","body":"hola"}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Session not active", decodeBody(t, resp)["error"])
}

func TestSendMessageDispatchFailure(t *testing.T) {
	config.AppSecretKey = "test-secret"
	service := &fakeSendService{
		response: domainSend.Response{Success: false, Error: "stream closed"},
		err:      fakeSendError{},
	}
	app := newMessageApp(service)

	resp := postSend(t, app, `{"sessionId":"sess-1","remoteJid":"5215512345678@s.whatsapp.net","body":"hola"}`)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "stream closed", body["error"])
}

func TestSendMessageRequiresAuth(t *testing.T) {
	config.AppSecretKey = "test-secret"
	app := newMessageApp(&fakeSendService{})

	req := httptest.NewRequest(http.MethodPost, "/api/messages/send", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

type fakeSendError struct{}

func (fakeSendError) Error() string { return "stream closed" }
