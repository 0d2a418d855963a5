package handlers

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const webhookTestSecret = "whsec_test"

func signWebhook(id, timestamp string, body []byte) string {
	signedContent := fmt.Sprintf("%s.%s.%s", id, timestamp, string(body))
	mac := hmac.New(sha256.New, []byte(webhookTestSecret))
	mac.Write([]byte(signedContent))
	return "v1," + hex.EncodeToString(mac.Sum(nil))
}

func postWebhook(t *testing.T, h *WebhookHandler, body []byte, sign bool) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/auth", bytes.NewReader(body))
	if sign {
		req.Header.Set("svix-id", "msg_1")
		req.Header.Set("svix-timestamp", "1693526400")
		req.Header.Set("svix-signature", signWebhook("msg_1", "1693526400", body))
	}
	rr := httptest.NewRecorder()
	h.HandleAuthWebhook(rr, req)
	return rr
}

func TestWebhook_UserDeletedRemovesChallengeRow(t *testing.T) {
	t.Setenv("AUTH_WEBHOOK_SECRET", webhookTestSecret)

	remote := newMemRemote()
	remote.rows["user-1"] = nil
	h := NewWebhookHandler(remote)

	body := []byte(`{"type": "user.deleted", "data": {"id": "user-1"}}`)
	rr := postWebhook(t, h, body, true)

	require.Equal(t, http.StatusOK, rr.Code)
	_, exists := remote.rows["user-1"]
	assert.False(t, exists)
}

func TestWebhook_RejectsBadSignature(t *testing.T) {
	t.Setenv("AUTH_WEBHOOK_SECRET", webhookTestSecret)

	remote := newMemRemote()
	remote.rows["user-1"] = nil
	h := NewWebhookHandler(remote)

	body := []byte(`{"type": "user.deleted", "data": {"id": "user-1"}}`)
	rr := postWebhook(t, h, body, false)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	_, exists := remote.rows["user-1"]
	assert.True(t, exists)
}

func TestWebhook_UnknownEventIsAcknowledged(t *testing.T) {
	t.Setenv("AUTH_WEBHOOK_SECRET", "")

	h := NewWebhookHandler(newMemRemote())

	body := []byte(`{"type": "user.updated", "data": {"id": "user-1"}}`)
	rr := postWebhook(t, h, body, false)

	assert.Equal(t, http.StatusOK, rr.Code)
}
