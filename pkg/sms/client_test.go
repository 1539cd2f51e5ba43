package sms

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"already e164", "+15550001111", "+15550001111", false},
		{"leading zero uses country code", "0812345678", "+1812345678", false},
		{"double zero prefix", "0015550001111", "+15550001111", false},
		{"separators stripped", "(555) 000-1111", "+15550001111", false},
		{"dots and spaces", "555.000 1111", "+15550001111", false},
		{"letters rejected", "call-me-maybe", "", true},
		{"too short", "+1234", "", true},
		{"too long", "+1234567890123456", "", true},
		{"empty", "", "", true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := NormalizePhone(tc.input, "1")
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrInvalidPhone)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestSendMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/accounts/sid_test/messages", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NotEmpty(t, r.Header.Get("Authorization"))

		var req SendMessageRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "+15550001111", req.To)
		assert.Equal(t, "+15559990000", req.From)
		assert.Equal(t, "Your order is ready.", req.Body)

		json.NewEncoder(w).Encode(SendMessageResponse{MessageID: "msg_42", Status: "queued"})
	}))
	defer server.Close()

	client := NewClient(server.URL, "sid_test", "token_test", "+15559990000")
	resp, err := client.SendMessage("+15550001111", "Your order is ready.")
	require.NoError(t, err)
	assert.Equal(t, "msg_42", resp.MessageID)
	assert.Equal(t, "queued", resp.Status)
}

func TestSendMessageProviderRejection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(SendMessageResponse{
			ErrorCode: "21211",
			Message:   "invalid destination",
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "sid_test", "token_test", "+15559990000")
	resp, err := client.SendMessage("+15550001111", "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "21211")
	require.NotNil(t, resp)
	assert.Equal(t, "21211", resp.ErrorCode)
}
