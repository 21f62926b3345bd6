package notifier

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForMethod(t *testing.T) {
	assert.IsType(t, smsNotifier{}, ForMethod("sms"))
	assert.IsType(t, whatsappNotifier{}, ForMethod("whatsapp"))
	assert.IsType(t, linkNotifier{}, ForMethod("link"))
	// unknown methods fall back to SMS
	assert.IsType(t, smsNotifier{}, ForMethod("carrier-pigeon"))
}

func TestSendReturnsPrefixedMessageID(t *testing.T) {
	tests := []struct {
		method string
		prefix string
	}{
		{"sms", "sms_"},
		{"whatsapp", "wa_"},
		{"link", "link_"},
	}

	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			id, err := ForMethod(tt.method).Send(context.Background(), "+256772000111", "hello")
			require.NoError(t, err)
			assert.True(t, strings.HasPrefix(id, tt.prefix), "got %q", id)
			assert.Greater(t, len(id), len(tt.prefix))
		})
	}
}

func TestSendHonorsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ForMethod("sms").Send(ctx, "+256772000111", "hello")
	assert.ErrorIs(t, err, context.Canceled)

	_, err = ForMethod("whatsapp").Send(ctx, "+256772000111", "hello")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestInviteMessage(t *testing.T) {
	msg := InviteMessage("Amina", "Joseph", "Kampala Traders", "https://app.example.com/invite/ABCD2345")

	assert.Contains(t, msg, "Hi Amina!")
	assert.Contains(t, msg, "Joseph")
	assert.Contains(t, msg, `"Kampala Traders"`)
	assert.Contains(t, msg, "https://app.example.com/invite/ABCD2345")
}
