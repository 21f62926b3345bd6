// Package notifier delivers invitation messages over SMS or WhatsApp.
//
// The current implementations are simulated: they log the outbound message
// and return a provider-style message id. Swap in a real gateway client
// (Africa's Talking, Twilio, WhatsApp Business API) behind the same
// interface for production.
package notifier

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// Notifier sends a text message to a phone number and returns the provider
// message id.
type Notifier interface {
	Send(ctx context.Context, phone, message string) (messageID string, err error)
}

// ForMethod returns the Notifier for a delivery method. The "link" method
// performs no outbound delivery; the invitation is shared manually.
func ForMethod(method string) Notifier {
	switch method {
	case "whatsapp":
		return whatsappNotifier{}
	case "link":
		return linkNotifier{}
	default:
		return smsNotifier{}
	}
}

type smsNotifier struct{}

func (smsNotifier) Send(ctx context.Context, phone, message string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	messageID := "sms_" + uuid.New().String()
	slog.Info("SMS dispatched", "phone", phone, "message_id", messageID, "length", len(message))
	return messageID, nil
}

type whatsappNotifier struct{}

func (whatsappNotifier) Send(ctx context.Context, phone, message string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	messageID := "wa_" + uuid.New().String()
	slog.Info("WhatsApp dispatched", "phone", phone, "message_id", messageID, "length", len(message))
	return messageID, nil
}

// linkNotifier is the no-op channel for invitations shared as plain links.
type linkNotifier struct{}

func (linkNotifier) Send(ctx context.Context, phone, message string) (string, error) {
	return "link_" + uuid.New().String(), nil
}

// InviteMessage renders the text sent to an invitee.
func InviteMessage(inviteeName, inviterName, groupName, inviteURL string) string {
	return fmt.Sprintf(
		"Hi %s! You've been invited by %s to join the TrustSave group %q.\n\n"+
			"Click to view invitation: %s\n\n"+
			"(Invitation expires in 7 days)",
		inviteeName, inviterName, groupName, inviteURL,
	)
}
