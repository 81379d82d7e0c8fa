package service

import (
	"context"
	"log/slog"
)

// PaymentGateway is the outbound interface to the payment collaborator.
// Implementations must tolerate repeated calls with the same purchase id;
// the resolver provides its own idempotency guard, but the gateway is the
// last line of defence.
type PaymentGateway interface {
	// Refund returns the full purchase amount to the buyer. A nil error
	// means the gateway accepted the refund. Transient failures should be
	// returned as-is for retry; permanent rejections should be wrapped in
	// ErrRefundRejected so the resolver escalates instead of retrying.
	Refund(ctx context.Context, purchaseID string, amountCents int64) error
}

// Notifier delivers out-of-band messages to marketplace users. Delivery is
// best effort; workflow state never depends on a notification landing.
type Notifier interface {
	NotifySeller(ctx context.Context, sellerID, subject, body string)
	NotifyBuyer(ctx context.Context, buyerID, subject, body string)
}

// NopNotifier discards all notifications. Used in tests and when no
// notification channel is configured.
type NopNotifier struct{}

func (NopNotifier) NotifySeller(ctx context.Context, sellerID, subject, body string) {}
func (NopNotifier) NotifyBuyer(ctx context.Context, buyerID, subject, body string)   {}

// LogNotifier records notifications in the service log. Stands in until a
// real delivery channel (email, marketplace inbox) is wired up.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n LogNotifier) NotifySeller(ctx context.Context, sellerID, subject, body string) {
	n.Logger.Info("seller notification", "seller_id", sellerID, "subject", subject)
}

func (n LogNotifier) NotifyBuyer(ctx context.Context, buyerID, subject, body string) {
	n.Logger.Info("buyer notification", "buyer_id", buyerID, "subject", subject)
}
