package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/subsplit/escrow/internal/escrow/domain"
	"github.com/subsplit/escrow/internal/escrow/store"
	"github.com/subsplit/escrow/pkg/idx"
	"github.com/subsplit/escrow/pkg/slogx"
)

// DisputeResolver owns the dispute state machine and the refund-relevant
// fields on purchases. Buyer reports and the deadline sweep both land on an
// open dispute; ignored disputes auto-refund, everything else waits for a
// human reviewer.
type DisputeResolver struct {
	Store    store.Store
	Audit    *AuditService
	Gateway  PaymentGateway
	Notifier Notifier

	// ConfirmGrace is how long a disclosed purchase may sit without buyer
	// confirmation before a dispute auto-opens. Zero means 24 hours.
	ConfirmGrace time.Duration

	// SellerWindow is how long a seller has to act on an open dispute
	// before it auto-refunds. Zero means 72 hours.
	SellerWindow time.Duration

	// DisclosureWindow bounds how long a paid purchase may wait for
	// disclosure before refunding. Zero means 24 hours.
	DisclosureWindow time.Duration

	// RefundMaxElapsed caps the backoff retry budget per refund attempt.
	// Zero means 2 minutes.
	RefundMaxElapsed time.Duration
}

func (s *DisputeResolver) confirmGrace() time.Duration {
	if s.ConfirmGrace <= 0 {
		return 24 * time.Hour
	}
	return s.ConfirmGrace
}

func (s *DisputeResolver) sellerWindow() time.Duration {
	if s.SellerWindow <= 0 {
		return 72 * time.Hour
	}
	return s.SellerWindow
}

func (s *DisputeResolver) disclosureWindow() time.Duration {
	if s.DisclosureWindow <= 0 {
		return 24 * time.Hour
	}
	return s.DisclosureWindow
}

// ConfirmOutcome records the buyer's verdict on a disclosed purchase.
// working=true closes the purchase as confirmed; working=false opens a
// dispute immediately.
func (s *DisputeResolver) ConfirmOutcome(ctx context.Context, buyerID, purchaseID string, working bool) error {
	purchase, err := s.Store.Purchases().GetPurchaseByID(ctx, purchaseID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrPurchaseUnknown
		}
		return err
	}
	if purchase.BuyerID != buyerID {
		return ErrPurchaseNotBuyer
	}

	now := time.Now().UTC()
	if working {
		if err := s.Store.Purchases().MarkConfirmed(ctx, purchaseID, now); err != nil {
			if errors.Is(err, store.ErrConflict) {
				return ErrInvalidTransition
			}
			return err
		}
		return nil
	}

	return s.openDispute(ctx, buyerID, purchase, domain.DisputeKindReportedBroken, now.Add(s.sellerWindow()))
}

// openDispute moves a purchase into dispute_open and writes the dispute
// record in one transaction. The unique open-dispute index makes a second
// report for the same purchase a no-op conflict.
func (s *DisputeResolver) openDispute(ctx context.Context, reporterID string, purchase domain.Purchase, kind string, deadline time.Time) error {
	now := time.Now().UTC()
	dispute := domain.Dispute{
		ID:                 idx.New().String(),
		ReporterID:         reporterID,
		TransactionID:      purchase.ID,
		Kind:               kind,
		Status:             domain.DisputeStatusOpen,
		ResolutionDeadline: deadline,
		CreatedAt:          now,
	}

	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Purchases().TransitionState(ctx, purchase.ID, purchase.State, domain.StateDisputeOpen, now); err != nil {
			return err
		}
		return tx.Disputes().CreateDispute(ctx, dispute)
	})
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return ErrInvalidTransition
		}
		return err
	}

	s.Audit.Record(ctx, reporterID, domain.AuditActionDisputeOpened, "dispute", dispute.ID, domain.AuditOutcomeSuccess,
		fmt.Sprintf("purchase %s kind %s", purchase.ID, kind))
	s.Notifier.NotifySeller(ctx, purchase.SellerID, "dispute opened",
		fmt.Sprintf("purchase %s is disputed (%s); respond before %s", purchase.ID, kind, deadline.Format(time.RFC3339)))
	return nil
}

// ResolveManually closes an open dispute with a human decision. The purchase
// leaves dispute_open for resolved_manual; money movement, if any, happened
// outside the system and is the reviewer's responsibility.
func (s *DisputeResolver) ResolveManually(ctx context.Context, reviewerID, disputeID, note string) error {
	dispute, err := s.Store.Disputes().GetDisputeByID(ctx, disputeID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrDisputeUnknown
		}
		return err
	}
	if !dispute.IsOpen() {
		return ErrDisputeClosed
	}

	now := time.Now().UTC()
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Disputes().ResolveDispute(ctx, disputeID, domain.ResolutionManual, now); err != nil {
			return err
		}
		return tx.Purchases().TransitionState(ctx, dispute.TransactionID, domain.StateDisputeOpen, domain.StateResolvedManual, now)
	})
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return ErrDisputeClosed
		}
		return err
	}

	s.Audit.Record(ctx, reviewerID, domain.AuditActionDisputeResolved, "dispute", disputeID, domain.AuditOutcomeSuccess, "manual: "+note)
	return nil
}

// Sweep runs the deadline evaluation. It is idempotent: every transition is
// a guarded conditional update, so re-running a sweep over the same rows
// changes nothing and never double-refunds.
func (s *DisputeResolver) Sweep(ctx context.Context) {
	l := slogx.FromContext(ctx)
	now := time.Now().UTC()

	// Phase 1: disclosure never happened. These refund without waiting for
	// a seller response; there is nothing the seller could respond to.
	stalled, err := s.Store.Purchases().ListInStateSince(ctx, domain.StateAwaitingDisclosure, now.Add(-s.disclosureWindow()))
	if err != nil {
		l.Error("sweep: list undisclosed purchases", "error", err)
	}
	for _, purchase := range stalled {
		if err := s.openDispute(ctx, "system", purchase, domain.DisputeKindNoDisclosure, now); err != nil && !errors.Is(err, ErrInvalidTransition) {
			l.Error("sweep: open no-disclosure dispute", "purchase_id", purchase.ID, "error", err)
		}
	}

	// Phase 2: buyer went silent after disclosure.
	unconfirmed, err := s.Store.Purchases().ListInStateSince(ctx, domain.StateDisclosed, now.Add(-s.confirmGrace()))
	if err != nil {
		l.Error("sweep: list unconfirmed purchases", "error", err)
	}
	for _, purchase := range unconfirmed {
		if err := s.openDispute(ctx, "system", purchase, domain.DisputeKindNoConfirmation, now.Add(s.sellerWindow())); err != nil && !errors.Is(err, ErrInvalidTransition) {
			l.Error("sweep: open no-confirmation dispute", "purchase_id", purchase.ID, "error", err)
		}
	}

	// Phase 3: seller ignored an open dispute past its deadline. A fresh
	// timestamp here lets disputes opened by phase 1 of this same pass,
	// whose deadlines are already due, refund without waiting a cycle.
	overdue, err := s.Store.Disputes().ListOverdueOpenDisputes(ctx, time.Now().UTC())
	if err != nil {
		l.Error("sweep: list overdue disputes", "error", err)
		return
	}
	for _, dispute := range overdue {
		s.autoRefund(ctx, dispute)
	}
}

// autoRefund executes the refund for one overdue dispute. The refund claim
// is a conditional flip of the dispute's empty refund status, so a sweep
// racing another sweep (or a crashed predecessor that already claimed) calls
// the gateway at most once per dispute.
func (s *DisputeResolver) autoRefund(ctx context.Context, dispute domain.Dispute) {
	l := slogx.FromContext(ctx)

	purchase, err := s.Store.Purchases().GetPurchaseByID(ctx, dispute.TransactionID)
	if err != nil {
		l.Error("refund: load purchase", "dispute_id", dispute.ID, "error", err)
		return
	}

	if err := s.Store.Disputes().ClaimRefund(ctx, dispute.ID); err != nil {
		if !errors.Is(err, store.ErrConflict) {
			l.Error("refund: claim", "dispute_id", dispute.ID, "error", err)
		}
		return
	}

	if err := s.executeRefund(ctx, purchase); err != nil {
		s.Audit.Record(ctx, "system", domain.AuditActionRefundFailed, "dispute", dispute.ID, domain.AuditOutcomeFailure, err.Error())
		if err := s.Store.Disputes().SetRefundStatus(ctx, dispute.ID, domain.RefundStatusFailed); err != nil {
			l.Error("refund: record failure", "dispute_id", dispute.ID, "error", err)
		}
		// Escalate instead of dropping: the dispute stays open for a
		// reviewer, with the failed refund recorded against it.
		l.Warn("refund failed, escalated to manual review", "dispute_id", dispute.ID, "purchase_id", purchase.ID)
		return
	}

	now := time.Now().UTC()
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Disputes().SetRefundStatus(ctx, dispute.ID, domain.RefundStatusRefunded); err != nil {
			return err
		}
		if err := tx.Disputes().ResolveDispute(ctx, dispute.ID, domain.ResolutionRefunded, now); err != nil {
			return err
		}
		if err := tx.Purchases().SetRefundStatus(ctx, purchase.ID, domain.RefundStatusRefunded, now); err != nil {
			return err
		}
		if err := tx.Purchases().TransitionState(ctx, purchase.ID, domain.StateDisputeOpen, domain.StateResolvedRefunded, now); err != nil {
			return err
		}
		// The slot goes back on the market exactly once, inside the same
		// transaction that makes the resolution final.
		return tx.Subscriptions().AdjustAvailableSlots(ctx, purchase.SubscriptionID, 1, now)
	})
	if err != nil {
		l.Error("refund: finalize", "dispute_id", dispute.ID, "error", err)
		return
	}

	s.Audit.Record(ctx, "system", domain.AuditActionRefundIssued, "dispute", dispute.ID, domain.AuditOutcomeSuccess,
		fmt.Sprintf("purchase %s amount %d", purchase.ID, purchase.AmountCents))
	s.Audit.Record(ctx, "system", domain.AuditActionDisputeResolved, "dispute", dispute.ID, domain.AuditOutcomeSuccess, "auto-refunded")
	s.Notifier.NotifyBuyer(ctx, purchase.BuyerID, "refund issued",
		fmt.Sprintf("purchase %s has been refunded", purchase.ID))
	s.Notifier.NotifySeller(ctx, purchase.SellerID, "dispute auto-refunded",
		fmt.Sprintf("purchase %s was refunded after the response deadline passed", purchase.ID))
}

// executeRefund calls the payment gateway with exponential backoff on
// transient failures. A rejection marked permanent stops retrying
// immediately.
func (s *DisputeResolver) executeRefund(ctx context.Context, purchase domain.Purchase) error {
	maxElapsed := s.RefundMaxElapsed
	if maxElapsed <= 0 {
		maxElapsed = 2 * time.Minute
	}

	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = maxElapsed

	return backoff.Retry(func() error {
		err := s.Gateway.Refund(ctx, purchase.ID, purchase.AmountCents)
		if errors.Is(err, ErrRefundRejected) {
			return backoff.Permanent(err)
		}
		return err
	}, backoff.WithContext(policy, ctx))
}
