package settlement

import (
	"context"
	"fmt"

	"github.com/giftbridge/backend/internal/domain/settlement"
	"github.com/giftbridge/backend/internal/domain/shared"
	"github.com/giftbridge/backend/internal/domain/supply"
	"github.com/giftbridge/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// PayoutService drives the payout request workflow. Approval places a
// negative PAYOUT hold on the ledger inside the same transaction as the
// balance re-check, so two racing approvals cannot both draw on the same
// funds. Confirmation and rejection settle or reverse that hold.
type PayoutService struct {
	payoutRepo   settlement.PayoutRequestRepository
	ledgerRepo   settlement.LedgerRepository
	supplierRepo supply.SupplierRepository
	txManager    TransactionManager
	logger       *zap.Logger
	metrics      *telemetry.BusinessMetrics
}

// NewPayoutService creates a new PayoutService
func NewPayoutService(
	payoutRepo settlement.PayoutRequestRepository,
	ledgerRepo settlement.LedgerRepository,
	supplierRepo supply.SupplierRepository,
	txManager TransactionManager,
	logger *zap.Logger,
	metrics *telemetry.BusinessMetrics,
) *PayoutService {
	return &PayoutService{
		payoutRepo:   payoutRepo,
		ledgerRepo:   ledgerRepo,
		supplierRepo: supplierRepo,
		txManager:    txManager,
		logger:       logger,
		metrics:      metrics,
	}
}

// RequestPayoutRequest asks to pay out part of a supplier's balance
type RequestPayoutRequest struct {
	SupplierID      uuid.UUID
	RequestedAmount decimal.Decimal
}

// RequestPayout creates a PENDING payout request. The balance check here is
// advisory; the binding check happens again at approval inside a transaction.
func (s *PayoutService) RequestPayout(ctx context.Context, req RequestPayoutRequest) (*settlement.PayoutRequest, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "payout", "request_payout")
	defer span.End()

	telemetry.SetAttributes(span,
		telemetry.SpanAttrSupplierID, req.SupplierID.String(),
		telemetry.SpanAttrAmount, req.RequestedAmount.String(),
	)

	if _, err := s.supplierRepo.FindByID(ctx, req.SupplierID); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to get supplier: %w", err)
	}

	balance, err := s.ledgerRepo.SumBalance(ctx, req.SupplierID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to sum balance: %w", err)
	}
	if balance.LessThan(req.RequestedAmount) {
		telemetry.RecordError(span, shared.ErrInsufficientBalance)
		return nil, shared.ErrInsufficientBalance
	}

	request, err := settlement.NewPayoutRequest(req.SupplierID, req.RequestedAmount)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if err := s.payoutRepo.Save(ctx, request); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to save payout request: %w", err)
	}

	s.logger.Info("Payout requested",
		zap.String("payout_request_id", request.ID.String()),
		zap.String("supplier_id", req.SupplierID.String()),
		zap.String("amount", req.RequestedAmount.String()),
	)
	s.metrics.RecordPayoutTransition(ctx, string(settlement.PayoutStatusPending))
	return request, nil
}

// ApprovePayout moves a PENDING request to PROCESSING. Inside one
// transaction it re-checks the supplier balance, records which unpaid
// entries the payout will settle (flipping them to PENDING so a second
// payout cannot claim them), and posts the negative PAYOUT hold entry.
func (s *PayoutService) ApprovePayout(ctx context.Context, payoutID, operatorID uuid.UUID) (*settlement.PayoutRequest, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "payout", "approve_payout")
	defer span.End()

	telemetry.SetAttributes(span,
		telemetry.SpanAttrPayoutRequestID, payoutID.String(),
		"operator_id", operatorID.String(),
	)

	request, err := s.payoutRepo.FindByID(ctx, payoutID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to get payout request: %w", err)
	}

	unsettled, err := s.ledgerRepo.FindUnsettledBySupplier(ctx, request.SupplierID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to list unsettled entries: %w", err)
	}
	settles := make([]uuid.UUID, 0, len(unsettled))
	for _, entry := range unsettled {
		settles = append(settles, entry.ID)
	}

	err = s.txManager.Transaction(func(tx *gorm.DB) error {
		balance, err := s.ledgerRepo.SumBalanceTx(tx, request.SupplierID)
		if err != nil {
			return fmt.Errorf("failed to sum balance: %w", err)
		}
		if balance.LessThan(request.RequestedAmount) {
			return shared.ErrInsufficientBalance
		}

		if err := request.Approve(operatorID, settles); err != nil {
			return err
		}
		if err := s.payoutRepo.SaveWithLockTx(tx, request); err != nil {
			return err
		}

		hold, err := settlement.NewPayoutEntry(request.SupplierID, request.ID, request.RequestedAmount)
		if err != nil {
			return err
		}
		if err := s.ledgerRepo.InsertTx(tx, hold); err != nil {
			return fmt.Errorf("failed to post payout hold: %w", err)
		}

		return s.ledgerRepo.UpdateStatusTx(tx, settles, settlement.LedgerStatusPending, "")
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.logger.Info("Payout approved",
		zap.String("payout_request_id", request.ID.String()),
		zap.String("supplier_id", request.SupplierID.String()),
		zap.Int("settled_entries", len(settles)),
	)
	s.metrics.RecordPayoutTransition(ctx, string(settlement.PayoutStatusProcessing))
	return request, nil
}

// ConfirmPayout moves a PROCESSING request to PAID once payment has left
// the bank. The proof reference is stamped onto the request, the settled
// entries and the hold entry, all atomically.
func (s *PayoutService) ConfirmPayout(ctx context.Context, payoutID uuid.UUID, proofReference string) (*settlement.PayoutRequest, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "payout", "confirm_payout")
	defer span.End()

	telemetry.SetAttribute(span, telemetry.SpanAttrPayoutRequestID, payoutID.String())

	request, err := s.payoutRepo.FindByID(ctx, payoutID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to get payout request: %w", err)
	}

	holdIDs, err := s.holdEntryIDs(ctx, request.ID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	err = s.txManager.Transaction(func(tx *gorm.DB) error {
		if err := request.Confirm(proofReference); err != nil {
			return err
		}
		if err := s.payoutRepo.SaveWithLockTx(tx, request); err != nil {
			return err
		}
		if err := s.ledgerRepo.UpdateStatusTx(tx, request.SettledEntryIDs(), settlement.LedgerStatusPaid, proofReference); err != nil {
			return fmt.Errorf("failed to settle ledger entries: %w", err)
		}
		return s.ledgerRepo.UpdateStatusTx(tx, holdIDs, settlement.LedgerStatusPaid, proofReference)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.logger.Info("Payout confirmed",
		zap.String("payout_request_id", request.ID.String()),
		zap.String("proof_reference", proofReference),
	)
	s.metrics.RecordPayoutTransition(ctx, string(settlement.PayoutStatusPaid))
	return request, nil
}

// RejectPayout moves a PENDING or PROCESSING request to REJECTED. When the
// request had been approved, the balance hold already exists, so a positive
// REFUND entry reverses it and the entries it would have settled return to
// UNPAID. Rejecting a request that was never approved touches no balances.
func (s *PayoutService) RejectPayout(ctx context.Context, payoutID, operatorID uuid.UUID, reason string) (*settlement.PayoutRequest, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "payout", "reject_payout")
	defer span.End()

	telemetry.SetAttributes(span,
		telemetry.SpanAttrPayoutRequestID, payoutID.String(),
		"operator_id", operatorID.String(),
	)

	request, err := s.payoutRepo.FindByID(ctx, payoutID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to get payout request: %w", err)
	}

	held := request.HeldSinceApproval()

	err = s.txManager.Transaction(func(tx *gorm.DB) error {
		if err := request.Reject(reason, operatorID); err != nil {
			return err
		}
		if err := s.payoutRepo.SaveWithLockTx(tx, request); err != nil {
			return err
		}
		if !held {
			return nil
		}

		refund, err := settlement.NewRefundEntry(request.SupplierID, request.ID, request.RequestedAmount, reason)
		if err != nil {
			return err
		}
		if err := s.ledgerRepo.InsertTx(tx, refund); err != nil {
			return fmt.Errorf("failed to post refund: %w", err)
		}
		return s.ledgerRepo.UpdateStatusTx(tx, request.SettledEntryIDs(), settlement.LedgerStatusUnpaid, "")
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.logger.Info("Payout rejected",
		zap.String("payout_request_id", request.ID.String()),
		zap.String("reason", reason),
		zap.Bool("hold_reversed", held),
	)
	s.metrics.RecordPayoutTransition(ctx, string(settlement.PayoutStatusRejected))
	return request, nil
}

// GetPayout returns one payout request with its settled entries
func (s *PayoutService) GetPayout(ctx context.Context, payoutID uuid.UUID) (*settlement.PayoutRequest, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "payout", "get_payout")
	defer span.End()

	telemetry.SetAttribute(span, telemetry.SpanAttrPayoutRequestID, payoutID.String())

	request, err := s.payoutRepo.FindByID(ctx, payoutID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return request, nil
}

// ListPayouts returns a supplier's payout requests, newest first
func (s *PayoutService) ListPayouts(ctx context.Context, supplierID uuid.UUID, filter shared.Filter) ([]settlement.PayoutRequest, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "payout", "list_payouts")
	defer span.End()

	telemetry.SetAttribute(span, telemetry.SpanAttrSupplierID, supplierID.String())

	requests, err := s.payoutRepo.FindBySupplier(ctx, supplierID, filter)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to list payout requests: %w", err)
	}
	return requests, nil
}

// holdEntryIDs finds the PAYOUT hold entries posted for a request
func (s *PayoutService) holdEntryIDs(ctx context.Context, payoutID uuid.UUID) ([]uuid.UUID, error) {
	entries, err := s.ledgerRepo.FindByPayoutRequest(ctx, payoutID)
	if err != nil {
		return nil, fmt.Errorf("failed to find payout entries: %w", err)
	}
	ids := make([]uuid.UUID, 0, 1)
	for _, entry := range entries {
		if entry.Kind == settlement.LedgerKindPayout {
			ids = append(ids, entry.ID)
		}
	}
	return ids, nil
}
