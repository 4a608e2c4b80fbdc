package settlement

import (
	"testing"

	"github.com/giftbridge/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPayoutRequest(t *testing.T) {
	t.Run("creates pending request", func(t *testing.T) {
		supplierID := uuid.New()
		request, err := NewPayoutRequest(supplierID, decimal.NewFromInt(500000))

		require.NoError(t, err)
		assert.Equal(t, PayoutStatusPending, request.Status)
		assert.Equal(t, supplierID, request.SupplierID)
		assert.True(t, request.RequestedAmount.Equal(decimal.NewFromInt(500000)))
		assert.Len(t, request.GetDomainEvents(), 1)
	})

	t.Run("rejects nil supplier", func(t *testing.T) {
		request, err := NewPayoutRequest(uuid.Nil, decimal.NewFromInt(100))

		assert.Nil(t, request)
		assert.Error(t, err)
	})

	t.Run("rejects non-positive amount", func(t *testing.T) {
		request, err := NewPayoutRequest(uuid.New(), decimal.Zero)

		assert.Nil(t, request)
		assert.Error(t, err)
	})
}

func TestPayoutRequest_Approve(t *testing.T) {
	t.Run("moves pending to processing and records settled entries", func(t *testing.T) {
		request, _ := NewPayoutRequest(uuid.New(), decimal.NewFromInt(1000))
		operatorID := uuid.New()
		entries := []uuid.UUID{uuid.New(), uuid.New()}

		err := request.Approve(operatorID, entries)

		require.NoError(t, err)
		assert.Equal(t, PayoutStatusProcessing, request.Status)
		require.NotNil(t, request.ApprovedBy)
		assert.Equal(t, operatorID, *request.ApprovedBy)
		assert.NotNil(t, request.ApprovedAt)
		assert.ElementsMatch(t, entries, request.SettledEntryIDs())
		assert.True(t, request.HeldSinceApproval())
	})

	t.Run("cannot approve twice", func(t *testing.T) {
		request, _ := NewPayoutRequest(uuid.New(), decimal.NewFromInt(1000))
		require.NoError(t, request.Approve(uuid.New(), nil))

		err := request.Approve(uuid.New(), nil)

		assert.Equal(t, shared.ErrIllegalTransition, err)
	})
}

func TestPayoutRequest_Confirm(t *testing.T) {
	t.Run("moves processing to paid with proof", func(t *testing.T) {
		request, _ := NewPayoutRequest(uuid.New(), decimal.NewFromInt(1000))
		require.NoError(t, request.Approve(uuid.New(), nil))

		err := request.Confirm("bank-ref-123")

		require.NoError(t, err)
		assert.Equal(t, PayoutStatusPaid, request.Status)
		assert.Equal(t, "bank-ref-123", request.ProofReference)
		assert.NotNil(t, request.PaidAt)
	})

	t.Run("cannot confirm a pending request", func(t *testing.T) {
		request, _ := NewPayoutRequest(uuid.New(), decimal.NewFromInt(1000))

		err := request.Confirm("bank-ref-123")

		assert.Equal(t, shared.ErrIllegalTransition, err)
	})

	t.Run("requires a proof reference", func(t *testing.T) {
		request, _ := NewPayoutRequest(uuid.New(), decimal.NewFromInt(1000))
		require.NoError(t, request.Approve(uuid.New(), nil))

		assert.Error(t, request.Confirm(""))
	})

	t.Run("paid request is immutable", func(t *testing.T) {
		request, _ := NewPayoutRequest(uuid.New(), decimal.NewFromInt(1000))
		require.NoError(t, request.Approve(uuid.New(), nil))
		require.NoError(t, request.Confirm("bank-ref-123"))

		assert.Equal(t, shared.ErrIllegalTransition, request.Reject("too late", uuid.New()))
		assert.Equal(t, shared.ErrIllegalTransition, request.Confirm("again"))
	})
}

func TestPayoutRequest_Reject(t *testing.T) {
	t.Run("rejects a pending request without a hold", func(t *testing.T) {
		request, _ := NewPayoutRequest(uuid.New(), decimal.NewFromInt(1000))
		operatorID := uuid.New()

		err := request.Reject("insufficient documentation", operatorID)

		require.NoError(t, err)
		assert.Equal(t, PayoutStatusRejected, request.Status)
		assert.Equal(t, "insufficient documentation", request.RejectionReason)
		assert.False(t, request.HeldSinceApproval())
	})

	t.Run("rejects a processing request, hold outstanding", func(t *testing.T) {
		request, _ := NewPayoutRequest(uuid.New(), decimal.NewFromInt(500000))
		require.NoError(t, request.Approve(uuid.New(), nil))

		err := request.Reject("quality dispute", uuid.New())

		require.NoError(t, err)
		assert.Equal(t, PayoutStatusRejected, request.Status)
		assert.True(t, request.HeldSinceApproval())
	})

	t.Run("requires a reason", func(t *testing.T) {
		request, _ := NewPayoutRequest(uuid.New(), decimal.NewFromInt(1000))

		assert.Error(t, request.Reject("", uuid.New()))
	})

	t.Run("rejected request is immutable", func(t *testing.T) {
		request, _ := NewPayoutRequest(uuid.New(), decimal.NewFromInt(1000))
		require.NoError(t, request.Reject("dup request", uuid.New()))

		assert.Equal(t, shared.ErrIllegalTransition, request.Approve(uuid.New(), nil))
	})
}

func TestPayoutStatusTransitions(t *testing.T) {
	t.Run("allow-list matches the workflow", func(t *testing.T) {
		assert.True(t, PayoutStatusPending.CanTransitionTo(PayoutStatusProcessing))
		assert.True(t, PayoutStatusPending.CanTransitionTo(PayoutStatusRejected))
		assert.True(t, PayoutStatusProcessing.CanTransitionTo(PayoutStatusPaid))
		assert.True(t, PayoutStatusProcessing.CanTransitionTo(PayoutStatusRejected))

		assert.False(t, PayoutStatusPending.CanTransitionTo(PayoutStatusPaid))
		assert.False(t, PayoutStatusPaid.CanTransitionTo(PayoutStatusProcessing))
		assert.False(t, PayoutStatusRejected.CanTransitionTo(PayoutStatusProcessing))
	})

	t.Run("terminal states", func(t *testing.T) {
		assert.True(t, PayoutStatusPaid.IsTerminal())
		assert.True(t, PayoutStatusRejected.IsTerminal())
		assert.False(t, PayoutStatusPending.IsTerminal())
		assert.False(t, PayoutStatusProcessing.IsTerminal())
	})
}
