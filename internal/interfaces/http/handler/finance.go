package handler

import (
	"errors"

	appsettlement "github.com/giftbridge/backend/internal/application/settlement"
	"github.com/giftbridge/backend/internal/domain/settlement"
	"github.com/giftbridge/backend/internal/domain/shared"
	"github.com/giftbridge/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FinanceHandler handles settlement ledger and payout API endpoints
type FinanceHandler struct {
	BaseHandler
	ledgerService *appsettlement.LedgerService
	payoutService *appsettlement.PayoutService
}

// NewFinanceHandler creates a new FinanceHandler
func NewFinanceHandler(ledgerService *appsettlement.LedgerService, payoutService *appsettlement.PayoutService) *FinanceHandler {
	return &FinanceHandler{
		ledgerService: ledgerService,
		payoutService: payoutService,
	}
}

// getOperatorUUID parses the operator header. Money movements always need
// an accountable operator, so a missing header is an error here.
func getOperatorUUID(c *gin.Context) (uuid.UUID, error) {
	operator := c.GetHeader(OperatorIDHeader)
	if operator == "" {
		return uuid.Nil, errors.New("X-Operator-ID header is required")
	}
	return uuid.Parse(operator)
}

// LedgerListRequest filters the settlement ledger
type LedgerListRequest struct {
	SupplierID string `form:"supplier_id" binding:"omitempty,uuid"`
	Kind       string `form:"kind" binding:"omitempty,oneof=SALE PAYOUT REFUND ADJUSTMENT"`
	Status     string `form:"status" binding:"omitempty,oneof=UNPAID PENDING PAID CANCELLED"`
	Page       int    `form:"page" binding:"omitempty,min=1"`
	PageSize   int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// AdjustmentRequest posts a manual correction to a supplier's ledger
type AdjustmentRequest struct {
	SupplierID string  `json:"supplier_id" binding:"required,uuid"`
	Amount     float64 `json:"amount" binding:"required"`
	Reason     string  `json:"reason" binding:"required,max=500"`
}

// PayoutCreateRequest asks for a payout of a supplier's unsettled balance
type PayoutCreateRequest struct {
	SupplierID string  `json:"supplier_id" binding:"required,uuid"`
	Amount     float64 `json:"amount" binding:"required,gt=0"`
}

// PayoutConfirmRequest records the completed transfer
type PayoutConfirmRequest struct {
	ProofReference string `json:"proof_reference" binding:"required,max=200"`
}

// PayoutRejectRequest rejects a payout request
type PayoutRejectRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

// ListLedger returns ledger entries matching the filter, paginated
func (h *FinanceHandler) ListLedger(c *gin.Context) {
	var req LedgerListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.ValidationError(c, err)
		return
	}
	if req.Page < 1 {
		req.Page = 1
	}
	if req.PageSize < 1 {
		req.PageSize = 20
	}

	filter := settlement.LedgerFilter{
		Filter: shared.Filter{Page: req.Page, PageSize: req.PageSize},
	}
	if req.SupplierID != "" {
		id, err := uuid.Parse(req.SupplierID)
		if err != nil {
			h.BadRequest(c, "Invalid supplier ID")
			return
		}
		filter.SupplierID = &id
	}
	if req.Kind != "" {
		kind := settlement.LedgerEntryKind(req.Kind)
		filter.Kind = &kind
	}
	if req.Status != "" {
		status := settlement.LedgerEntryStatus(req.Status)
		filter.Status = &status
	}

	page, err := h.ledgerService.ListLedger(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, page.Items, page.Total, req.Page, req.PageSize)
}

// GetBalance returns a supplier's settlement balance
func (h *FinanceHandler) GetBalance(c *gin.Context) {
	supplierID, err := parseUUIDParam(c, "supplierId")
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	balance, err := h.ledgerService.GetBalance(c.Request.Context(), supplierID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, balance)
}

// PostAdjustment appends a manual ADJUSTMENT entry
func (h *FinanceHandler) PostAdjustment(c *gin.Context) {
	operatorID, err := getOperatorUUID(c)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	var req AdjustmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}
	supplierID, err := uuid.Parse(req.SupplierID)
	if err != nil {
		h.BadRequest(c, "Invalid supplier ID")
		return
	}

	entry, err := h.ledgerService.PostAdjustment(c.Request.Context(), appsettlement.PostAdjustmentRequest{
		SupplierID: supplierID,
		Amount:     decimal.NewFromFloat(req.Amount),
		Reason:     req.Reason,
		OperatorID: operatorID,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, entry)
}

// CreatePayout creates a PENDING payout request
func (h *FinanceHandler) CreatePayout(c *gin.Context) {
	var req PayoutCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}
	supplierID, err := uuid.Parse(req.SupplierID)
	if err != nil {
		h.BadRequest(c, "Invalid supplier ID")
		return
	}

	payout, err := h.payoutService.RequestPayout(c.Request.Context(), appsettlement.RequestPayoutRequest{
		SupplierID:      supplierID,
		RequestedAmount: decimal.NewFromFloat(req.Amount),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, payout)
}

// GetPayout returns a payout request with its settled entries
func (h *FinanceHandler) GetPayout(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	payout, err := h.payoutService.GetPayout(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, payout)
}

// ListPayouts returns payout requests for a supplier
func (h *FinanceHandler) ListPayouts(c *gin.Context) {
	supplierIDStr := c.Query("supplier_id")
	if supplierIDStr == "" {
		h.BadRequest(c, "supplier_id query parameter is required")
		return
	}
	supplierID, err := uuid.Parse(supplierIDStr)
	if err != nil {
		h.BadRequest(c, "Invalid supplier ID")
		return
	}

	var page dto.ListRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		h.ValidationError(c, err)
		return
	}
	page.Normalize()

	payouts, err := h.payoutService.ListPayouts(c.Request.Context(), supplierID, shared.Filter{
		Page:     page.Page,
		PageSize: page.PageSize,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, payouts)
}

// ApprovePayout approves a pending payout, freezing the covered entries
func (h *FinanceHandler) ApprovePayout(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	operatorID, err := getOperatorUUID(c)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	payout, err := h.payoutService.ApprovePayout(c.Request.Context(), id, operatorID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, payout)
}

// ConfirmPayout records the executed transfer and marks entries paid
func (h *FinanceHandler) ConfirmPayout(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	var req PayoutConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	payout, err := h.payoutService.ConfirmPayout(c.Request.Context(), id, req.ProofReference)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, payout)
}

// RejectPayout rejects a payout request, releasing any held entries
func (h *FinanceHandler) RejectPayout(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	operatorID, err := getOperatorUUID(c)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	var req PayoutRejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	payout, err := h.payoutService.RejectPayout(c.Request.Context(), id, operatorID, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, payout)
}
