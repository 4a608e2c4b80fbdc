package handler

import (
	appfulfillment "github.com/giftbridge/backend/internal/application/fulfillment"
	"github.com/giftbridge/backend/internal/domain/fulfillment"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductionHandler handles production order API endpoints
type ProductionHandler struct {
	BaseHandler
	productionService *appfulfillment.ProductionService
}

// NewProductionHandler creates a new ProductionHandler
func NewProductionHandler(productionService *appfulfillment.ProductionService) *ProductionHandler {
	return &ProductionHandler{productionService: productionService}
}

// UpdateStatusRequest moves a production order through its state machine
type UpdateStatusRequest struct {
	Status     string   `json:"status" binding:"required"`
	Notes      string   `json:"notes" binding:"max=500"`
	ActualCost *float64 `json:"actual_cost" binding:"omitempty,gte=0"`
}

// QCResultRequest records a quality-control outcome
type QCResultRequest struct {
	Passed bool   `json:"passed"`
	Notes  string `json:"notes" binding:"max=500"`
}

// KittingItemRequest adds one entry to the kitting checklist
type KittingItemRequest struct {
	Description string `json:"description" binding:"required,max=200"`
	Barcode     string `json:"barcode" binding:"max=100"`
}

// KittingScanRequest marks a checklist entry as packed
type KittingScanRequest struct {
	ItemID string `json:"item_id" binding:"required,uuid"`
}

// Get returns a production order with its transition log and kitting items
func (h *ProductionHandler) Get(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	po, err := h.productionService.GetProductionOrder(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, po)
}

// UpdateStatus applies a status transition
func (h *ProductionHandler) UpdateStatus(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	appReq := appfulfillment.TransitionRequest{
		ProductionOrderID: id,
		Target:            fulfillment.ProductionOrderStatus(req.Status),
		Actor:             getOperatorID(c),
		Notes:             req.Notes,
	}
	if req.ActualCost != nil {
		cost := decimal.NewFromFloat(*req.ActualCost)
		appReq.ActualCost = &cost
	}

	po, err := h.productionService.Transition(c.Request.Context(), appReq)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, po)
}

// RecordQC records a quality-control result
func (h *ProductionHandler) RecordQC(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	var req QCResultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	po, err := h.productionService.RecordQC(c.Request.Context(), appfulfillment.QCRequest{
		ProductionOrderID: id,
		Passed:            req.Passed,
		Notes:             req.Notes,
		Actor:             getOperatorID(c),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, po)
}

// AddKittingItem appends an entry to the kitting checklist
func (h *ProductionHandler) AddKittingItem(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	var req KittingItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	po, err := h.productionService.AddKittingItem(c.Request.Context(), id, req.Description, req.Barcode)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, po)
}

// ScanKittingItem marks a kitting checklist entry as packed
func (h *ProductionHandler) ScanKittingItem(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	var req KittingScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}
	itemID, err := uuid.Parse(req.ItemID)
	if err != nil {
		h.BadRequest(c, "Invalid kitting item ID")
		return
	}

	po, err := h.productionService.ScanKittingItem(c.Request.Context(), id, itemID, getOperatorID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, po)
}

// ClearEscalation resolves an operator escalation on a production order
func (h *ProductionHandler) ClearEscalation(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	po, err := h.productionService.ClearEscalation(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, po)
}
