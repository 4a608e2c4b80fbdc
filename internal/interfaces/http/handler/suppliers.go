package handler

import (
	"context"

	appsupply "github.com/giftbridge/backend/internal/application/supply"
	"github.com/giftbridge/backend/internal/domain/shared"
	"github.com/giftbridge/backend/internal/domain/supply"
	"github.com/giftbridge/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SupplierHandler handles supplier management API endpoints
type SupplierHandler struct {
	BaseHandler
	supplierService *appsupply.SupplierService
	syncService     *appsupply.SyncService
}

// NewSupplierHandler creates a new SupplierHandler
func NewSupplierHandler(supplierService *appsupply.SupplierService, syncService *appsupply.SyncService) *SupplierHandler {
	return &SupplierHandler{
		supplierService: supplierService,
		syncService:     syncService,
	}
}

// RegisterSupplierRequest onboards a new supplier
type RegisterSupplierRequest struct {
	Code          string `json:"code" binding:"required,max=50,suppliercode"`
	Name          string `json:"name" binding:"required,max=200"`
	AdapterCode   string `json:"adapter_code" binding:"required,max=50"`
	APIBaseURL    string `json:"api_base_url" binding:"omitempty,url"`
	WebhookSecret string `json:"webhook_secret" binding:"omitempty,min=16"`
	ContactName   string `json:"contact_name" binding:"max=100"`
	ContactEmail  string `json:"contact_email" binding:"omitempty,email"`
}

// BlockSupplierRequest blocks a supplier from routing
type BlockSupplierRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

// PerformanceRequest updates a supplier's measured delivery performance
type PerformanceRequest struct {
	OnTimeRate float64 `json:"on_time_rate" binding:"min=0,max=1"`
	QCPassRate float64 `json:"qc_pass_rate" binding:"min=0,max=1"`
}

// Register onboards a supplier bound to an integration adapter
func (h *SupplierHandler) Register(c *gin.Context) {
	var req RegisterSupplierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	supplier, err := h.supplierService.RegisterSupplier(c.Request.Context(), appsupply.RegisterSupplierRequest{
		Code:          req.Code,
		Name:          req.Name,
		AdapterCode:   req.AdapterCode,
		APIBaseURL:    req.APIBaseURL,
		WebhookSecret: req.WebhookSecret,
		ContactName:   req.ContactName,
		ContactEmail:  req.ContactEmail,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, supplier)
}

// Get returns a supplier by ID
func (h *SupplierHandler) Get(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	supplier, err := h.supplierService.GetSupplier(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, supplier)
}

// List returns suppliers, paginated
func (h *SupplierHandler) List(c *gin.Context) {
	var req dto.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.ValidationError(c, err)
		return
	}
	req.Normalize()

	suppliers, err := h.supplierService.ListSuppliers(c.Request.Context(), shared.Filter{
		Page:     req.Page,
		PageSize: req.PageSize,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, suppliers)
}

// Activate re-enables a supplier for routing
func (h *SupplierHandler) Activate(c *gin.Context) {
	h.changeStatus(c, h.supplierService.ActivateSupplier)
}

// Deactivate removes a supplier from routing without blocking it
func (h *SupplierHandler) Deactivate(c *gin.Context) {
	h.changeStatus(c, h.supplierService.DeactivateSupplier)
}

// Block blocks a supplier for cause
func (h *SupplierHandler) Block(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	var req BlockSupplierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	supplier, err := h.supplierService.BlockSupplier(c.Request.Context(), id, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, supplier)
}

// RecordPerformance updates the measured on-time and QC pass rates
func (h *SupplierHandler) RecordPerformance(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	var req PerformanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	supplier, err := h.supplierService.RecordPerformance(
		c.Request.Context(), id,
		decimal.NewFromFloat(req.OnTimeRate),
		decimal.NewFromFloat(req.QCPassRate),
	)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, supplier)
}

// Sync triggers an immediate full catalog poll for one supplier
func (h *SupplierHandler) Sync(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	count, err := h.syncService.SyncSupplier(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"snapshots": count})
}

func (h *SupplierHandler) changeStatus(c *gin.Context, fn func(ctx context.Context, id uuid.UUID) (*supply.Supplier, error)) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	supplier, err := fn(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, supplier)
}
