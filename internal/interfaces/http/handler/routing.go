package handler

import (
	approuting "github.com/giftbridge/backend/internal/application/routing"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RoutingHandler handles supplier routing API endpoints
type RoutingHandler struct {
	BaseHandler
	routingService *approuting.RoutingService
}

// NewRoutingHandler creates a new RoutingHandler
func NewRoutingHandler(routingService *approuting.RoutingService) *RoutingHandler {
	return &RoutingHandler{routingService: routingService}
}

// SelectSupplierRequest asks for a routing preview without side effects
type SelectSupplierRequest struct {
	SKU                 string   `json:"sku" binding:"required,max=100,sku"`
	Quantity            float64  `json:"quantity" binding:"required,gt=0"`
	PreferredSupplierID *string  `json:"preferred_supplier_id" binding:"omitempty,uuid"`
	MaxLeadTimeDays     *int     `json:"max_lead_time_days" binding:"omitempty,gt=0"`
	MaxUnitCost         *float64 `json:"max_unit_cost" binding:"omitempty,gt=0"`
}

// RouteOrderRequest routes all pending lines of a customer order
type RouteOrderRequest struct {
	PreferredSupplierID *string  `json:"preferred_supplier_id" binding:"omitempty,uuid"`
	MaxLeadTimeDays     *int     `json:"max_lead_time_days" binding:"omitempty,gt=0"`
	MaxUnitCost         *float64 `json:"max_unit_cost" binding:"omitempty,gt=0"`
}

// GetInventory returns the cached per-supplier availability for a SKU
func (h *RoutingHandler) GetInventory(c *gin.Context) {
	sku := c.Param("sku")
	if sku == "" {
		h.BadRequest(c, "SKU is required")
		return
	}

	inventory, err := h.routingService.GetInventory(c.Request.Context(), sku)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, inventory)
}

// SelectSupplier previews the routing decision for a SKU and quantity
func (h *RoutingHandler) SelectSupplier(c *gin.Context) {
	var req SelectSupplierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	appReq := approuting.SelectSupplierRequest{
		SKU:      req.SKU,
		Quantity: decimal.NewFromFloat(req.Quantity),
	}
	if req.PreferredSupplierID != nil {
		id, err := uuid.Parse(*req.PreferredSupplierID)
		if err != nil {
			h.BadRequest(c, "Invalid preferred supplier ID")
			return
		}
		appReq.PreferredSupplierID = &id
	}
	appReq.MaxLeadTimeDays = req.MaxLeadTimeDays
	if req.MaxUnitCost != nil {
		cost := decimal.NewFromFloat(*req.MaxUnitCost)
		appReq.MaxUnitCost = &cost
	}

	decision, err := h.routingService.SelectSupplier(c.Request.Context(), appReq)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, decision)
}

// RouteOrder routes every pending line of an order to production orders
func (h *RoutingHandler) RouteOrder(c *gin.Context) {
	orderID, err := parseUUIDParam(c, "orderId")
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	// The body is optional; an empty body routes with no constraints
	var req RouteOrderRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.ValidationError(c, err)
			return
		}
	}

	appReq := approuting.RouteOrderRequest{OrderID: orderID}
	if req.PreferredSupplierID != nil {
		id, err := uuid.Parse(*req.PreferredSupplierID)
		if err != nil {
			h.BadRequest(c, "Invalid preferred supplier ID")
			return
		}
		appReq.PreferredSupplierID = &id
	}
	appReq.MaxLeadTimeDays = req.MaxLeadTimeDays
	if req.MaxUnitCost != nil {
		cost := decimal.NewFromFloat(*req.MaxUnitCost)
		appReq.MaxUnitCost = &cost
	}

	result, err := h.routingService.RouteOrder(c.Request.Context(), appReq)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
