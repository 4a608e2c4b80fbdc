package handler

import (
	appfulfillment "github.com/giftbridge/backend/internal/application/fulfillment"
	"github.com/giftbridge/backend/internal/domain/shared"
	"github.com/giftbridge/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// OrderHandler handles customer order API endpoints
type OrderHandler struct {
	BaseHandler
	orderService *appfulfillment.OrderService
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(orderService *appfulfillment.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

// OrderLineRequest is one SKU line of an incoming order
type OrderLineRequest struct {
	SKU       string  `json:"sku" binding:"required,max=100,sku"`
	Quantity  float64 `json:"quantity" binding:"required,gt=0"`
	UnitPrice float64 `json:"unit_price" binding:"required,gte=0"`
}

// CreateOrderRequest registers a customer order for routing
type CreateOrderRequest struct {
	OrderNumber string             `json:"order_number" binding:"required,max=50"`
	CustomerRef string             `json:"customer_ref" binding:"required,max=100"`
	Lines       []OrderLineRequest `json:"lines" binding:"required,min=1,dive"`
}

// CancelOrderRequest cancels a customer order
type CancelOrderRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

// Create registers a new customer order
func (h *OrderHandler) Create(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	appReq := appfulfillment.CreateOrderRequest{
		OrderNumber: req.OrderNumber,
		CustomerRef: req.CustomerRef,
		Lines:       make([]appfulfillment.OrderLineInput, 0, len(req.Lines)),
	}
	for _, line := range req.Lines {
		appReq.Lines = append(appReq.Lines, appfulfillment.OrderLineInput{
			SKU:       line.SKU,
			Quantity:  decimal.NewFromFloat(line.Quantity),
			UnitPrice: decimal.NewFromFloat(line.UnitPrice),
		})
	}

	order, err := h.orderService.CreateOrder(c.Request.Context(), appReq)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, order)
}

// Get returns an order with its production orders and shippable state
func (h *OrderHandler) Get(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	view, err := h.orderService.GetOrder(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, view)
}

// List returns customer orders, paginated
func (h *OrderHandler) List(c *gin.Context) {
	var req dto.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.ValidationError(c, err)
		return
	}
	req.Normalize()

	orders, err := h.orderService.ListOrders(c.Request.Context(), shared.Filter{
		Page:     req.Page,
		PageSize: req.PageSize,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, orders)
}

// Cancel cancels a customer order, cancelling or escalating its production
// orders per the cancellation policy
func (h *OrderHandler) Cancel(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	var req CancelOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	result, err := h.orderService.CancelOrder(c.Request.Context(), id, req.Reason, getOperatorID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
