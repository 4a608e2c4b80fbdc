package adapters

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/giftbridge/backend/internal/domain/shared"
	"github.com/giftbridge/backend/internal/domain/supply"
)

const (
	// StandardJSONAdapterCode is the adapter code suppliers reference to use
	// the platform's standard JSON integration contract
	StandardJSONAdapterCode = "standard-json"

	inventoryPath = "/v1/inventory/%s"
	catalogPath   = "/v1/catalog"
)

// StandardJSONAdapter speaks the platform's standard supplier integration:
// JSON over HTTPS for inventory/catalog pulls and HMAC-SHA256 signed
// webhook pushes. Most onboarded suppliers implement this contract; exotic
// suppliers get their own adapter implementation behind the same interface.
type StandardJSONAdapter struct {
	httpClient *http.Client
	logger     *zap.Logger
	maxRetries int
	baseDelay  time.Duration
}

// StandardJSONAdapterOptions tunes retry behavior
type StandardJSONAdapterOptions struct {
	Timeout    time.Duration
	MaxRetries int
	BaseDelay  time.Duration
}

// NewStandardJSONAdapter creates the adapter with bounded retry settings
func NewStandardJSONAdapter(logger *zap.Logger, opts StandardJSONAdapterOptions) *StandardJSONAdapter {
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.MaxRetries == 0 {
		opts.MaxRetries = 3
	}
	if opts.BaseDelay == 0 {
		opts.BaseDelay = 500 * time.Millisecond
	}
	return &StandardJSONAdapter{
		httpClient: &http.Client{Timeout: opts.Timeout},
		logger:     logger,
		maxRetries: opts.MaxRetries,
		baseDelay:  opts.BaseDelay,
	}
}

// Code returns the adapter code
func (a *StandardJSONAdapter) Code() string {
	return StandardJSONAdapterCode
}

// standardCatalogItem is the wire shape of one SKU in the standard contract
type standardCatalogItem struct {
	SKU            string          `json:"sku"`
	QuantityOnHand decimal.Decimal `json:"quantity_on_hand"`
	UnitCost       decimal.Decimal `json:"unit_cost"`
	LeadTimeDays   int             `json:"lead_time_days"`
}

func (i standardCatalogItem) toDomain() supply.CatalogItem {
	return supply.CatalogItem{
		SKU:            i.SKU,
		QuantityOnHand: i.QuantityOnHand,
		UnitCost:       i.UnitCost,
		LeadTimeDays:   i.LeadTimeDays,
	}
}

// FetchInventory returns the supplier's current record for one SKU
func (a *StandardJSONAdapter) FetchInventory(ctx context.Context, supplier *supply.Supplier, sku string) (*supply.CatalogItem, error) {
	body, err := a.get(ctx, supplier, fmt.Sprintf(inventoryPath, sku))
	if err != nil {
		return nil, err
	}
	var item standardCatalogItem
	if err := json.Unmarshal(body, &item); err != nil {
		return nil, fmt.Errorf("supplier %s: malformed inventory response: %w", supplier.Code, err)
	}
	result := item.toDomain()
	return &result, nil
}

// FetchCatalog returns the supplier's full inventory/pricing catalog
func (a *StandardJSONAdapter) FetchCatalog(ctx context.Context, supplier *supply.Supplier) ([]supply.CatalogItem, error) {
	body, err := a.get(ctx, supplier, catalogPath)
	if err != nil {
		return nil, err
	}
	var items []standardCatalogItem
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, fmt.Errorf("supplier %s: malformed catalog response: %w", supplier.Code, err)
	}
	catalog := make([]supply.CatalogItem, 0, len(items))
	for _, item := range items {
		catalog = append(catalog, item.toDomain())
	}
	return catalog, nil
}

// VerifyWebhookSignature checks the payload's HMAC-SHA256 signature against
// the supplier's shared secret. The signature header carries the hex digest,
// optionally prefixed with "sha256=".
func (a *StandardJSONAdapter) VerifyWebhookSignature(supplier *supply.Supplier, payload []byte, signature string) error {
	if supplier.WebhookSecret == "" {
		return shared.ErrWebhookSignatureInvalid
	}
	signature = strings.TrimPrefix(signature, "sha256=")
	provided, err := hex.DecodeString(signature)
	if err != nil {
		return shared.ErrWebhookSignatureInvalid
	}

	mac := hmac.New(sha256.New, []byte(supplier.WebhookSecret))
	mac.Write(payload)
	if !hmac.Equal(provided, mac.Sum(nil)) {
		return shared.ErrWebhookSignatureInvalid
	}
	return nil
}

// standardWebhookPayload is the wire shape of a standard-contract webhook
type standardWebhookPayload struct {
	EventID    string    `json:"event_id"`
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	Data       struct {
		SKU           string           `json:"sku"`
		QuantityDelta *decimal.Decimal `json:"quantity_delta,omitempty"`
		UnitCost      *decimal.Decimal `json:"unit_cost,omitempty"`
		LeadTimeDays  *int             `json:"lead_time_days,omitempty"`
	} `json:"data"`
}

// ParseWebhookEvent parses a verified payload into a normalized event.
// Unrecognized event types yield a WebhookEventUnknown event, not an error,
// so new supplier-side event types degrade to a logged no-op.
func (a *StandardJSONAdapter) ParseWebhookEvent(payload []byte) (*supply.WebhookEvent, error) {
	var wire standardWebhookPayload
	if err := json.Unmarshal(payload, &wire); err != nil {
		return nil, fmt.Errorf("malformed webhook payload: %w", err)
	}
	if wire.EventID == "" {
		return nil, fmt.Errorf("webhook payload missing event_id")
	}

	event := &supply.WebhookEvent{
		EventID:    wire.EventID,
		OccurredAt: wire.OccurredAt,
		Kind:       supply.WebhookEventUnknown,
	}

	switch wire.Type {
	case "inventory.delta":
		if wire.Data.SKU == "" || wire.Data.QuantityDelta == nil {
			return nil, fmt.Errorf("inventory.delta payload missing sku or quantity_delta")
		}
		event.Kind = supply.WebhookEventInventoryDelta
		event.InventoryDelta = &supply.InventoryDelta{
			SKU:           wire.Data.SKU,
			QuantityDelta: *wire.Data.QuantityDelta,
		}
	case "pricing.delta":
		if wire.Data.SKU == "" || wire.Data.UnitCost == nil {
			return nil, fmt.Errorf("pricing.delta payload missing sku or unit_cost")
		}
		leadTime := 0
		if wire.Data.LeadTimeDays != nil {
			leadTime = *wire.Data.LeadTimeDays
		}
		event.Kind = supply.WebhookEventPricingDelta
		event.PricingDelta = &supply.PricingDelta{
			SKU:          wire.Data.SKU,
			UnitCost:     *wire.Data.UnitCost,
			LeadTimeDays: leadTime,
		}
	}

	return event, nil
}

// get performs a GET against the supplier API with bounded retry and
// exponential backoff. Retries cover network failures and 5xx responses;
// 4xx responses fail immediately since retrying cannot fix them.
func (a *StandardJSONAdapter) get(ctx context.Context, supplier *supply.Supplier, path string) ([]byte, error) {
	if supplier.APIBaseURL == "" {
		return nil, shared.NewDomainError("SUPPLIER_NOT_CONFIGURED", "Supplier has no API base URL configured")
	}
	url := supplier.APIBaseURL + path

	var lastErr error
	for attempt := 0; attempt <= a.maxRetries; attempt++ {
		if attempt > 0 {
			delay := a.baseDelay << (attempt - 1)
			a.logger.Warn("retrying supplier request",
				zap.String("supplier", supplier.Code),
				zap.String("url", url),
				zap.Int("attempt", attempt),
				zap.Duration("delay", delay),
				zap.Error(lastErr))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		body, retryable, err := a.doGet(ctx, url)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !retryable {
			return nil, err
		}
	}

	a.logger.Error("supplier request failed after retries",
		zap.String("supplier", supplier.Code),
		zap.String("url", url),
		zap.Int("max_retries", a.maxRetries),
		zap.Error(lastErr))
	return nil, fmt.Errorf("%w: %v", shared.ErrUpstreamSupplier, lastErr)
}

func (a *StandardJSONAdapter) doGet(ctx context.Context, url string) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, true, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, err
	}
	if resp.StatusCode >= 500 {
		return nil, true, fmt.Errorf("supplier returned HTTP %d", resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		return nil, false, fmt.Errorf("supplier returned HTTP %d", resp.StatusCode)
	}
	return body, false, nil
}

// Ensure StandardJSONAdapter implements the supplier adapter contract
var _ supply.Adapter = (*StandardJSONAdapter)(nil)
