package supply

import (
	"context"
	"time"

	"github.com/giftbridge/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// WebhookEventKind classifies a parsed supplier webhook payload
type WebhookEventKind string

const (
	WebhookEventInventoryDelta WebhookEventKind = "INVENTORY_DELTA"
	WebhookEventPricingDelta   WebhookEventKind = "PRICING_DELTA"
	WebhookEventUnknown        WebhookEventKind = "UNKNOWN"
)

// CatalogItem is one SKU as reported by a supplier's catalog/inventory API
type CatalogItem struct {
	SKU          string
	QuantityOnHand decimal.Decimal
	UnitCost     decimal.Decimal
	LeadTimeDays int
}

// InventoryDelta is a signed quantity adjustment pushed by a supplier
type InventoryDelta struct {
	SKU           string
	QuantityDelta decimal.Decimal
}

// PricingDelta is a unit cost / lead time update pushed by a supplier
type PricingDelta struct {
	SKU          string
	UnitCost     decimal.Decimal
	LeadTimeDays int
}

// WebhookEvent is the normalized form of a supplier webhook payload.
// Exactly one of InventoryDelta/PricingDelta is set for the matching kind.
type WebhookEvent struct {
	EventID        string
	Kind           WebhookEventKind
	OccurredAt     time.Time
	InventoryDelta *InventoryDelta
	PricingDelta   *PricingDelta
}

// Adapter normalizes one external supplier's API and webhook payloads into
// the common shape consumed by the inventory cache and routing engine.
// Implementations live in infrastructure; this contract is all the domain sees.
type Adapter interface {
	// Code identifies the adapter implementation (suppliers reference it)
	Code() string

	// FetchInventory returns the supplier's current record for one SKU
	FetchInventory(ctx context.Context, supplier *Supplier, sku string) (*CatalogItem, error)

	// FetchCatalog returns the supplier's full inventory/pricing catalog
	FetchCatalog(ctx context.Context, supplier *Supplier) ([]CatalogItem, error)

	// VerifyWebhookSignature checks the payload against the supplier's secret.
	// Returns ErrWebhookSignatureInvalid on mismatch.
	VerifyWebhookSignature(supplier *Supplier, payload []byte, signature string) error

	// ParseWebhookEvent parses a verified payload into a normalized event.
	// Unparseable payloads yield a WebhookEventUnknown event, not an error.
	ParseWebhookEvent(payload []byte) (*WebhookEvent, error)
}

// AdapterRegistry maps adapter codes to implementations. It is built once at
// process start and injected explicitly; there is no global accessor.
type AdapterRegistry struct {
	adapters map[string]Adapter
}

// NewAdapterRegistry creates a registry from the given adapters
func NewAdapterRegistry(adapters ...Adapter) *AdapterRegistry {
	m := make(map[string]Adapter, len(adapters))
	for _, a := range adapters {
		m[a.Code()] = a
	}
	return &AdapterRegistry{adapters: m}
}

// Resolve returns the adapter for the given code
func (r *AdapterRegistry) Resolve(code string) (Adapter, error) {
	a, ok := r.adapters[code]
	if !ok {
		return nil, shared.NewDomainError("ADAPTER_NOT_REGISTERED", "No adapter registered for code "+code)
	}
	return a, nil
}

// Codes returns the registered adapter codes
func (r *AdapterRegistry) Codes() []string {
	codes := make([]string, 0, len(r.adapters))
	for code := range r.adapters {
		codes = append(codes, code)
	}
	return codes
}
