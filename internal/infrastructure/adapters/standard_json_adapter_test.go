package adapters

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/giftbridge/backend/internal/domain/shared"
	"github.com/giftbridge/backend/internal/domain/supply"
)

const testSecret = "0123456789abcdef0123"

func newTestAdapter(t *testing.T) *StandardJSONAdapter {
	t.Helper()
	return NewStandardJSONAdapter(zap.NewNop(), StandardJSONAdapterOptions{
		Timeout:    2 * time.Second,
		MaxRetries: 2,
		BaseDelay:  time.Millisecond,
	})
}

func newTestSupplier(t *testing.T, baseURL string) *supply.Supplier {
	t.Helper()
	supplier, err := supply.NewSupplier("printco", "PrintCo", StandardJSONAdapterCode)
	require.NoError(t, err)
	require.NoError(t, supplier.SetWebhookSecret(testSecret))
	if baseURL != "" {
		require.NoError(t, supplier.SetAPIBaseURL(baseURL))
	}
	return supplier
}

func signPayload(payload []byte) string {
	mac := hmac.New(sha256.New, []byte(testSecret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestStandardJSONAdapter_VerifyWebhookSignature(t *testing.T) {
	adapter := newTestAdapter(t)
	supplier := newTestSupplier(t, "")
	payload := []byte(`{"event_id":"evt-1"}`)

	t.Run("accepts a valid signature", func(t *testing.T) {
		assert.NoError(t, adapter.VerifyWebhookSignature(supplier, payload, signPayload(payload)))
	})

	t.Run("accepts the sha256= prefixed form", func(t *testing.T) {
		assert.NoError(t, adapter.VerifyWebhookSignature(supplier, payload, "sha256="+signPayload(payload)))
	})

	t.Run("rejects a tampered payload", func(t *testing.T) {
		err := adapter.VerifyWebhookSignature(supplier, []byte(`{"event_id":"evt-2"}`), signPayload(payload))

		assert.Equal(t, shared.ErrWebhookSignatureInvalid, err)
	})

	t.Run("rejects a non-hex signature", func(t *testing.T) {
		err := adapter.VerifyWebhookSignature(supplier, payload, "not-hex!!")

		assert.Equal(t, shared.ErrWebhookSignatureInvalid, err)
	})

	t.Run("rejects when the supplier has no secret", func(t *testing.T) {
		bare, err := supply.NewSupplier("nosecret", "NoSecret", StandardJSONAdapterCode)
		require.NoError(t, err)

		assert.Equal(t, shared.ErrWebhookSignatureInvalid,
			adapter.VerifyWebhookSignature(bare, payload, signPayload(payload)))
	})
}

func TestStandardJSONAdapter_ParseWebhookEvent(t *testing.T) {
	adapter := newTestAdapter(t)

	t.Run("parses inventory delta", func(t *testing.T) {
		payload := []byte(`{"event_id":"evt-1","type":"inventory.delta","occurred_at":"2026-08-28T10:00:00Z","data":{"sku":"MUG-01","quantity_delta":"-5"}}`)

		event, err := adapter.ParseWebhookEvent(payload)

		require.NoError(t, err)
		assert.Equal(t, "evt-1", event.EventID)
		assert.Equal(t, supply.WebhookEventInventoryDelta, event.Kind)
		require.NotNil(t, event.InventoryDelta)
		assert.Equal(t, "MUG-01", event.InventoryDelta.SKU)
		assert.Equal(t, "-5", event.InventoryDelta.QuantityDelta.String())
	})

	t.Run("parses pricing delta", func(t *testing.T) {
		payload := []byte(`{"event_id":"evt-2","type":"pricing.delta","data":{"sku":"MUG-01","unit_cost":"12.5","lead_time_days":7}}`)

		event, err := adapter.ParseWebhookEvent(payload)

		require.NoError(t, err)
		assert.Equal(t, supply.WebhookEventPricingDelta, event.Kind)
		require.NotNil(t, event.PricingDelta)
		assert.Equal(t, "12.5", event.PricingDelta.UnitCost.String())
		assert.Equal(t, 7, event.PricingDelta.LeadTimeDays)
	})

	t.Run("unknown type degrades to UNKNOWN", func(t *testing.T) {
		payload := []byte(`{"event_id":"evt-3","type":"catalog.published","data":{}}`)

		event, err := adapter.ParseWebhookEvent(payload)

		require.NoError(t, err)
		assert.Equal(t, supply.WebhookEventUnknown, event.Kind)
	})

	t.Run("missing event id is an error", func(t *testing.T) {
		_, err := adapter.ParseWebhookEvent([]byte(`{"type":"inventory.delta","data":{"sku":"M","quantity_delta":"1"}}`))

		assert.Error(t, err)
	})

	t.Run("malformed JSON is an error", func(t *testing.T) {
		_, err := adapter.ParseWebhookEvent([]byte(`{not json`))

		assert.Error(t, err)
	})

	t.Run("inventory delta without quantity is an error", func(t *testing.T) {
		_, err := adapter.ParseWebhookEvent([]byte(`{"event_id":"evt-4","type":"inventory.delta","data":{"sku":"MUG-01"}}`))

		assert.Error(t, err)
	})
}

func TestStandardJSONAdapter_FetchInventory(t *testing.T) {
	t.Run("fetches and decodes a snapshot", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v1/inventory/MUG-01", r.URL.Path)
			w.Write([]byte(`{"sku":"MUG-01","quantity_on_hand":"50","unit_cost":"10","lead_time_days":5}`))
		}))
		defer server.Close()

		adapter := newTestAdapter(t)
		item, err := adapter.FetchInventory(context.Background(), newTestSupplier(t, server.URL), "MUG-01")

		require.NoError(t, err)
		assert.Equal(t, "MUG-01", item.SKU)
		assert.Equal(t, "50", item.QuantityOnHand.String())
		assert.Equal(t, 5, item.LeadTimeDays)
	})

	t.Run("retries transient failures then succeeds", func(t *testing.T) {
		var calls int
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			if calls < 3 {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			w.Write([]byte(`{"sku":"MUG-01","quantity_on_hand":"50","unit_cost":"10","lead_time_days":5}`))
		}))
		defer server.Close()

		adapter := newTestAdapter(t)
		item, err := adapter.FetchInventory(context.Background(), newTestSupplier(t, server.URL), "MUG-01")

		require.NoError(t, err)
		assert.Equal(t, 3, calls)
		assert.Equal(t, "MUG-01", item.SKU)
	})

	t.Run("exhausted retries surface the upstream error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer server.Close()

		adapter := newTestAdapter(t)
		_, err := adapter.FetchInventory(context.Background(), newTestSupplier(t, server.URL), "MUG-01")

		require.Error(t, err)
		assert.True(t, errors.Is(err, shared.ErrUpstreamSupplier))
	})

	t.Run("4xx responses fail without retry", func(t *testing.T) {
		var calls int
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		adapter := newTestAdapter(t)
		_, err := adapter.FetchInventory(context.Background(), newTestSupplier(t, server.URL), "MUG-01")

		require.Error(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("unconfigured supplier fails fast", func(t *testing.T) {
		adapter := newTestAdapter(t)
		_, err := adapter.FetchInventory(context.Background(), newTestSupplier(t, ""), "MUG-01")

		assert.Error(t, err)
	})
}

func TestStandardJSONAdapter_FetchCatalog(t *testing.T) {
	t.Run("decodes the full catalog", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v1/catalog", r.URL.Path)
			w.Write([]byte(`[
				{"sku":"MUG-01","quantity_on_hand":"50","unit_cost":"10","lead_time_days":5},
				{"sku":"TOTE-02","quantity_on_hand":"200","unit_cost":"4.25","lead_time_days":3}
			]`))
		}))
		defer server.Close()

		adapter := newTestAdapter(t)
		catalog, err := adapter.FetchCatalog(context.Background(), newTestSupplier(t, server.URL))

		require.NoError(t, err)
		require.Len(t, catalog, 2)
		assert.Equal(t, "TOTE-02", catalog[1].SKU)
		assert.Equal(t, "4.25", catalog[1].UnitCost.String())
	})
}
