package supply

import (
	"strings"
	"time"

	"github.com/giftbridge/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// SupplierStatus represents the status of a supplier
type SupplierStatus string

const (
	SupplierStatusActive   SupplierStatus = "active"
	SupplierStatusInactive SupplierStatus = "inactive"
	SupplierStatusBlocked  SupplierStatus = "blocked" // Blocked due to quality/payment disputes
)

// Supplier represents an external print/fulfillment supplier
// It is the aggregate root for supplier-related operations
type Supplier struct {
	shared.BaseAggregateRoot
	Code          string          `gorm:"type:varchar(50);not null;uniqueIndex:idx_supplier_code"`
	Name          string          `gorm:"type:varchar(200);not null"`
	Status        SupplierStatus  `gorm:"type:varchar(20);not null;default:'active'"`
	AdapterCode   string          `gorm:"type:varchar(50);not null"` // Which adapter implementation serves this supplier
	APIBaseURL    string          `gorm:"type:varchar(500)"`         // Supplier API endpoint consumed by the adapter
	WebhookSecret string          `gorm:"type:varchar(200)"`         // Shared secret for webhook signature verification
	ContactName   string          `gorm:"type:varchar(100)"`
	ContactEmail  string          `gorm:"type:varchar(200);index"`
	// Reliability is derived from historical on-time completion rate and QC pass
	// rate, in [0,1]. Fed by the fulfillment side; routing reads it as-is.
	OnTimeRate    decimal.Decimal `gorm:"type:decimal(6,4);not null;default:1"`
	QCPassRate    decimal.Decimal `gorm:"type:decimal(6,4);not null;default:1"`
	Notes         string          `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (Supplier) TableName() string {
	return "suppliers"
}

// NewSupplier creates a new supplier with required fields
func NewSupplier(code, name, adapterCode string) (*Supplier, error) {
	if err := validateSupplierCode(code); err != nil {
		return nil, err
	}
	if name == "" || len(name) > 200 {
		return nil, shared.NewDomainError("INVALID_SUPPLIER_NAME", "Supplier name must be 1-200 characters")
	}
	if adapterCode == "" {
		return nil, shared.NewDomainError("INVALID_ADAPTER_CODE", "Adapter code cannot be empty")
	}

	supplier := &Supplier{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Code:              strings.ToUpper(code),
		Name:              name,
		Status:            SupplierStatusActive,
		AdapterCode:       adapterCode,
		OnTimeRate:        decimal.NewFromInt(1),
		QCPassRate:        decimal.NewFromInt(1),
	}

	supplier.AddDomainEvent(NewSupplierCreatedEvent(supplier))

	return supplier, nil
}

// IsActive returns true if the supplier can receive new production orders
func (s *Supplier) IsActive() bool {
	return s.Status == SupplierStatusActive
}

// Activate marks the supplier active
func (s *Supplier) Activate() {
	s.Status = SupplierStatusActive
	s.UpdatedAt = time.Now()
	s.IncrementVersion()
}

// Deactivate marks the supplier inactive; routing skips inactive suppliers
func (s *Supplier) Deactivate() {
	s.Status = SupplierStatusInactive
	s.UpdatedAt = time.Now()
	s.IncrementVersion()
}

// Block marks the supplier blocked due to a dispute
func (s *Supplier) Block(reason string) {
	s.Status = SupplierStatusBlocked
	if reason != "" {
		s.Notes = reason
	}
	s.UpdatedAt = time.Now()
	s.IncrementVersion()
}

// SetAPIBaseURL points the supplier's adapter at its API endpoint
func (s *Supplier) SetAPIBaseURL(baseURL string) error {
	if baseURL != "" && !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		return shared.NewDomainError("INVALID_BASE_URL", "API base URL must be an http(s) URL")
	}
	s.APIBaseURL = strings.TrimRight(baseURL, "/")
	s.UpdatedAt = time.Now()
	s.IncrementVersion()
	return nil
}

// SetWebhookSecret rotates the shared webhook signing secret
func (s *Supplier) SetWebhookSecret(secret string) error {
	if len(secret) < 16 {
		return shared.NewDomainError("INVALID_WEBHOOK_SECRET", "Webhook secret must be at least 16 characters")
	}
	s.WebhookSecret = secret
	s.UpdatedAt = time.Now()
	s.IncrementVersion()
	return nil
}

// SetContact sets the supplier's contact information
func (s *Supplier) SetContact(contactName, email string) error {
	if contactName != "" && len(contactName) > 100 {
		return shared.NewDomainError("INVALID_CONTACT_NAME", "Contact name cannot exceed 100 characters")
	}
	if email != "" && (len(email) > 200 || !strings.Contains(email, "@")) {
		return shared.NewDomainError("INVALID_EMAIL", "Invalid email address")
	}
	s.ContactName = contactName
	s.ContactEmail = email
	s.UpdatedAt = time.Now()
	s.IncrementVersion()
	return nil
}

// RecordPerformance updates the reliability inputs from fulfillment history
func (s *Supplier) RecordPerformance(onTimeRate, qcPassRate decimal.Decimal) error {
	one := decimal.NewFromInt(1)
	if onTimeRate.IsNegative() || onTimeRate.GreaterThan(one) {
		return shared.NewDomainError("INVALID_RATE", "On-time rate must be between 0 and 1")
	}
	if qcPassRate.IsNegative() || qcPassRate.GreaterThan(one) {
		return shared.NewDomainError("INVALID_RATE", "QC pass rate must be between 0 and 1")
	}
	s.OnTimeRate = onTimeRate
	s.QCPassRate = qcPassRate
	s.UpdatedAt = time.Now()
	s.IncrementVersion()
	return nil
}

// ReliabilityScore combines on-time and QC pass rates into a single [0,1] score
func (s *Supplier) ReliabilityScore() decimal.Decimal {
	return s.OnTimeRate.Add(s.QCPassRate).Div(decimal.NewFromInt(2))
}

func validateSupplierCode(code string) error {
	if code == "" {
		return shared.NewDomainError("INVALID_SUPPLIER_CODE", "Supplier code cannot be empty")
	}
	if len(code) > 50 {
		return shared.NewDomainError("INVALID_SUPPLIER_CODE", "Supplier code cannot exceed 50 characters")
	}
	for _, r := range code {
		if !((r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_') {
			return shared.NewDomainError("INVALID_SUPPLIER_CODE", "Supplier code may only contain letters, digits, '-' and '_'")
		}
	}
	return nil
}
