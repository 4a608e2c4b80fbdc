package fulfillment

import (
	"time"

	"github.com/giftbridge/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// KittingItem is one entry of the pack/assembly checklist attached to a
// production order. The checklist gates "ready to ship": every item must be
// scanned before the orchestrator reports the parent order shippable.
// Kitting has no top-level states of its own.
type KittingItem struct {
	ID                uuid.UUID  `gorm:"type:uuid;primary_key"`
	ProductionOrderID uuid.UUID  `gorm:"type:uuid;not null;index"`
	Description       string     `gorm:"type:varchar(200);not null"`
	Barcode           string     `gorm:"type:varchar(100)"`
	Scanned           bool       `gorm:"not null;default:false"`
	ScannedBy         string     `gorm:"type:varchar(100)"`
	ScannedAt         *time.Time
	CreatedAt         time.Time  `gorm:"not null"`
	UpdatedAt         time.Time  `gorm:"not null"`
}

// TableName returns the table name for GORM
func (KittingItem) TableName() string {
	return "kitting_items"
}

// AddKittingItem attaches a checklist entry to the order.
// Only QC_PASSED and COMPLETED orders carry kitting checklists.
func (p *ProductionOrder) AddKittingItem(description, barcode string) (*KittingItem, error) {
	if p.Status != ProductionOrderStatusQCPassed && p.Status != ProductionOrderStatusCompleted {
		return nil, shared.NewDomainError("INVALID_STATE", "Kitting checklist applies only to QC-passed orders")
	}
	if description == "" || len(description) > 200 {
		return nil, shared.NewDomainError("INVALID_DESCRIPTION", "Kitting item description must be 1-200 characters")
	}

	now := time.Now()
	item := KittingItem{
		ID:                uuid.New(),
		ProductionOrderID: p.ID,
		Description:       description,
		Barcode:           barcode,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	p.KittingItems = append(p.KittingItems, item)
	p.UpdatedAt = now
	p.IncrementVersion()
	return &p.KittingItems[len(p.KittingItems)-1], nil
}

// ScanKittingItem confirms one checklist entry
func (p *ProductionOrder) ScanKittingItem(itemID uuid.UUID, operator string) error {
	for idx := range p.KittingItems {
		if p.KittingItems[idx].ID != itemID {
			continue
		}
		if p.KittingItems[idx].Scanned {
			return shared.NewDomainError("ALREADY_SCANNED", "Kitting item is already scanned")
		}
		now := time.Now()
		p.KittingItems[idx].Scanned = true
		p.KittingItems[idx].ScannedBy = operator
		p.KittingItems[idx].ScannedAt = &now
		p.KittingItems[idx].UpdatedAt = now
		p.UpdatedAt = now
		p.IncrementVersion()
		return nil
	}
	return shared.ErrNotFound
}

// KittingComplete returns true when every checklist entry is scanned.
// An order without a checklist is trivially complete.
func (p *ProductionOrder) KittingComplete() bool {
	for _, item := range p.KittingItems {
		if !item.Scanned {
			return false
		}
	}
	return true
}
