package fulfillment

import "gorm.io/gorm"

// TransactionManager runs a function inside one database transaction.
// Completing a production order posts its SALE ledger entry in the same
// transaction as the status change. Satisfied by persistence.Database.
type TransactionManager interface {
	Transaction(fn func(tx *gorm.DB) error) error
}
