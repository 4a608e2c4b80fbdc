package settlement

import "gorm.io/gorm"

// TransactionManager runs a function inside one database transaction.
// The payout workflow depends on this: the balance re-check, the hold
// entry and the status flips must commit or roll back together.
// Satisfied by persistence.Database.
type TransactionManager interface {
	Transaction(fn func(tx *gorm.DB) error) error
}
