package supply

import "gorm.io/gorm"

// TransactionManager runs a function inside one database transaction.
// Webhook ingestion needs it: the idempotency record and the snapshot
// delta commit together or not at all. Satisfied by persistence.Database.
type TransactionManager interface {
	Transaction(fn func(tx *gorm.DB) error) error
}
