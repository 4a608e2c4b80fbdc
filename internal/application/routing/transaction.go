package routing

import "gorm.io/gorm"

// TransactionManager runs a function inside one database transaction.
// Routing an order mutates lines and creates production orders as one
// atomic unit. Satisfied by persistence.Database.
type TransactionManager interface {
	Transaction(fn func(tx *gorm.DB) error) error
}
