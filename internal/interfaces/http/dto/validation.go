package dto

import (
	"regexp"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// skuPattern matches the platform SKU format: uppercase alphanumeric
// segments separated by dashes, as issued by the catalog service
var skuPattern = regexp.MustCompile(`^[A-Z0-9]+(-[A-Z0-9]+)*$`)

// supplierCodePattern matches supplier codes: letters, digits, dashes
// and underscores, case-insensitive (codes are uppercased on save)
var supplierCodePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]*$`)

// RegisterValidations installs custom binding validators on gin's
// validator engine. Call once at startup.
func RegisterValidations() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	if err := v.RegisterValidation("sku", func(fl validator.FieldLevel) bool {
		return skuPattern.MatchString(fl.Field().String())
	}); err != nil {
		return err
	}
	return v.RegisterValidation("suppliercode", func(fl validator.FieldLevel) bool {
		return supplierCodePattern.MatchString(fl.Field().String())
	})
}
