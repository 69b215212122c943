package validation

import (
	validatorv10 "github.com/go-playground/validator/v10"
)

// New returns a configured validator with custom struct-level validation
// registered.
func New() *validatorv10.Validate {
	v := validatorv10.New()

	// A product cannot be listed as available with nothing in stock.
	v.RegisterStructValidation(publishProductStructValidation, PublishProductRequest{})

	return v
}

func publishProductStructValidation(sl validatorv10.StructLevel) {
	req := sl.Current().Interface().(PublishProductRequest)

	if req.Available && req.Stock == 0 {
		sl.ReportError(req.Available, "available", "Available", "available_requires_stock", "")
	}
}
