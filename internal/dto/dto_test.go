package dto

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckoutRequestFieldErrors(t *testing.T) {
	valid := CheckoutRequest{
		Phone:            "+421 900 123 456",
		BillingPostcode:  "81101",
		ShippingPostcode: "SW1A 1AA",
	}
	assert.Empty(t, valid.FieldErrors())

	invalid := CheckoutRequest{
		Phone:            "call me maybe",
		BillingPostcode:  "!",
		ShippingPostcode: "81101",
	}
	errs := invalid.FieldErrors()
	assert.Contains(t, errs, "phone")
	assert.Contains(t, errs, "billing_postcode")
	assert.NotContains(t, errs, "shipping_postcode")
}
