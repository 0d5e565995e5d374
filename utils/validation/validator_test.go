package validation

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type couponInput struct {
	Code     string          `validate:"required,max=32,coupon_code"`
	Percent  int             `validate:"gte=0,lte=100"`
	MinPrice decimal.Decimal `validate:"gte=0"`
}

func TestValidateStruct(t *testing.T) {
	v := NewValidator()

	assert.NoError(t, v.ValidateStruct(couponInput{Code: "SPRING-25", Percent: 25, MinPrice: decimal.NewFromInt(10)}))

	err := v.ValidateStruct(couponInput{Code: "no spaces!", Percent: 120, MinPrice: decimal.NewFromInt(-1)})
	require.Error(t, err)

	msgs := FormatValidationErrors(err)
	assert.Equal(t, "Code may only contain letters, numbers, underscores, and hyphens", msgs["code"])
	assert.Equal(t, "Percent must be less than or equal to 100", msgs["percent"])
	assert.Equal(t, "MinPrice must be greater than or equal to 0", msgs["minprice"])
}

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "SAVE10", SanitizeString("  SAVE\x0010 \n"))
}
