package validator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name     *string `json:"name" validate:"required,min=1,max=5"`
	Quantity *int64  `json:"quantity" validate:"required,gte=0"`
	Email    string  `json:"email" validate:"omitempty,email"`
}

func strPtr(s string) *string { return &s }
func intPtr(i int64) *int64   { return &i }

func TestValidateStruct_OK(t *testing.T) {
	err := ValidateStruct(&sample{Name: strPtr("abc"), Quantity: intPtr(0)})
	assert.NoError(t, err)
}

func TestValidateStruct_ReportsJSONFieldNames(t *testing.T) {
	err := ValidateStruct(&sample{Quantity: intPtr(-1), Email: "nope"})
	require.Error(t, err)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, []string{"This field is required."}, verr.Fields["name"])
	assert.Equal(t, []string{"Ensure this value is greater than or equal to 0."}, verr.Fields["quantity"])
	assert.Equal(t, []string{"Enter a valid email address."}, verr.Fields["email"])
}

func TestValidateStruct_StringLength(t *testing.T) {
	err := ValidateStruct(&sample{Name: strPtr(""), Quantity: intPtr(1)})
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, []string{"This field may not be blank."}, verr.Fields["name"])

	err = ValidateStruct(&sample{Name: strPtr("toolong"), Quantity: intPtr(1)})
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, []string{"Ensure this field has no more than 5 characters."}, verr.Fields["name"])
}

func TestValidatePartial_OnlyNamedFields(t *testing.T) {
	// Name is missing but only Quantity is checked
	err := ValidatePartial(&sample{Quantity: intPtr(3)}, "Quantity")
	assert.NoError(t, err)

	err = ValidatePartial(&sample{Quantity: intPtr(-3)}, "Quantity")
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "quantity")
	assert.NotContains(t, verr.Fields, "name")

	assert.NoError(t, ValidatePartial(&sample{}))
}

func TestValidationError_AddAndError(t *testing.T) {
	verr := NewValidationError("price", "Ensure that there are no more than 2 decimal places.")
	verr.Add("price", "second")
	assert.False(t, verr.Empty())
	assert.Len(t, verr.Fields["price"], 2)
	assert.Contains(t, verr.Error(), "price:")

	var empty *ValidationError
	assert.True(t, empty.Empty())
}
