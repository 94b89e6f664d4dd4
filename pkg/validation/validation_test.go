package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Rating *int   `validate:"omitempty,gte=1,lte=5"`
	Name   string `validate:"required,max=5"`
}

func TestStruct(t *testing.T) {
	bad := 9

	err := Struct(sample{Rating: &bad})
	require.Error(t, err)

	var errs Errors
	require.ErrorAs(t, err, &errs)
	assert.Len(t, errs, 2)
	assert.Contains(t, err.Error(), "Rating: must be less than or equal to 5")
	assert.Contains(t, err.Error(), "Name: is required")

	assert.NoError(t, Struct(sample{Name: "ok"}))
}
