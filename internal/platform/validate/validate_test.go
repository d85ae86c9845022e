package validate

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name  string          `json:"name" validate:"required,max=5"`
	Price decimal.Decimal `json:"price" validate:"gte=0"`
	Lines []sampleLine    `json:"lines" validate:"min=1,dive"`
}

type sampleLine struct {
	Quantity int `json:"quantity" validate:"gt=0"`
}

func TestStructOK(t *testing.T) {
	err := Struct(sample{Name: "ok", Price: decimal.RequireFromString("1.50"), Lines: []sampleLine{{Quantity: 1}}})
	require.NoError(t, err)
}

func TestStructFieldErrors(t *testing.T) {
	err := Struct(sample{Name: "", Price: decimal.NewFromInt(-1), Lines: []sampleLine{{Quantity: 0}}})
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrInvalid))

	var fields FieldErrors
	require.True(t, errors.As(err, &fields))
	require.Equal(t, []string{"This field is required."}, fields["name"])
	require.Equal(t, []string{"Ensure this value is greater than or equal to 0."}, fields["price"])
	require.Equal(t, []string{"Ensure this value is greater than 0."}, fields["lines[0].quantity"])
}

func TestStructEmptyList(t *testing.T) {
	err := Struct(sample{Name: "a"})
	var fields FieldErrors
	require.True(t, errors.As(err, &fields))
	require.Equal(t, []string{"Ensure this field has at least 1 elements."}, fields["lines"])
}

func TestFieldErrorsMessageIsSorted(t *testing.T) {
	f := FieldErrors{}
	f.Add("b", "two")
	f.Add("a", "one")
	f.Add("a", "uno")
	require.Equal(t, "a: one, uno; b: two", f.Error())
}
