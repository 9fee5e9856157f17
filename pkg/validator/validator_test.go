package validator

import (
	"errors"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type poolSettings struct {
	Schema   string `validate:"required"`
	MaxConns int    `validate:"gte=1,lte=100"`
}

func TestValidateStruct(t *testing.T) {
	v := NewValidator()
	assert.Same(t, v, NewValidator())

	assert.Empty(t, v.ValidateStruct(poolSettings{Schema: "public", MaxConns: 10}))

	errs := v.ValidateStruct(poolSettings{MaxConns: 1000})
	require.Len(t, errs, 2)
	assert.Equal(t, "poolSettings.Schema", errs[0].FailedField)
	assert.Equal(t, "required", errs[0].Tag)
	assert.Equal(t, "poolSettings.MaxConns", errs[1].FailedField)
	assert.Equal(t, "lte", errs[1].Tag)
	assert.Equal(t, "100", errs[1].Value)
}

func TestValidate(t *testing.T) {
	v := NewValidator()

	require.NoError(t, v.Validate(poolSettings{Schema: "public", MaxConns: 1}))

	err := v.Validate(&poolSettings{MaxConns: 1})
	var validationErr *ValidationError
	require.True(t, errors.As(err, &validationErr))
	require.Len(t, validationErr.Errors, 1)

	var decoded map[string][]map[string]string
	require.NoError(t, json.Unmarshal([]byte(err.Error()), &decoded))
	assert.Equal(t, "poolSettings.Schema", decoded["errors"][0]["failedField"])

	err = v.Validate("not a struct")
	require.Error(t, err)
	assert.False(t, errors.As(err, &validationErr))
}
