package validation

import (
	"testing"

	"github.com/creditpm/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleRequest struct {
	OrgNumber string `json:"organization_number" validate:"required"`
	Year      int    `json:"year" validate:"required"`
}

func TestStruct_Valid(t *testing.T) {
	err := Struct(sampleRequest{OrgNumber: "556123-4567", Year: 2023})
	assert.NoError(t, err)
}

func TestStruct_MissingField(t *testing.T) {
	err := Struct(sampleRequest{Year: 2023})
	require.Error(t, err)
	assert.True(t, shared.HasCode(err, shared.CodeValidation))
	assert.Contains(t, err.Error(), "organization_number")
}

func TestStruct_ZeroInt(t *testing.T) {
	err := Struct(sampleRequest{OrgNumber: "556123-4567"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "year")
}
