package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type registerPayload struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role" validate:"omitempty,oneof=ADMIN CLIENT"`
}

func TestValidate_Valid(t *testing.T) {
	err := Validate(registerPayload{
		Email:    "staff@example.com",
		Password: "s3cret-pass",
		Role:     "ADMIN",
	})
	assert.NoError(t, err)
}

func TestValidate_MissingRequired(t *testing.T) {
	err := Validate(registerPayload{})
	require.Error(t, err)

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)

	fields := valErr.Fields()
	assert.Equal(t, "is required", fields["Email"])
	assert.Equal(t, "is required", fields["Password"])
}

func TestValidate_TagMessages(t *testing.T) {
	err := Validate(registerPayload{
		Email:    "not-an-email",
		Password: "short",
		Role:     "SUPERUSER",
	})
	require.Error(t, err)

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)

	fields := valErr.Fields()
	assert.Equal(t, "must be a valid email address", fields["Email"])
	assert.Equal(t, "must be at least 8 characters", fields["Password"])
	assert.Contains(t, fields["Role"], "must be one of")
}

func TestValidate_UUIDAndQuantityTags(t *testing.T) {
	type item struct {
		ProductID string `validate:"required,uuid4"`
		Quantity  int    `validate:"required,gt=0"`
	}
	err := Validate(item{ProductID: "not-a-uuid", Quantity: -1})
	require.Error(t, err)

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)

	fields := valErr.Fields()
	assert.Equal(t, "must be a valid UUID", fields["ProductID"])
	assert.Equal(t, "must be greater than 0", fields["Quantity"])
}

func TestValidationError_Message(t *testing.T) {
	err := Validate(registerPayload{Password: "s3cret-pass"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "field 'Email' is required")
}
