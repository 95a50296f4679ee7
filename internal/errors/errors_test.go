package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppErrorWrapsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewNetworkError("failed to download registry file", cause).
		WithContext("url", "https://example.test/cadop.csv")

	assert.Equal(t, "[NETWORK] failed to download registry file: connection refused", err.Error())
	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, "https://example.test/cadop.csv", err.Context["url"])

	var appErr *AppError
	require.True(t, errors.As(fmt.Errorf("step failed: %w", err), &appErr))
	assert.Equal(t, ErrTypeNetwork, appErr.Type)
}

func TestAppErrorWithoutCause(t *testing.T) {
	err := NewParsingError("registry has no CNPJ column", nil)

	assert.Equal(t, "[PARSING] registry has no CNPJ column", err.Error())
	assert.Nil(t, errors.Unwrap(err))
}

func TestErrValidationCarriesFieldDetails(t *testing.T) {
	err := ErrValidation("page", "page must be an integer")

	assert.Equal(t, http.StatusBadRequest, err.StatusCode)
	assert.Equal(t, "VALIDATION_FAILED", err.ErrorCode)

	details, ok := err.Details.(ValidationError)
	require.True(t, ok)
	assert.Equal(t, "page", details.Field)
}

func TestInternalErrorExposesOnlyMessage(t *testing.T) {
	err := InternalError(errors.New("disk full"))

	assert.Equal(t, http.StatusInternalServerError, err.StatusCode)
	assert.Equal(t, "Internal server error", err.Message)
	assert.Equal(t, "disk full", err.Details)
}
