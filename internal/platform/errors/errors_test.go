package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationError(t *testing.T) {
	err := ValidationError("invalid input")

	assert.Equal(t, TypeValidation, err.Type)
	assert.Equal(t, "invalid input", err.Message)
	assert.Nil(t, err.Cause)
	assert.NotNil(t, err.Context)
	assert.Equal(t, http.StatusBadRequest, err.HTTPStatus())
	assert.Contains(t, err.Error(), "validation")
	assert.Contains(t, err.Error(), "invalid input")
}

func TestNotFoundError(t *testing.T) {
	err := NotFoundError("asset not found")

	assert.Equal(t, TypeNotFound, err.Type)
	assert.Equal(t, "asset not found", err.Message)
	assert.Nil(t, err.Cause)
	assert.NotNil(t, err.Context)
	assert.Equal(t, http.StatusNotFound, err.HTTPStatus())
	assert.Contains(t, err.Error(), "not_found")
	assert.Contains(t, err.Error(), "asset not found")
}

func TestConflictError(t *testing.T) {
	err := ConflictError("resource already exists")

	assert.Equal(t, TypeConflict, err.Type)
	assert.Equal(t, "resource already exists", err.Message)
	assert.Nil(t, err.Cause)
	assert.NotNil(t, err.Context)
	assert.Equal(t, http.StatusConflict, err.HTTPStatus())
	assert.Contains(t, err.Error(), "conflict")
	assert.Contains(t, err.Error(), "resource already exists")
}

func TestInternalError(t *testing.T) {
	cause := fmt.Errorf("database connection failed")
	err := InternalError("failed to save snapshot", cause)

	assert.Equal(t, TypeInternal, err.Type)
	assert.Equal(t, "failed to save snapshot", err.Message)
	assert.Equal(t, cause, err.Cause)
	assert.NotNil(t, err.Context)
	assert.Equal(t, http.StatusInternalServerError, err.HTTPStatus())
	assert.Contains(t, err.Error(), "internal")
	assert.Contains(t, err.Error(), "failed to save snapshot")
	assert.Contains(t, err.Error(), "database connection failed")
}

func TestInternalErrorWithoutCause(t *testing.T) {
	err := InternalError("something went wrong", nil)

	assert.Equal(t, TypeInternal, err.Type)
	assert.Nil(t, err.Cause)
	assert.NotContains(t, err.Error(), "<nil>")
}

func TestExternalError(t *testing.T) {
	cause := fmt.Errorf("feed api timeout")
	err := ExternalError("failed to call signal feed", cause)

	assert.Equal(t, TypeExternal, err.Type)
	assert.Equal(t, "failed to call signal feed", err.Message)
	assert.Equal(t, cause, err.Cause)
	assert.NotNil(t, err.Context)
	assert.Equal(t, http.StatusBadGateway, err.HTTPStatus())
	assert.Contains(t, err.Error(), "external")
	assert.Contains(t, err.Error(), "failed to call signal feed")
	assert.Contains(t, err.Error(), "feed api timeout")
}

func TestWithContext(t *testing.T) {
	err := ValidationError("invalid config")
	err = err.WithContext("field", "window_size")
	err = err.WithContext("value", "")

	assert.Len(t, err.Context, 2)
	assert.Equal(t, "window_size", err.Context["field"])
	assert.Equal(t, "", err.Context["value"])
}

func TestWithContextChaining(t *testing.T) {
	err := ValidationError("invalid input").
		WithContext("node_id", "node-a").
		WithContext("request_id", "req-456")

	assert.Len(t, err.Context, 2)
	assert.Equal(t, "node-a", err.Context["node_id"])
	assert.Equal(t, "req-456", err.Context["request_id"])
}

func TestWithField(t *testing.T) {
	err := NotFoundError("consensus not found").
		WithField("asset", "eth").
		WithField("epoch", "7")

	assert.Len(t, err.Context, 2)
	assert.Equal(t, "eth", err.Context["asset"])
	assert.Equal(t, "7", err.Context["epoch"])
}

func TestWithContextNilMap(t *testing.T) {
	// Create error and clear context to test nil handling
	err := &Error{
		Type:    TypeValidation,
		Message: "test",
		Context: nil,
	}

	err = err.WithContext("key", "value")

	assert.NotNil(t, err.Context)
	assert.Equal(t, "value", err.Context["key"])
}

func TestToResponse(t *testing.T) {
	err := ValidationError("invalid submission").
		WithContext("field", "score").
		WithContext("max_value", 100)

	resp := err.ToResponse()

	assert.Equal(t, "invalid submission", resp.Error)
	assert.Equal(t, TypeValidation, resp.Type)
	assert.Len(t, resp.Context, 2)
	assert.Equal(t, "score", resp.Context["field"])
	assert.Equal(t, 100, resp.Context["max_value"])
}

func TestToResponseEmptyContext(t *testing.T) {
	err := NotFoundError("asset not found")

	resp := err.ToResponse()

	assert.Equal(t, "asset not found", resp.Error)
	assert.Equal(t, TypeNotFound, resp.Type)
	assert.NotNil(t, resp.Context) // Should be empty map, not nil
	assert.Empty(t, resp.Context)
}

func TestUnwrap(t *testing.T) {
	cause := fmt.Errorf("root cause")
	err := InternalError("wrapped", cause)

	unwrapped := errors.Unwrap(err)
	assert.Equal(t, cause, unwrapped)
}

func TestUnwrapNil(t *testing.T) {
	err := ValidationError("test")

	unwrapped := errors.Unwrap(err)
	assert.Nil(t, unwrapped)
}

func TestErrorsIs(t *testing.T) {
	rootCause := fmt.Errorf("root")
	wrapped := InternalError("wrapped", rootCause)

	assert.True(t, errors.Is(wrapped, rootCause))
}

func TestErrorsAs(t *testing.T) {
	err := ValidationError("test")

	var target *Error
	require.True(t, errors.As(err, &target))
	assert.Equal(t, TypeValidation, target.Type)
}

func TestAsStructuredErrorWithStructuredError(t *testing.T) {
	original := ValidationError("original")
	result := AsStructuredError(original)

	assert.Equal(t, original, result)
	assert.Equal(t, TypeValidation, result.Type)
}

func TestAsStructuredErrorWithStandardError(t *testing.T) {
	original := fmt.Errorf("standard error")
	result := AsStructuredError(original)

	assert.NotNil(t, result)
	assert.Equal(t, TypeInternal, result.Type)
	assert.Equal(t, "internal server error", result.Message)
	assert.Equal(t, original, result.Cause)
}

func TestAsStructuredErrorWithNil(t *testing.T) {
	result := AsStructuredError(nil)
	assert.Nil(t, result)
}

func TestAsStructuredErrorWithWrappedStructuredError(t *testing.T) {
	original := NotFoundError("asset not found")
	wrapped := fmt.Errorf("wrapped: %w", original)

	result := AsStructuredError(wrapped)

	assert.NotNil(t, result)
	assert.Equal(t, TypeNotFound, result.Type)
	assert.Equal(t, "asset not found", result.Message)
}

func TestHTTPStatusAllTypes(t *testing.T) {
	tests := []struct {
		name       string
		errorType  ErrorType
		wantStatus int
	}{
		{"validation", TypeValidation, http.StatusBadRequest},
		{"not_found", TypeNotFound, http.StatusNotFound},
		{"conflict", TypeConflict, http.StatusConflict},
		{"internal", TypeInternal, http.StatusInternalServerError},
		{"external", TypeExternal, http.StatusBadGateway},
		{"unknown", ErrorType("unknown"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := &Error{Type: tt.errorType}
			assert.Equal(t, tt.wantStatus, err.HTTPStatus())
		})
	}
}

func TestErrorStringWithoutCause(t *testing.T) {
	err := ValidationError("test message")
	errStr := err.Error()

	assert.Contains(t, errStr, "validation")
	assert.Contains(t, errStr, "test message")
	assert.NotContains(t, errStr, "nil")
}

func TestErrorStringWithCause(t *testing.T) {
	cause := fmt.Errorf("underlying issue")
	err := InternalError("wrapper message", cause)
	errStr := err.Error()

	assert.Contains(t, errStr, "internal")
	assert.Contains(t, errStr, "wrapper message")
	assert.Contains(t, errStr, "underlying issue")
}

func TestContextFieldOverwrite(t *testing.T) {
	err := ValidationError("test")
	err = err.WithContext("field", "original")
	err = err.WithContext("field", "overwritten")

	assert.Equal(t, "overwritten", err.Context["field"])
}

func TestMultipleContextFields(t *testing.T) {
	err := InternalError("database error", fmt.Errorf("connection lost")).
		WithContext("asset", "btc").
		WithContext("epoch", int64(42)).
		WithContext("query", "SELECT * FROM window_snapshots").
		WithContext("retry_count", 3).
		WithContext("timeout_ms", 5000)

	assert.Len(t, err.Context, 5)
	assert.Equal(t, "btc", err.Context["asset"])
	assert.Equal(t, int64(42), err.Context["epoch"])
	assert.Equal(t, "SELECT * FROM window_snapshots", err.Context["query"])
	assert.Equal(t, 3, err.Context["retry_count"])
	assert.Equal(t, 5000, err.Context["timeout_ms"])
}
