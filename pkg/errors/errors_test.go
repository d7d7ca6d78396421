package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapPreservesCause(t *testing.T) {
	cause := stdErrors.New("connection refused")
	err := Wrap(CodeDependency, cause, "load order")

	assert.Equal(t, CodeDependency, err.Code())
	assert.Equal(t, "load order", err.Message())
	assert.True(t, stdErrors.Is(err, cause))
	assert.Equal(t, "DEPENDENCY_ERROR: load order", err.Error())
}

func TestAsFindsTypedErrorThroughWrapping(t *testing.T) {
	inner := New(CodeNotFound, "product not found")
	outer := fmt.Errorf("fetching product: %w", inner)

	typed := As(outer)
	require.NotNil(t, typed)
	assert.Equal(t, CodeNotFound, typed.Code())
}

func TestAsReturnsNilForPlainErrors(t *testing.T) {
	assert.Nil(t, As(stdErrors.New("plain")))
	assert.Nil(t, As(nil))
}

func TestWithDetails(t *testing.T) {
	err := New(CodeValidation, "total mismatch").WithDetails(map[string]string{
		"expected": "150.50",
		"got":      "140.00",
	})

	details, ok := err.Details().(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "150.50", details["expected"])
}

func TestMetadataForUnknownCodeFallsBackToInternal(t *testing.T) {
	meta := MetadataFor(Code("SOMETHING_NEW"))
	assert.Equal(t, http.StatusInternalServerError, meta.HTTPStatus)
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, IsUniqueViolation(&pgconn.PgError{Code: "23505"}))
	assert.True(t, IsUniqueViolation(fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})))
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, IsUniqueViolation(stdErrors.New("duplicate key")))
	assert.False(t, IsUniqueViolation(nil))
}
