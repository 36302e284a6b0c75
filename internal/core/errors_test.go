// AngelaMos | 2026
// errors_test.go

package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKind(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, "ok"},
		{fmt.Errorf("get listing: %w", ErrNotFound), "not_found"},
		{fmt.Errorf("update listing: %w", ErrForbidden), "forbidden"},
		{fmt.Errorf("open transaction: %w", ErrConflict), "conflict"},
		{ErrDuplicateKey, "conflict"},
		{fmt.Errorf("open transaction: %w", ErrInvalidInput), "bad_request"},
		{errors.New("connection reset"), "internal"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Kind(tt.err), "%v", tt.err)
	}
}

func TestToAppError(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{fmt.Errorf("x: %w", ErrNotFound), http.StatusNotFound, "NOT_FOUND"},
		{ConflictError("listing reserved"), http.StatusConflict, "CONFLICT"},
		{fmt.Errorf("x: %w", ErrForbidden), http.StatusForbidden, "FORBIDDEN"},
		{fmt.Errorf("x: %w", ErrConflict), http.StatusConflict, "CONFLICT"},
		{fmt.Errorf("x: %w", ErrInvalidInput), http.StatusBadRequest, "BAD_REQUEST"},
		{fmt.Errorf("x: %w", ErrUnauthorized), http.StatusUnauthorized, "UNAUTHORIZED"},
		{TokenExpiredError(), http.StatusUnauthorized, "TOKEN_EXPIRED"},
		{errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		appErr := ToAppError(tt.err)
		assert.Equal(t, tt.status, appErr.StatusCode, "%v", tt.err)
		assert.Equal(t, tt.code, appErr.Code, "%v", tt.err)
	}
}

func TestTranslateStoreError(t *testing.T) {
	assert.NoError(t, TranslateStoreError(nil))

	plain := errors.New("syntax error")
	assert.Same(t, plain, TranslateStoreError(plain))

	for _, code := range []string{pgSerializationFailure, pgDeadlockDetected, pgLockNotAvailable} {
		err := TranslateStoreError(fmt.Errorf("lock listing: %w", &pgconn.PgError{Code: code, Message: "could not obtain lock"}))
		assert.ErrorIs(t, err, ErrConflict, code)
	}

	unique := TranslateStoreError(&pgconn.PgError{Code: pgUniqueViolation, ConstraintName: "transactions_one_active"})
	assert.ErrorIs(t, unique, ErrConflict)
	assert.ErrorIs(t, unique, ErrDuplicateKey)
	assert.Contains(t, unique.Error(), "transactions_one_active")

	for _, code := range []string{pgForeignKeyViolation, pgInvalidTextRepr} {
		err := TranslateStoreError(fmt.Errorf("get transaction: %w", &pgconn.PgError{Code: code, ConstraintName: "wishlist_user_id_fkey"}))
		assert.ErrorIs(t, err, ErrNotFound, code)
		assert.NotErrorIs(t, err, ErrConflict, code)
	}

	check := &pgconn.PgError{Code: "23514"}
	assert.Equal(t, error(check), TranslateStoreError(check))
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, IsUniqueViolation(fmt.Errorf("insert: %w", &pgconn.PgError{Code: pgUniqueViolation})))
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: pgDeadlockDetected}))
	assert.False(t, IsUniqueViolation(errors.New("unique")))
}

func TestValidate(t *testing.T) {
	type input struct {
		Name   string `validate:"required,min=3"`
		Rating int    `validate:"min=1,max=5"`
	}

	v := validator.New(validator.WithRequiredStructEnabled())

	require.NoError(t, Validate(v, "check", input{Name: "Ada", Rating: 3}))

	err := Validate(v, "check", input{Name: "", Rating: 9})
	require.ErrorIs(t, err, ErrInvalidInput)
	assert.Contains(t, err.Error(), "name is required")
	assert.Contains(t, err.Error(), "rating must be at most 5")
}

func TestJSONError(t *testing.T) {
	rec := httptest.NewRecorder()

	JSONError(rec, fmt.Errorf("open transaction: %w", ErrConflict))

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.False(t, body.Success)
	require.NotNil(t, body.Error)
	assert.Equal(t, "CONFLICT", body.Error.Code)
}
