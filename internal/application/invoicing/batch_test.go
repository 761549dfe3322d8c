package invoicing

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/invoicer/backend/internal/domain/shared"
)

func TestValidateBatch(t *testing.T) {
	assert.True(t, shared.IsValidation(validateBatch(nil)))
	assert.NoError(t, validateBatch(make([]uuid.UUID, MaxBatchSize)))

	err := validateBatch(make([]uuid.UUID, MaxBatchSize+1))
	assert.True(t, shared.IsValidation(err))
	assert.Contains(t, err.Error(), "at most 100 ids")
}

func TestBatchResult(t *testing.T) {
	ok, invalid, broken := uuid.New(), uuid.New(), uuid.New()

	var r BatchResult
	r.succeed(ok)
	r.fail(invalid, shared.InvalidStateError("cannot void invoice in PAID status"))
	r.fail(broken, errors.New("connection refused"))

	assert.Equal(t, 1, r.Succeeded)
	assert.Equal(t, 2, r.Failed)
	assert.Equal(t, []BatchItemResult{
		{ID: ok, Success: true},
		{ID: invalid, ErrorCode: shared.CodeInvalidState, Error: "cannot void invoice in PAID status"},
		{ID: broken, ErrorCode: "INTERNAL_ERROR", Error: "connection refused"},
	}, r.Items)
}
