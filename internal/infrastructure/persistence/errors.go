package persistence

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/invoicer/backend/internal/domain/shared"
)

// isDuplicateKey detects unique constraint violations. TranslateError covers the dialects
// that support it; the message checks cover connections opened without it.
func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "SQLSTATE 23505")
}

// writeError maps a failed insert or update to a domain error
func writeError(err error, entity string) error {
	if err == nil {
		return nil
	}
	if isDuplicateKey(err) {
		return shared.ConflictError("%s conflicts with an existing record", entity)
	}
	return err
}

// findError maps a failed lookup to a domain error
func findError(err error, entity string, id uuid.UUID) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return shared.NotFoundError(entity, id)
	}
	return err
}

// updateVersioned writes every column of model when the stored version still equals
// expected. model must carry its primary key and the incremented version.
func updateVersioned(tx *gorm.DB, model any, entity string, id uuid.UUID, expected int) error {
	result := tx.Model(model).
		Select("*").
		Omit("id", "created_at", "tenant_id", "created_by", clause.Associations).
		Where("version = ?", expected).
		Updates(model)
	if result.Error != nil {
		return writeError(result.Error, entity)
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := tx.Model(model).Where("id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return shared.NotFoundError(entity, id)
		}
		return shared.ConflictError("%s %s was modified by another request", entity, id)
	}
	return nil
}
