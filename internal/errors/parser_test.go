package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestParseError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		resource string
		wantCode string
	}{
		{"nil", nil, "product", InternalServerError},
		{"record not found", fmt.Errorf("lookup: %w", gorm.ErrRecordNotFound), "product", ResourceNotFound},
		{"translated duplicate", gorm.ErrDuplicatedKey, "category", ResourceAlreadyExists},
		{"postgres duplicate email", errors.New(`ERROR: duplicate key value violates unique constraint "idx_users_email"`), "user", AuthEmailAlreadyExists},
		{"sqlite duplicate slug", errors.New("UNIQUE constraint failed: categories.slug"), "category", ResourceAlreadyExists},
		{"foreign key", errors.New("FOREIGN KEY constraint failed"), "product", ValidationInvalidInput},
		{"translated foreign key", gorm.ErrForeignKeyViolated, "product", ValidationInvalidInput},
		{"not null", errors.New(`null value in column "name" violates not-null constraint`), "brand", ValidationRequired},
		{"network", errors.New("dial tcp: connection refused"), "product", InternalExternalAPI},
		{"other", errors.New("boom"), "product", InternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := ParseError(tt.err, tt.resource)
			assert.Equal(t, tt.wantCode, info.Code)
			assert.NotEmpty(t, info.Message)
		})
	}
}

func TestParseError_Messages(t *testing.T) {
	assert.Equal(t, "Product not found", ParseError(gorm.ErrRecordNotFound, "product").Message)
	assert.Equal(t, "Category slug is already in use", ParseError(errors.New("UNIQUE constraint failed: categories.slug"), "category").Message)
}
