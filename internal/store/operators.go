package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"room-turnover-backend/internal/model"
)

// FindOperatorByEmail looks an operator up by email, case-insensitively.
func (s *gormStore) FindOperatorByEmail(ctx context.Context, email string) (model.Operator, error) {
	var op model.Operator
	err := s.db.WithContext(ctx).
		Where("LOWER(email) = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&op).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Operator{}, fmt.Errorf("operator %q: %w", email, ErrNotFound)
	}
	if err != nil {
		return model.Operator{}, fmt.Errorf("failed to retrieve operator: %w", err)
	}
	return op, nil
}
