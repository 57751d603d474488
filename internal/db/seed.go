package db

import (
	"context"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"room-turnover-backend/config"
	"room-turnover-backend/internal/auth"
	"room-turnover-backend/internal/model"
	"room-turnover-backend/internal/parse"
)

// Seed inserts the default operators and rooms. It only runs while the
// operators table is empty, so it is a no-op on every start after the first.
func Seed(ctx context.Context, db *gorm.DB, cfg config.SeedConfig) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.Operator{}).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to count operators: %w", err)
		}
		if count > 0 {
			return nil
		}

		hash, err := auth.HashPassword(cfg.DefaultPassword)
		if err != nil {
			return err
		}

		operators := []model.Operator{
			{Name: "Administrador", Email: "admin@hospital.com", PasswordHash: hash, Role: model.RoleAdmin},
			{Name: "João Silva", Email: "joao@hospital.com", PasswordHash: hash, Role: model.RoleOperator},
		}
		if err := tx.Create(&operators).Error; err != nil {
			return fmt.Errorf("failed to insert default operators: %w", err)
		}

		now := time.Now().UTC()
		rooms := make([]model.Room, 0, cfg.RoomCount)
		for i := 1; i <= cfg.RoomCount; i++ {
			rooms = append(rooms, model.Room{
				Label:       parse.RoomLabel(i),
				Status:      model.RoomFree,
				LastUpdated: now,
			})
		}
		if err := tx.Create(&rooms).Error; err != nil {
			return fmt.Errorf("failed to insert default rooms: %w", err)
		}

		log.Printf("Seeded %d operators and %d rooms", len(operators), len(rooms))
		return nil
	})
}
