package database

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"vinyldex/internal/models"
	"vinyldex/internal/utils"
)

// SeedAdminUser creates an initial admin user if no users exist
func SeedAdminUser(db *gorm.DB, username, password string) error {
	var count int64
	if err := db.Model(&models.User{}).Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		return nil
	}

	if err := utils.ValidatePassword(password); err != nil {
		return fmt.Errorf("admin password rejected: %w", err)
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	admin := models.User{
		Username:     username,
		PasswordHash: hash,
		IsAdmin:      true,
		CreatedAt:    time.Now(),
	}

	return db.Create(&admin).Error
}

// SeedStarterColumns creates a basic set of custom columns for a new user
func SeedStarterColumns(db *gorm.DB, userID int64) error {
	var count int64
	if err := db.Model(&models.CustomColumn{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		return nil
	}

	starter := []models.CustomColumn{
		{
			UserID:   userID,
			Name:     "Condition",
			Kind:     models.ColumnKindSingleSelect,
			Position: 0,
			Options: models.ColumnOptions{
				{Value: "Mint", Color: "#22c55e"},
				{Value: "Near Mint", Color: "#84cc16"},
				{Value: "Very Good", Color: "#eab308"},
				{Value: "Good", Color: "#f97316"},
				{Value: "Fair", Color: "#ef4444"},
			},
		},
		{
			UserID:   userID,
			Name:     "Purchase Price",
			Kind:     models.ColumnKindNumber,
			Position: 1,
		},
		{
			UserID:   userID,
			Name:     "Wishlist",
			Kind:     models.ColumnKindBoolean,
			Position: 2,
		},
	}

	return db.Create(&starter).Error
}
