package test

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"vinyldex/internal/models"
	"vinyldex/internal/utils"
)

// SetupTestDB creates an in-memory SQLite database with the full schema.
// Each call gets its own database so tests stay independent.
func SetupTestDB(t *testing.T) (*gorm.DB, func()) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.User{},
		&models.Record{},
		&models.CustomColumn{},
		&models.CustomColumnValue{},
		&models.TableView{},
		&models.LookupEvent{},
	)
	require.NoError(t, err)

	tearDown := func() {
		sqlDB, err := db.DB()
		if err == nil {
			sqlDB.Close()
		}
	}

	return db, tearDown
}

// CreateTestUser creates a test user in the database
func CreateTestUser(t *testing.T, db *gorm.DB, username, password string) *models.User {
	t.Helper()

	hash, err := utils.HashPassword(password)
	require.NoError(t, err)

	user := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: hash,
	}
	require.NoError(t, db.Create(user).Error)

	return user
}

// CreateTestRecord creates a record owned by the given user
func CreateTestRecord(t *testing.T, db *gorm.DB, userID int64, artist, album string) *models.Record {
	t.Helper()

	record := &models.Record{
		UserID: userID,
		Artist: artist,
		Album:  album,
	}
	require.NoError(t, db.Create(record).Error)

	return record
}
