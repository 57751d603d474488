package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"room-turnover-backend/config"
	"room-turnover-backend/internal/model"
)

func newMemoryDB(t *testing.T) *gorm.DB {
	t.Helper()
	gormDB, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := gormDB.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, Migrate(gormDB))
	return gormDB
}

func TestSeed_InsertsDefaultsOnce(t *testing.T) {
	gormDB := newMemoryDB(t)
	seedCfg := config.SeedConfig{DefaultPassword: "admin123", RoomCount: 10}

	require.NoError(t, Seed(context.Background(), gormDB, seedCfg))
	require.NoError(t, Seed(context.Background(), gormDB, seedCfg))

	var operators []model.Operator
	require.NoError(t, gormDB.Order("id").Find(&operators).Error)
	require.Len(t, operators, 2)
	assert.Equal(t, "admin@hospital.com", operators[0].Email)
	assert.Equal(t, model.RoleAdmin, operators[0].Role)
	assert.Equal(t, model.RoleOperator, operators[1].Role)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(operators[1].PasswordHash), []byte("admin123")))

	var rooms []model.Room
	require.NoError(t, gormDB.Order("id").Find(&rooms).Error)
	require.Len(t, rooms, 10)
	assert.Equal(t, "Sala 01", rooms[0].Label)
	assert.Equal(t, "Sala 10", rooms[9].Label)
	for _, r := range rooms {
		assert.Equal(t, model.RoomFree, r.Status)
	}
}

func TestSeed_SkipsWhenAnyOperatorExists(t *testing.T) {
	gormDB := newMemoryDB(t)
	require.NoError(t, gormDB.Create(&model.Operator{Name: "Existing", Email: "x@hospital.com", PasswordHash: "x"}).Error)

	require.NoError(t, Seed(context.Background(), gormDB, config.SeedConfig{DefaultPassword: "pw", RoomCount: 3}))

	var roomCount int64
	gormDB.Model(&model.Room{}).Count(&roomCount)
	assert.Equal(t, int64(0), roomCount)
}

func TestIsPostgresDSN(t *testing.T) {
	assert.True(t, IsPostgresDSN("postgres://user@localhost/db"))
	assert.True(t, IsPostgresDSN("postgresql://user@localhost/db"))
	assert.True(t, IsPostgresDSN("host=localhost user=app dbname=turnover"))
	assert.False(t, IsPostgresDSN("file:turnover.db"))
	assert.False(t, IsPostgresDSN("/tmp/turnover.sqlite"))
}
