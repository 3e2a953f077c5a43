package repository

import (
	"io"
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"RestaurantSync/internal/model"
	"RestaurantSync/internal/parser"
)

// newTestDB 每个测试一个临时 SQLite 文件
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "restaurants.db")
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(model.AllTables()...))
	return db
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func strPtr(s string) *string   { return &s }
func f64Ptr(v float64) *float64 { return &v }

// enriched 构造一条可提交的记录：周一、周三营业
func enriched(googleID, name string) *model.EnrichedRestaurant {
	addr := parser.ParseAddress("Rua Augusta, 123 - Consolação, São Paulo - SP, 01305-000, Brasil")
	return &model.EnrichedRestaurant{
		Restaurant: model.Restaurant{
			GoogleID:           googleID,
			GoogleName:         name,
			GoogleDisplayName:  strPtr(name + " Oficial"),
			StreetType:         addr.StreetType,
			StreetName:         addr.StreetName,
			StreetNumber:       addr.StreetNumber,
			StreetNeighborhood: addr.StreetNeighborhood,
			PostalCode:         addr.PostalCode,
			City:               addr.City,
			State:              addr.State,
			Country:            addr.Country,
			Ratings:            f64Ptr(4.2),
			VegetarianFood:     true,
		},
		Schedule: parser.NormalizeOpeningHours([]model.OpeningPeriod{
			{DayOfWeek: 1, OpenHour: 11, CloseHour: 23},
			{DayOfWeek: 3, OpenHour: 18, OpenMinute: 30, CloseHour: 2},
		}),
		Types:       []string{"bar", "restaurant"},
		PrimaryType: strPtr("Bar"),
	}
}
