package service

import (
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/chaimaJr/CoffeeHop/internal/config"
	"github.com/chaimaJr/CoffeeHop/internal/hub"
	"github.com/chaimaJr/CoffeeHop/internal/models"
)

type testEnv struct {
	DB       *gorm.DB
	Hub      *hub.Hub
	Orders   *OrderService
	Loyalty  *LoyaltyService
	Notifier *NotificationService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "coffeehop.db")), &gorm.Config{})
	require.NoError(t, err)

	// A single connection keeps sqlite writers from tripping over each
	// other in the concurrency tests.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, config.Migrate(db))

	h := hub.New()
	notifier := &NotificationService{DB: db, Hub: h}
	loyalty := &LoyaltyService{DB: db}
	orders := &OrderService{
		DB:       db,
		Catalog:  &GormCatalog{DB: db},
		Loyalty:  loyalty,
		Notifier: notifier,
	}

	return &testEnv{DB: db, Hub: h, Orders: orders, Loyalty: loyalty, Notifier: notifier}
}

func (env *testEnv) createUser(t *testing.T, username, role string) *models.User {
	t.Helper()
	user := models.User{
		Username:     username,
		PasswordHash: "x",
		Role:         role,
	}
	require.NoError(t, env.DB.Create(&user).Error)
	return &user
}

func (env *testEnv) createMenuItem(t *testing.T, title, price string, available bool) *models.MenuItem {
	t.Helper()
	item := models.MenuItem{
		Title:       title,
		ItemType:    models.ItemTypeCoffee,
		Price:       money(price),
		IsAvailable: available,
	}
	require.NoError(t, env.DB.Create(&item).Error)
	return &item
}

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func asRequester(u *models.User) Requester {
	return Requester{UserID: u.ID, Role: u.Role}
}

func (env *testEnv) reloadUser(t *testing.T, id uint) *models.User {
	t.Helper()
	var user models.User
	require.NoError(t, env.DB.First(&user, id).Error)
	return &user
}

func (env *testEnv) reloadOrder(t *testing.T, id uint) *models.Order {
	t.Helper()
	var order models.Order
	require.NoError(t, env.DB.Preload("Items").First(&order, id).Error)
	return &order
}
