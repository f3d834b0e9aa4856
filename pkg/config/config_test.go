package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.applyDefaults()

	assert.Equal(t, "polling", cfg.Bot.Mode)
	assert.Equal(t, 10*time.Second, cfg.Bot.Timeout)
	assert.Equal(t, ":9090", cfg.Server.Port)
	assert.Equal(t, "disable", cfg.Database.SSLMode)
	assert.Equal(t, int64(2000), cfg.Store.MinDeposit)
	assert.Equal(t, 5, cfg.Store.DocumentFrom)
	assert.Equal(t, 50*time.Millisecond, cfg.Broadcast.Pace)
	assert.Equal(t, 20, cfg.RateLimit.Limit)
	assert.Equal(t, time.Hour, cfg.Flow.TTL)
}

func TestApplyDefaultsKeepsExplicitValues(t *testing.T) {
	cfg := Config{}
	cfg.Bot.Mode = "webhook"
	cfg.Store.MinDeposit = 5000
	cfg.applyDefaults()

	assert.Equal(t, "webhook", cfg.Bot.Mode)
	assert.Equal(t, int64(5000), cfg.Store.MinDeposit)
}

func TestStoreConfigServicesSorted(t *testing.T) {
	store := StoreConfig{Catalog: map[string]int64{
		"Outlook (6-12 Months)": 150,
		"Gmail (6-12 Hours)":    400,
		"Hotmail (6-12 Months)": 150,
	}}

	assert.Equal(t, []string{
		"Gmail (6-12 Hours)",
		"Hotmail (6-12 Months)",
		"Outlook (6-12 Months)",
	}, store.Services())
}

func TestStoreConfigPrice(t *testing.T) {
	store := StoreConfig{Catalog: map[string]int64{"Login Gmail": 300}}

	price, ok := store.Price("Login Gmail")
	assert.True(t, ok)
	assert.Equal(t, int64(300), price)

	_, ok = store.Price("Yahoo")
	assert.False(t, ok)
}

func TestStoreConfigPaymentNumber(t *testing.T) {
	store := StoreConfig{BkashNumber: "01700000001", NagadNumber: "01500000002"}

	number, ok := store.PaymentNumber("bkash")
	assert.True(t, ok)
	assert.Equal(t, "01700000001", number)

	number, ok = store.PaymentNumber("nagad")
	assert.True(t, ok)
	assert.Equal(t, "01500000002", number)

	_, ok = store.PaymentNumber("rocket")
	assert.False(t, ok)
}

func TestDatabaseDSN(t *testing.T) {
	db := DatabaseConfig{
		Host:     "localhost",
		Port:     "5432",
		User:     "bot",
		Password: "secret",
		Name:     "mailstore",
		SSLMode:  "disable",
	}

	assert.Equal(t,
		"host=localhost port=5432 user=bot password=secret dbname=mailstore sslmode=disable",
		db.DSN(),
	)
}
