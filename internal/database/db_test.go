package database

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/hotel-reservation/internal/config"
)

func TestDSN(t *testing.T) {
	cfg := config.DBConfig{User: "hotel", Host: "db", Port: "3306", Name: "bookings"}
	assert.Equal(t, "hotel@tcp(db:3306)/bookings?charset=utf8mb4&parseTime=true&loc=UTC", DSN(cfg))

	cfg.Pass = "secret"
	assert.Equal(t, "hotel:secret@tcp(db:3306)/bookings?charset=utf8mb4&parseTime=true&loc=UTC", DSN(cfg))
}
