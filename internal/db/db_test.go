package db

import (
	"testing"

	"github.com/postboard/apiserver/config"
	"github.com/stretchr/testify/assert"
)

func TestPostgresURL(t *testing.T) {
	cfg := config.DatabaseConfig{
		Host:     "db",
		Port:     5433,
		User:     "postboard",
		Password: "secret",
		DBName:   "postboard_db",
	}

	assert.Equal(t, "postgres://postboard:secret@db:5433/postboard_db?sslmode=disable", PostgresURL(cfg))

	cfg.UseSSL = true
	assert.Contains(t, PostgresURL(cfg), "sslmode=require")
}
