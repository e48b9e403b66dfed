package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfig_DSN(t *testing.T) {
	cfg := Config{Host: "db", Port: "5432", User: "feed", Password: "pw", Name: "minifeed", SSLMode: "disable"}

	assert.Equal(t,
		"host=db port=5432 user=feed password=pw dbname=minifeed sslmode=disable TimeZone=UTC",
		cfg.DSN())
}
