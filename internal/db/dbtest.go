package db

import (
	"errors"
	"os"

	"github.com/jmoiron/sqlx"
)

// InitTestDB connects to TEST_DATABASE_URL, applies migrations and returns a
// Store over it. Integration tests skip when the variable is unset.
func InitTestDB(migrationsPath string) (Store, *sqlx.DB, error) {
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		return nil, nil, errors.New("TEST_DATABASE_URL environment variable is not set")
	}

	conn, err := sqlx.Connect("postgres", dbURL)
	if err != nil {
		return nil, nil, err
	}

	if err := RunMigrations(conn, migrationsPath); err != nil {
		conn.Close()
		return nil, nil, err
	}

	return NewStore(conn), conn, nil
}
