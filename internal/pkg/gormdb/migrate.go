package gormdb

import (
	"database/sql"
	"embed"

	"bitbucket.org/airenas/maiebridge/internal/pkg/cmdapp"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/pkg/errors"
)

//go:embed migrations/*.sql
var migrations embed.FS

//Migrate applies schema migrations
func Migrate(db *sql.DB) error {
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return errors.Wrap(err, "Can't load migrations")
	}
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return errors.Wrap(err, "Can't init migration driver")
	}
	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return errors.Wrap(err, "Can't init migrations")
	}
	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			cmdapp.Log.Info("Db schema is up to date")
			return nil
		}
		return errors.Wrap(err, "Can't migrate")
	}
	v, _, _ := m.Version()
	cmdapp.Log.Infof("Db migrated to %d", v)
	return nil
}
