package gormdb

import (
	"database/sql"
	"sync"

	"bitbucket.org/airenas/maiebridge/internal/pkg/cmdapp"
	"bitbucket.org/airenas/maiebridge/internal/pkg/utils"
	_ "github.com/lib/pq" // postgres driver
	"github.com/pkg/errors"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

//Provider lazily opens one gorm connection and returns it on every call
type Provider struct {
	dsn        string
	migrations bool

	m  sync.Mutex
	db *gorm.DB

	open func(dsn string) (*sql.DB, error)
}

//NewProvider creates provider from db.dsn config value
func NewProvider() (*Provider, error) {
	dsn := cmdapp.Config.GetString("db.dsn")
	if dsn == "" {
		return nil, errors.New("No db.dsn provided")
	}
	return &Provider{dsn: dsn, migrations: cmdapp.Config.GetBool("db.migrations.run"),
		open: func(dsn string) (*sql.DB, error) { return sql.Open("postgres", dsn) }}, nil
}

//DB returns the shared connection, opens it on the first call
func (p *Provider) DB() (*gorm.DB, error) {
	p.m.Lock()
	defer p.m.Unlock()

	if p.db == nil {
		cmdapp.Log.Info("Open db: " + utils.URLToLog(p.dsn))
		sqlDB, err := p.open(p.dsn)
		if err != nil {
			return nil, errors.Wrap(err, "Can't open db")
		}
		if p.migrations {
			if err := Migrate(sqlDB); err != nil {
				sqlDB.Close()
				return nil, err
			}
		}
		db, err := Open(sqlDB)
		if err != nil {
			sqlDB.Close()
			return nil, err
		}
		p.db = db
	}
	return p.db, nil
}

//Open wraps sql connection with gorm, logs through the app logger
func Open(sqlDB *sql.DB) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}),
		&gorm.Config{Logger: NewLogger(), SkipDefaultTransaction: true})
	if err != nil {
		return nil, errors.Wrap(err, "Can't init gorm")
	}
	if err := registerErrorCallbacks(db); err != nil {
		cmdapp.Log.Warnf("Can't subscribe to db errors: %v", err)
	}
	return db, nil
}

//Healthy pings db if it is opened
func (p *Provider) Healthy() error {
	db, err := p.DB()
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

//Close closes db
func (p *Provider) Close() error {
	p.m.Lock()
	defer p.m.Unlock()
	if p.db == nil {
		return nil
	}
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	p.db = nil
	return sqlDB.Close()
}
