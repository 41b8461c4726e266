// Package database keeps a local history of finished downloads.
package database

import (
	"embed"
	"errors"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migrate_sqlite3 "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Archive is one completed download.
type Archive struct {
	ID         string    `db:"id"`
	ContentID  string    `db:"content_id"`
	Kind       string    `db:"kind"`
	Channel    string    `db:"channel"`
	Title      string    `db:"title"`
	OutputPath string    `db:"output_path"`
	StartTag   string    `db:"start_tag"`
	EndTag     string    `db:"end_tag"`
	CreatedAt  time.Time `db:"created_at"`
}

// Recorder persists completed downloads. NilRecorder drops them, for runs
// without a history database.
type Recorder interface {
	RecordArchive(*Archive) error
}

type NilRecorder struct{}

func (NilRecorder) RecordArchive(*Archive) error { return nil }

type Database struct {
	db  *sqlx.DB
	log *zap.SugaredLogger
}

func NewDatabase(path string) (*Database, error) {
	db, err := sqlx.Connect("sqlite3", path)
	if err != nil {
		return nil, err
	}
	return &Database{db: db, log: zap.S().Named("database")}, nil
}

func (d *Database) Close() error {
	return d.db.Close()
}

// Migrate brings the schema up to date.
func (d *Database) Migrate() error {
	source, err := iofs.New(migrations, "migrations")
	if err != nil {
		return err
	}
	driver, err := migrate_sqlite3.WithInstance(d.db.DB, &migrate_sqlite3.Config{})
	if err != nil {
		return err
	}
	m, err := migrate.NewWithInstance("iofs", source, "sqlite3", driver)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	d.log.Debug("schema up to date")
	return nil
}

// RecordArchive inserts the archive row, assigning an ID and timestamp if
// unset.
func (d *Database) RecordArchive(archive *Archive) error {
	if archive.ID == "" {
		archive.ID = uuid.NewString()
	}
	if archive.CreatedAt.IsZero() {
		archive.CreatedAt = time.Now().UTC()
	}
	_, err := d.db.NamedExec(`
		INSERT INTO archive (id, content_id, kind, channel, title, output_path, start_tag, end_tag, created_at)
		VALUES (:id, :content_id, :kind, :channel, :title, :output_path, :start_tag, :end_tag, :created_at)`,
		archive)
	return err
}

// GetAllArchives returns the history, newest first.
func (d *Database) GetAllArchives() ([]Archive, error) {
	var archives []Archive
	err := d.db.Select(&archives, `SELECT * FROM archive ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	return archives, nil
}

// GetArchivesByChannel returns the history for one channel, newest first.
func (d *Database) GetArchivesByChannel(channel string) ([]Archive, error) {
	var archives []Archive
	err := d.db.Select(&archives, `SELECT * FROM archive WHERE channel = ? ORDER BY created_at DESC`, channel)
	if err != nil {
		return nil, err
	}
	return archives, nil
}
