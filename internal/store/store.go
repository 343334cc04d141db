// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package store persists measurements in SQLite.
package store

import (
	"embed"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const (
	stmtInsertReading   = "INSERT INTO readings (timestamp, humidity, temperature) VALUES (?, ?, ?);"
	queryRecentReadings = "SELECT timestamp, humidity, temperature FROM readings ORDER BY timestamp DESC LIMIT ?;"
)

//go:embed migrations/*.sql
var migrations embed.FS

var logger = log.WithField("component", "store")

// Reading is one stored measurement.
type Reading struct {
	Timestamp time.Time
	// Humidity is a ratio in [0, 1].
	Humidity float64
	// Temperature in °C.
	Temperature float64
}

type readingRow struct {
	Timestamp   int64   `db:"timestamp"`
	Humidity    float64 `db:"humidity"`
	Temperature float64 `db:"temperature"`
}

// Store is responsible for persisting and reading measurements.
type Store interface {
	Write(Reading) error
	Recent(n int) ([]Reading, error)
}

// SQLite is a Store using SQLite statement syntax.
type SQLite struct {
	db *sqlx.DB
}

// NewSQLite returns a SQLite store on db.
func NewSQLite(db *sqlx.DB) *SQLite {
	return &SQLite{db: db}
}

// Open opens the database file at path.
func Open(path string) (*SQLite, error) {
	db, err := sqlx.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	return NewSQLite(db), nil
}

// Write persists r. Timestamps are stored with millisecond resolution.
func (s *SQLite) Write(r Reading) error {
	_, err := s.db.Exec(stmtInsertReading, r.Timestamp.UnixMilli(), r.Humidity, r.Temperature)
	return errors.Wrap(err, "insert reading")
}

// Recent returns up to n readings, newest first.
func (s *SQLite) Recent(n int) ([]Reading, error) {
	var rows []readingRow
	if err := s.db.Select(&rows, queryRecentReadings, n); err != nil {
		return nil, errors.Wrap(err, "select readings")
	}
	readings := make([]Reading, 0, len(rows))
	for _, row := range rows {
		readings = append(readings, Reading{
			Timestamp:   time.UnixMilli(row.Timestamp),
			Humidity:    row.Humidity,
			Temperature: row.Temperature,
		})
	}
	return readings, nil
}

// Close closes the database.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// Migrate applies the embedded migrations to the database at path. steps == 0
// applies all of them, otherwise steps migrations are run (negative steps go
// down).
func Migrate(path string, steps int) error {
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return errors.Wrap(err, "load migrations")
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, "sqlite3://"+path)
	if err != nil {
		return errors.Wrap(err, "init migrations")
	}
	defer func() {
		if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
			logger.WithField("source", srcErr).WithField("database", dbErr).Error("failed to close migrations")
		}
	}()
	if steps == 0 {
		err = m.Up()
	} else {
		err = m.Steps(steps)
	}
	if err == migrate.ErrNoChange {
		logger.Debug("no migration to apply")
		return nil
	}
	return errors.Wrap(err, "migrate")
}

var _ Store = &SQLite{}
