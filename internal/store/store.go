// Package store defines record persistence and a registry of drivers.
//
// Drivers live in sub-packages and register themselves on import, so a
// binary links only the databases it names:
//
//	import _ "github.com/JonMunkholm/records/internal/store/postgres"
//
//	repo, err := store.Open(ctx, cfg.Database)
package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/JonMunkholm/records/internal/config"
	"github.com/JonMunkholm/records/internal/record"
)

// ErrNotFound is returned when no record has the requested identifier.
var ErrNotFound = errors.New("record not found")

// Repository persists records together with their custom attributes.
//
// Save and SaveAll follow merge semantics: a record without an ID is
// inserted and assigned one; a record with an ID replaces the stored record
// of that ID, or is inserted under it when absent. Attribute order is
// preserved. SaveAll is atomic: either every record is stored or none is.
type Repository interface {
	FindAll(ctx context.Context) ([]record.Record, error)
	FindByID(ctx context.Context, id int64) (record.Record, error)
	Save(ctx context.Context, rec record.Record) (record.Record, error)
	SaveAll(ctx context.Context, records []record.Record) ([]record.Record, error)
	DeleteByID(ctx context.Context, id int64) error
	Count(ctx context.Context) (int64, error)
	Ping(ctx context.Context) error
	Close() error
}

// OpenFunc opens a repository for a driver.
type OpenFunc func(ctx context.Context, cfg config.DatabaseConfig) (Repository, error)

var (
	driversMu sync.RWMutex
	drivers   = make(map[string]OpenFunc)
)

// Register makes a driver available to Open. It panics if called twice
// with the same name.
func Register(name string, open OpenFunc) {
	driversMu.Lock()
	defer driversMu.Unlock()

	name = strings.ToLower(name)
	if _, dup := drivers[name]; dup {
		panic("store: driver registered twice: " + name)
	}
	drivers[name] = open
}

// Drivers returns the registered driver names, sorted.
func Drivers() []string {
	driversMu.RLock()
	defer driversMu.RUnlock()

	names := make([]string, 0, len(drivers))
	for name := range drivers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Open opens the repository selected by cfg.Driver.
func Open(ctx context.Context, cfg config.DatabaseConfig) (Repository, error) {
	driversMu.RLock()
	open, ok := drivers[strings.ToLower(cfg.Driver)]
	driversMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown database driver %q (registered: %s)", cfg.Driver, strings.Join(Drivers(), ", "))
	}
	return open(ctx, cfg)
}
