// Copyright © 2025 Texelcast contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: directory/registry.go
// Summary: SQLite-backed cross-process producer registry.
//
// Producers register their name, dimensions and segment handle here;
// capture consumers in other processes discover them through the
// Directory interface. SQLite gives us the cross-process atomicity the
// registry needs without a daemon.

package directory

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/framegrace/texelcast/share"
)

const schema = `
CREATE TABLE IF NOT EXISTS producers (
	name          TEXT PRIMARY KEY,
	width         INTEGER NOT NULL,
	height        INTEGER NOT NULL,
	format        INTEGER NOT NULL,
	handle        TEXT NOT NULL,
	instance      TEXT NOT NULL,
	registered_at INTEGER NOT NULL,
	updated_at    INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS active (
	slot INTEGER PRIMARY KEY CHECK (slot = 0),
	name TEXT NOT NULL
);
`

// Registry implements Directory over a shared SQLite database plus the
// producer-side registration operations.
type Registry struct {
	db *sql.DB

	mu     sync.Mutex
	closed bool
}

// Open opens (creating if necessary) the registry database at path.
func Open(path string) (*Registry, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("directory: open registry: %w", err)
	}
	// Serialize through a single connection; the registry is low traffic
	// and this keeps WAL writers from tripping over each other in-process.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("directory: init schema: %w", err)
	}
	return &Registry{db: db}, nil
}

// OpenDefault opens the registry in the texelcast runtime directory.
func OpenDefault() (*Registry, error) {
	path, err := share.RegistryPath()
	if err != nil {
		return nil, err
	}
	return Open(path)
}

func (r *Registry) guard() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}
	return nil
}

func (r *Registry) Count() (int, error) {
	if err := r.guard(); err != nil {
		return 0, err
	}
	var n int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM producers`).Scan(&n); err != nil {
		return 0, fmt.Errorf("directory: count: %w", err)
	}
	return n, nil
}

func (r *Registry) NameAt(index int) (string, error) {
	if err := r.guard(); err != nil {
		return "", err
	}
	var name string
	err := r.db.QueryRow(
		`SELECT name FROM producers ORDER BY registered_at, name LIMIT 1 OFFSET ?`,
		index,
	).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("directory: name at %d: %w", index, err)
	}
	return name, nil
}

func (r *Registry) SetActive(name string) error {
	if err := r.guard(); err != nil {
		return err
	}
	if _, err := r.db.Exec(`INSERT OR REPLACE INTO active (slot, name) VALUES (0, ?)`, name); err != nil {
		return fmt.Errorf("directory: set active: %w", err)
	}
	return nil
}

// ActiveName returns the currently active producer name, or ErrNotFound if
// no consumer has made a selection.
func (r *Registry) ActiveName() (string, error) {
	if err := r.guard(); err != nil {
		return "", err
	}
	var name string
	err := r.db.QueryRow(`SELECT name FROM active WHERE slot = 0`).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("directory: active name: %w", err)
	}
	return name, nil
}

func (r *Registry) InfoFor(name string) (*Info, error) {
	if err := r.guard(); err != nil {
		return nil, err
	}
	info := &Info{Name: name}
	var handle string
	var format uint32
	err := r.db.QueryRow(
		`SELECT width, height, format, handle FROM producers WHERE name = ?`,
		name,
	).Scan(&info.Width, &info.Height, &format, &handle)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("directory: info for %q: %w", name, err)
	}
	info.Format = share.PixelFormat(format)
	info.Handle = share.Handle(handle)
	return info, nil
}

func (r *Registry) ReleaseActive() error {
	if err := r.guard(); err != nil {
		return err
	}
	if _, err := r.db.Exec(`DELETE FROM active WHERE slot = 0`); err != nil {
		return fmt.Errorf("directory: release active: %w", err)
	}
	return nil
}

// Prune drops registrations whose segment file has disappeared, which
// happens when a producer dies without unregistering. Returns the number of
// rows removed.
func (r *Registry) Prune() (int, error) {
	if err := r.guard(); err != nil {
		return 0, err
	}
	rows, err := r.db.Query(`SELECT name, handle FROM producers`)
	if err != nil {
		return 0, fmt.Errorf("directory: prune scan: %w", err)
	}
	var stale []string
	for rows.Next() {
		var name, handle string
		if err := rows.Scan(&name, &handle); err != nil {
			rows.Close()
			return 0, fmt.Errorf("directory: prune scan: %w", err)
		}
		if _, err := os.Stat(handle); os.IsNotExist(err) {
			stale = append(stale, name)
		}
	}
	rows.Close()

	for _, name := range stale {
		if _, err := r.db.Exec(`DELETE FROM producers WHERE name = ?`, name); err != nil {
			return 0, fmt.Errorf("directory: prune %q: %w", name, err)
		}
		log.Printf("Directory: Pruned stale producer %q", name)
	}
	return len(stale), nil
}

func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	return r.db.Close()
}

// Registration is a producer's live entry in the registry. Unregister must
// be called when the producer stops publishing.
type Registration struct {
	reg      *Registry
	name     string
	instance uuid.UUID
}

// Register announces a producer. An existing registration under the same
// name is replaced; the newest producer owns the name.
func (r *Registry) Register(name string, width, height int, format share.PixelFormat, handle share.Handle) (*Registration, error) {
	if err := r.guard(); err != nil {
		return nil, err
	}
	instance := uuid.New()
	now := time.Now().UnixNano()
	_, err := r.db.Exec(
		`INSERT OR REPLACE INTO producers
			(name, width, height, format, handle, instance, registered_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		name, width, height, uint32(format), string(handle), instance.String(), now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("directory: register %q: %w", name, err)
	}
	log.Printf("Directory: Registered producer %q (%dx%d %s)", name, width, height, format)
	return &Registration{reg: r, name: name, instance: instance}, nil
}

// Name returns the registered producer name.
func (p *Registration) Name() string { return p.name }

// UpdateDimensions refreshes the advertised dimensions after a producer
// resize. The segment itself must have been recreated by the caller first.
func (p *Registration) UpdateDimensions(width, height int) error {
	if err := p.reg.guard(); err != nil {
		return err
	}
	res, err := p.reg.db.Exec(
		`UPDATE producers SET width = ?, height = ?, updated_at = ?
			WHERE name = ? AND instance = ?`,
		width, height, time.Now().UnixNano(), p.name, p.instance.String(),
	)
	if err != nil {
		return fmt.Errorf("directory: update %q: %w", p.name, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Unregister removes the producer entry if this registration still owns it.
func (p *Registration) Unregister() error {
	if err := p.reg.guard(); err != nil {
		return err
	}
	_, err := p.reg.db.Exec(
		`DELETE FROM producers WHERE name = ? AND instance = ?`,
		p.name, p.instance.String(),
	)
	if err != nil {
		return fmt.Errorf("directory: unregister %q: %w", p.name, err)
	}
	log.Printf("Directory: Unregistered producer %q", p.name)
	return nil
}
