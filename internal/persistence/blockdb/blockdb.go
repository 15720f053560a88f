// Package blockdb persists player positions and per-block edits in SQLite.
package blockdb

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"

	"voxelstream.ai/internal/sim/block"
)

// Player is a saved camera pose.
type Player struct {
	X, Y, Z    float32
	Pitch, Yaw float32
}

// DB keeps one transaction open at all times; Commit makes the writes
// since the previous Commit durable and opens the next transaction.
// All methods are safe for concurrent use.
type DB struct {
	mu sync.Mutex
	db *sql.DB
	tx *sql.Tx
}

func Open(path string) (*DB, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	tx, err := db.Begin()
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("begin: %w", err)
	}
	return &DB{db: db, tx: tx}, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS players (
			id INTEGER PRIMARY KEY,
			x REAL NOT NULL,
			y REAL NOT NULL,
			z REAL NOT NULL,
			pitch REAL NOT NULL,
			yaw REAL NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS blocks (
			a INTEGER NOT NULL,
			c INTEGER NOT NULL,
			x INTEGER NOT NULL,
			y INTEGER NOT NULL,
			z INTEGER NOT NULL,
			data INTEGER NOT NULL,
			PRIMARY KEY (a, c, x, y, z)
		);`,
		`CREATE INDEX IF NOT EXISTS blocks_index ON blocks (a, c);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

var errClosed = errors.New("blockdb: closed")

// Close commits pending writes and closes the database.
func (d *DB) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.tx == nil {
		return nil
	}
	err := d.tx.Commit()
	d.tx = nil
	if cerr := d.db.Close(); err == nil {
		err = cerr
	}
	return err
}

func (d *DB) Commit() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.tx == nil {
		return errClosed
	}
	if err := d.tx.Commit(); err != nil {
		d.tx = nil
		return fmt.Errorf("commit: %w", err)
	}
	tx, err := d.db.Begin()
	if err != nil {
		d.tx = nil
		return fmt.Errorf("begin: %w", err)
	}
	d.tx = tx
	return nil
}

func (d *DB) SetPlayer(id int, p Player) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.tx == nil {
		return errClosed
	}
	_, err := d.tx.Exec(
		`INSERT OR REPLACE INTO players (id, x, y, z, pitch, yaw) VALUES (?, ?, ?, ?, ?, ?)`,
		id, p.X, p.Y, p.Z, p.Pitch, p.Yaw,
	)
	if err != nil {
		return fmt.Errorf("set player %d: %w", id, err)
	}
	return nil
}

// Player returns the saved pose for id. ok is false if none was saved.
func (d *DB) Player(id int) (p Player, ok bool, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.tx == nil {
		return Player{}, false, errClosed
	}
	row := d.tx.QueryRow(`SELECT x, y, z, pitch, yaw FROM players WHERE id = ?`, id)
	if err := row.Scan(&p.X, &p.Y, &p.Z, &p.Pitch, &p.Yaw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Player{}, false, nil
		}
		return Player{}, false, fmt.Errorf("get player %d: %w", id, err)
	}
	return p, true, nil
}

// SetBlock records an edit at local (x,y,z) of chunk (a,c).
func (d *DB) SetBlock(a, c, x, y, z int, id block.ID) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.tx == nil {
		return errClosed
	}
	_, err := d.tx.Exec(
		`INSERT OR REPLACE INTO blocks (a, c, x, y, z, data) VALUES (?, ?, ?, ?, ?, ?)`,
		a, c, x, y, z, int(id),
	)
	if err != nil {
		return fmt.Errorf("set block (%d,%d)/(%d,%d,%d): %w", a, c, x, y, z, err)
	}
	return nil
}

// Overrides writes every recorded edit of chunk (a,c) into dst. Rows with
// an unknown block id are skipped.
func (d *DB) Overrides(dst block.Setter, a, c int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.tx == nil {
		return errClosed
	}
	rows, err := d.tx.Query(`SELECT x, y, z, data FROM blocks WHERE a = ? AND c = ?`, a, c)
	if err != nil {
		return fmt.Errorf("query blocks (%d,%d): %w", a, c, err)
	}
	defer rows.Close()
	for rows.Next() {
		var x, y, z, data int
		if err := rows.Scan(&x, &y, &z, &data); err != nil {
			return fmt.Errorf("scan block (%d,%d): %w", a, c, err)
		}
		if data < 0 || data >= int(block.Count) {
			continue
		}
		dst.SetBlock(x, y, z, block.ID(data))
	}
	return rows.Err()
}
