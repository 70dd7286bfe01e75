// SPDX-License-Identifier: MIT

package store

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	_ "modernc.org/sqlite"
)

var (
	// ErrDuplicateOutput is matched by *DuplicateError.
	ErrDuplicateOutput = errors.New("store: group already stored")

	// ErrNotFound indicates a missing top-level group.
	ErrNotFound = errors.New("store: group not found")

	// ErrBadKey indicates an empty name or one containing '/'.
	ErrBadKey = errors.New("store: invalid group name")

	// ErrUnsupportedAttr indicates an attribute value of an unsupported type.
	ErrUnsupportedAttr = errors.New("store: unsupported attribute type")
)

// DuplicateError reports a Put on an existing key.
type DuplicateError struct {
	Key  string
	Path string // file holding the existing group
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("%v in %s: %s", ErrDuplicateOutput, e.Path, e.Key)
}

func (e *DuplicateError) Unwrap() error { return ErrDuplicateOutput }

// Store is a SQLite-backed group hierarchy.
type Store struct {
	db   *sql.DB
	path string
	mu   sync.Mutex // serialises writers
}

const schema = `
CREATE TABLE IF NOT EXISTS groups (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	path      TEXT NOT NULL UNIQUE,
	parent_id INTEGER REFERENCES groups(id)
);
CREATE INDEX IF NOT EXISTS idx_groups_parent ON groups(parent_id);

CREATE TABLE IF NOT EXISTS attrs (
	group_id INTEGER NOT NULL REFERENCES groups(id),
	name     TEXT NOT NULL,
	kind     TEXT NOT NULL,
	num      REAL,
	txt      TEXT,
	PRIMARY KEY (group_id, name)
);

CREATE TABLE IF NOT EXISTS datasets (
	group_id INTEGER NOT NULL REFERENCES groups(id),
	name     TEXT NOT NULL,
	data     BLOB NOT NULL,
	PRIMARY KEY (group_id, name)
);
`

// Open opens or creates the store at path. The parent directory is created
// if missing.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("store: create directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: create schema: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

// Path is the database file.
func (s *Store) Path() string { return s.path }

// Close releases the database.
func (s *Store) Close() error { return s.db.Close() }

// Put writes node under key in one transaction. It fails with a
// *DuplicateError when key already exists.
func (s *Store) Put(ctx context.Context, key string, node *Node) error {
	if err := checkName(key); err != nil {
		return err
	}
	if node == nil {
		node = NewNode()
	}
	if err := node.validate(key); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM groups WHERE path = ?`, key).Scan(&exists)
	if err != nil {
		return fmt.Errorf("store: lookup %s: %w", key, err)
	}
	if exists > 0 {
		return &DuplicateError{Key: key, Path: s.path}
	}
	if err := insertNode(ctx, tx, key, nil, node); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit %s: %w", key, err)
	}
	return nil
}

func insertNode(ctx context.Context, tx *sql.Tx, path string, parent *int64, n *Node) error {
	res, err := tx.ExecContext(ctx, `INSERT INTO groups (path, parent_id) VALUES (?, ?)`, path, parent)
	if err != nil {
		return fmt.Errorf("store: insert group %s: %w", path, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("store: group id %s: %w", path, err)
	}

	for _, name := range n.AttrNames() {
		kind, num, txt := encodeAttr(n.Attrs[name])
		_, err := tx.ExecContext(ctx,
			`INSERT INTO attrs (group_id, name, kind, num, txt) VALUES (?, ?, ?, ?, ?)`,
			id, name, kind, num, txt)
		if err != nil {
			return fmt.Errorf("store: attribute %s/%s: %w", path, name, err)
		}
	}
	for _, name := range n.DatasetNames() {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO datasets (group_id, name, data) VALUES (?, ?, ?)`,
			id, name, encodeFloats(n.Datasets[name]))
		if err != nil {
			return fmt.Errorf("store: dataset %s/%s: %w", path, name, err)
		}
	}
	for _, name := range n.ChildNames() {
		if err := insertNode(ctx, tx, path+"/"+name, &id, n.Children[name]); err != nil {
			return err
		}
	}
	return nil
}

// Has reports whether key exists.
func (s *Store) Has(ctx context.Context, key string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM groups WHERE path = ? AND parent_id IS NULL`, key).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("store: lookup %s: %w", key, err)
	}
	return n > 0, nil
}

// Keys lists the top-level groups in sorted order.
func (s *Store) Keys(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT path FROM groups WHERE parent_id IS NULL ORDER BY path`)
	if err != nil {
		return nil, fmt.Errorf("store: list keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// Get reads the group stored under key with all of its descendants.
func (s *Store) Get(ctx context.Context, key string) (*Node, error) {
	// Descendant paths sort between key+"/" and key+"0" ('0' follows '/'),
	// and every parent sorts before its children.
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, path FROM groups WHERE path = ? OR (path >= ? AND path < ?) ORDER BY path`,
		key, key+"/", key+"0")
	if err != nil {
		return nil, fmt.Errorf("store: read %s: %w", key, err)
	}
	type group struct {
		id   int64
		path string
	}
	var groups []group
	for rows.Next() {
		var g group
		if err := rows.Scan(&g.id, &g.path); err != nil {
			rows.Close()
			return nil, err
		}
		groups = append(groups, g)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(groups) == 0 || groups[0].path != key {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}

	byPath := make(map[string]*Node, len(groups))
	for _, g := range groups {
		n := NewNode()
		if err := s.loadContents(ctx, g.id, n); err != nil {
			return nil, err
		}
		byPath[g.path] = n
		if g.path == key {
			continue
		}
		cut := strings.LastIndexByte(g.path, '/')
		parent, ok := byPath[g.path[:cut]]
		if !ok {
			return nil, fmt.Errorf("store: orphan group %s", g.path)
		}
		parent.Children[g.path[cut+1:]] = n
	}
	return byPath[key], nil
}

func (s *Store) loadContents(ctx context.Context, id int64, n *Node) error {
	rows, err := s.db.QueryContext(ctx, `SELECT name, kind, num, txt FROM attrs WHERE group_id = ?`, id)
	if err != nil {
		return fmt.Errorf("store: read attributes: %w", err)
	}
	for rows.Next() {
		var (
			name, kind string
			num        sql.NullFloat64
			txt        sql.NullString
		)
		if err := rows.Scan(&name, &kind, &num, &txt); err != nil {
			rows.Close()
			return err
		}
		n.Attrs[name] = decodeAttr(kind, num.Float64, txt.String)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = s.db.QueryContext(ctx, `SELECT name, data FROM datasets WHERE group_id = ?`, id)
	if err != nil {
		return fmt.Errorf("store: read datasets: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			name string
			blob []byte
		)
		if err := rows.Scan(&name, &blob); err != nil {
			return err
		}
		data, err := decodeFloats(blob)
		if err != nil {
			return fmt.Errorf("store: dataset %s: %w", name, err)
		}
		n.Datasets[name] = data
	}
	return rows.Err()
}

func encodeAttr(v any) (kind string, num sql.NullFloat64, txt sql.NullString) {
	switch x := v.(type) {
	case float64:
		return "f", sql.NullFloat64{Float64: x, Valid: true}, txt
	case int64:
		return "i", num, sql.NullString{String: strconv.FormatInt(x, 10), Valid: true}
	case bool:
		b := 0.0
		if x {
			b = 1
		}
		return "b", sql.NullFloat64{Float64: b, Valid: true}, txt
	case string:
		return "s", num, sql.NullString{String: x, Valid: true}
	}
	panic(fmt.Sprintf("store: unreachable attribute type %T", v))
}

func decodeAttr(kind string, num float64, txt string) any {
	switch kind {
	case "f":
		return num
	case "i":
		i, _ := strconv.ParseInt(txt, 10, 64)
		return i
	case "b":
		return num != 0
	default:
		return txt
	}
}

// encodeFloats packs data as little-endian IEEE-754 doubles.
func encodeFloats(data []float64) []byte {
	buf := make([]byte, 8*len(data))
	for i, v := range data {
		binary.LittleEndian.PutUint64(buf[8*i:], math.Float64bits(v))
	}
	return buf
}

func decodeFloats(blob []byte) ([]float64, error) {
	if len(blob)%8 != 0 {
		return nil, fmt.Errorf("blob length %d is not a multiple of 8", len(blob))
	}
	out := make([]float64, len(blob)/8)
	if err := binary.Read(bytes.NewReader(blob), binary.LittleEndian, out); err != nil {
		return nil, err
	}
	return out, nil
}

func checkName(name string) error {
	if name == "" || strings.ContainsRune(name, '/') {
		return fmt.Errorf("%w: %q", ErrBadKey, name)
	}
	return nil
}
