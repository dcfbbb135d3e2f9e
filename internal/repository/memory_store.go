package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

const foreignKeyViolation = "23503"

type foreignKey struct {
	name     string
	column   string
	refTable string
}

// MemoryStore is an in-process RecordStore. It enforces declared foreign keys
// and reports violations as *pgconn.PgError, the same way PostgreSQL does, so
// code decoding constraint errors behaves identically against both stores.
type MemoryStore struct {
	mu     sync.RWMutex
	tables map[string]map[string]map[string]any
	keys   map[string][]foreignKey
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tables: make(map[string]map[string]map[string]any),
		keys:   make(map[string][]foreignKey),
	}
}

// AddForeignKey declares table.column -> refTable.id, named "<table>_<column>_fkey".
func (s *MemoryStore) AddForeignKey(table, column, refTable string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fks := append(s.keys[table], foreignKey{
		name:     fmt.Sprintf("%s_%s_fkey", table, column),
		column:   column,
		refTable: refTable,
	})
	sort.Slice(fks, func(i, j int) bool { return fks[i].name < fks[j].name })
	s.keys[table] = fks
}

// Seed inserts bare rows keyed by ids, typically reference data.
func (s *MemoryStore) Seed(table string, ids ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows := s.table(table)
	for _, id := range ids {
		rows[id] = map[string]any{"id": id}
	}
}

// Get returns a copy of a row.
func (s *MemoryStore) Get(table, id string) (map[string]any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row, ok := s.tables[table][id]
	if !ok {
		return nil, false
	}
	return copyRow(row), true
}

// Count returns the number of rows in table.
func (s *MemoryStore) Count(table string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tables[table])
}

func (s *MemoryStore) LookupExists(ctx context.Context, table, field, value string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, row := range s.tables[table] {
		current, ok := row[field]
		if !ok || current == nil {
			continue
		}
		if fmt.Sprint(current) == value {
			return true, nil
		}
	}
	return false, nil
}

func (s *MemoryStore) Insert(ctx context.Context, table string, fields map[string]any) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(fields) == 0 {
		return "", fmt.Errorf("insert into %s: no fields", table)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, fk := range s.keys[table] {
		value, ok := fields[fk.column]
		if !ok || value == nil {
			continue
		}
		key := fmt.Sprint(value)
		if _, found := s.tables[fk.refTable][key]; found {
			continue
		}
		return "", fmt.Errorf("failed to insert into %s: %w", table, &pgconn.PgError{
			Severity:       "ERROR",
			Code:           foreignKeyViolation,
			Message:        fmt.Sprintf("insert or update on table %q violates foreign key constraint %q", table, fk.name),
			Detail:         fmt.Sprintf("Key (%s)=(%s) is not present in table %q.", fk.column, key, fk.refTable),
			TableName:      table,
			ColumnName:     fk.column,
			ConstraintName: fk.name,
		})
	}

	row := copyRow(fields)
	id := ""
	if raw, ok := row["id"]; ok && raw != nil {
		id = fmt.Sprint(raw)
	}
	if id == "" {
		id = uuid.NewString()
	}
	row["id"] = id

	rows := s.table(table)
	if _, exists := rows[id]; exists {
		return "", fmt.Errorf("failed to insert into %s: duplicate id %s", table, id)
	}
	rows[id] = row
	return id, nil
}

func (s *MemoryStore) Delete(ctx context.Context, table, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.tables[table], id)
	return nil
}

func (s *MemoryStore) Update(ctx context.Context, table, id string, fields map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.tables[table][id]
	if !ok {
		return fmt.Errorf("update %s %s: %w", table, id, ErrNotFound)
	}
	for key, value := range fields {
		row[key] = value
	}
	return nil
}

func (s *MemoryStore) ListValues(ctx context.Context, table, field string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	values := make([]string, 0, len(s.tables[table]))
	for _, row := range s.tables[table] {
		if value, ok := row[field]; ok && value != nil {
			values = append(values, fmt.Sprint(value))
		}
	}
	sort.Strings(values)
	return values, nil
}

// table must be called with the write lock held.
func (s *MemoryStore) table(name string) map[string]map[string]any {
	rows, ok := s.tables[name]
	if !ok {
		rows = make(map[string]map[string]any)
		s.tables[name] = rows
	}
	return rows
}

func copyRow(row map[string]any) map[string]any {
	out := make(map[string]any, len(row))
	for key, value := range row {
		out[key] = value
	}
	return out
}

var _ RecordStore = (*MemoryStore)(nil)
