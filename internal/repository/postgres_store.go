package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type postgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore wires a RecordStore backed by pgxpool. Table and column
// names are quoted with pgx.Identifier; values always travel as parameters.
func NewPostgresStore(pool *pgxpool.Pool) RecordStore {
	return &postgresStore{pool: pool}
}

func (s *postgresStore) LookupExists(ctx context.Context, table, field, value string) (bool, error) {
	if s.pool == nil {
		return false, fmt.Errorf("record store not initialized")
	}

	query := fmt.Sprintf(
		"SELECT EXISTS (SELECT 1 FROM %s WHERE %s = $1)",
		pgx.Identifier{table}.Sanitize(),
		pgx.Identifier{field}.Sanitize(),
	)

	var exists bool
	if err := s.pool.QueryRow(ctx, query, value).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to look up %s.%s: %w", table, field, err)
	}
	return exists, nil
}

func (s *postgresStore) Insert(ctx context.Context, table string, fields map[string]any) (string, error) {
	if s.pool == nil {
		return "", fmt.Errorf("record store not initialized")
	}
	if len(fields) == 0 {
		return "", fmt.Errorf("insert into %s: no fields", table)
	}

	columns := sortedKeys(fields)
	quoted := make([]string, len(columns))
	placeholders := make([]string, len(columns))
	args := make([]any, len(columns))
	for i, column := range columns {
		quoted[i] = pgx.Identifier{column}.Sanitize()
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = fields[column]
	}

	query := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) RETURNING id::text",
		pgx.Identifier{table}.Sanitize(),
		strings.Join(quoted, ", "),
		strings.Join(placeholders, ", "),
	)

	var id string
	if err := s.pool.QueryRow(ctx, query, args...).Scan(&id); err != nil {
		return "", fmt.Errorf("failed to insert into %s: %w", table, err)
	}
	return id, nil
}

func (s *postgresStore) Delete(ctx context.Context, table, id string) error {
	if s.pool == nil {
		return fmt.Errorf("record store not initialized")
	}

	query := fmt.Sprintf("DELETE FROM %s WHERE id = $1", pgx.Identifier{table}.Sanitize())
	if _, err := s.pool.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("failed to delete %s %s: %w", table, id, err)
	}
	return nil
}

func (s *postgresStore) Update(ctx context.Context, table, id string, fields map[string]any) error {
	if s.pool == nil {
		return fmt.Errorf("record store not initialized")
	}
	if len(fields) == 0 {
		return nil
	}

	columns := sortedKeys(fields)
	assignments := make([]string, len(columns))
	args := make([]any, 0, len(columns)+1)
	for i, column := range columns {
		assignments[i] = fmt.Sprintf("%s = $%d", pgx.Identifier{column}.Sanitize(), i+1)
		args = append(args, fields[column])
	}
	args = append(args, id)

	query := fmt.Sprintf(
		"UPDATE %s SET %s WHERE id = $%d",
		pgx.Identifier{table}.Sanitize(),
		strings.Join(assignments, ", "),
		len(args),
	)

	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update %s %s: %w", table, id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update %s %s: %w", table, id, ErrNotFound)
	}
	return nil
}

func (s *postgresStore) ListValues(ctx context.Context, table, field string) ([]string, error) {
	if s.pool == nil {
		return nil, fmt.Errorf("record store not initialized")
	}

	column := pgx.Identifier{field}.Sanitize()
	query := fmt.Sprintf(
		"SELECT %s::text FROM %s WHERE %s IS NOT NULL",
		column,
		pgx.Identifier{table}.Sanitize(),
		column,
	)

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s.%s: %w", table, field, err)
	}
	values, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to collect %s.%s: %w", table, field, err)
	}
	return values, nil
}

func sortedKeys(fields map[string]any) []string {
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
