package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/huangsam/orgpulse/schema"
)

// UpsertOrganization returns the organization with the given name, creating it on first sight.
func (s *Store) UpsertOrganization(ctx context.Context, name string) (schema.Organization, error) {
	if s.disabled() {
		return schema.Organization{Name: name}, nil
	}
	id, err := s.upsert(ctx, s.db, organizationsTable, []string{"name"}, []string{"name"}, name)
	if err != nil {
		return schema.Organization{}, fmt.Errorf("failed to upsert organization %q: %w", name, err)
	}
	return schema.Organization{ID: id, Name: name}, nil
}

// UpsertRepository returns the repository with the given name under org, creating it on first sight.
func (s *Store) UpsertRepository(ctx context.Context, org schema.Organization, name string) (schema.Repository, error) {
	if s.disabled() {
		return schema.Repository{Name: name, OrganizationID: org.ID}, nil
	}
	id, err := s.upsert(ctx, s.db, repositoriesTable,
		[]string{"organization_id", "name"}, []string{"organization_id", "name"}, org.ID, name)
	if err != nil {
		return schema.Repository{}, fmt.Errorf("failed to upsert repository %q: %w", schema.RepoKey(org.Name, name), err)
	}
	return schema.Repository{ID: id, Name: name, OrganizationID: org.ID}, nil
}

// UpsertContributor returns the contributor with the given username, creating it on first sight.
func (s *Store) UpsertContributor(ctx context.Context, username string) (schema.Contributor, error) {
	if s.disabled() {
		return schema.Contributor{Username: username}, nil
	}
	return s.upsertContributor(ctx, s.db, username)
}

func (s *Store) upsertContributor(ctx context.Context, q dbtx, username string) (schema.Contributor, error) {
	id, err := s.upsert(ctx, q, contributorsTable, []string{"username"}, []string{"username"}, username)
	if err != nil {
		return schema.Contributor{}, fmt.Errorf("failed to upsert contributor %q: %w", username, err)
	}
	return schema.Contributor{ID: id, Username: username}, nil
}

// upsert inserts a row keyed by keyCols and returns its id whether or not it already existed.
// Args are positional and match cols.
func (s *Store) upsert(ctx context.Context, q dbtx, table string, cols, keyCols []string, args ...any) (int64, error) {
	if err := validateTableName(table); err != nil {
		return 0, err
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
	quotedTable := quoteTableName(table, s.backend)

	var id int64
	switch s.backend {
	case schema.MySQLBackend:
		// LAST_INSERT_ID(id) makes the existing row's id visible through LastInsertId.
		query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s) ON DUPLICATE KEY UPDATE id = LAST_INSERT_ID(id)`,
			quotedTable, strings.Join(cols, ", "), placeholders)
		res, err := q.ExecContext(ctx, query, args...)
		if err != nil {
			return 0, err
		}
		return res.LastInsertId()

	default: // SQLite and PostgreSQL
		first := keyCols[0]
		query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (%s) DO UPDATE SET %s = excluded.%s RETURNING id`,
			quotedTable, strings.Join(cols, ", "), placeholders, strings.Join(keyCols, ", "), first, first)
		if err := q.QueryRowContext(ctx, s.rebind(query), args...).Scan(&id); err != nil {
			return 0, err
		}
	}
	return id, nil
}

// insert adds a row and returns its generated id.
func (s *Store) insert(ctx context.Context, q dbtx, table string, cols []string, args ...any) (int64, error) {
	if err := validateTableName(table); err != nil {
		return 0, err
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)`,
		quoteTableName(table, s.backend), strings.Join(cols, ", "), placeholders)

	switch s.backend {
	case schema.PostgreSQLBackend:
		var id int64
		if err := q.QueryRowContext(ctx, s.rebind(query+" RETURNING id"), args...).Scan(&id); err != nil {
			return 0, err
		}
		return id, nil
	default: // SQLite and MySQL
		res, err := q.ExecContext(ctx, query, args...)
		if err != nil {
			return 0, err
		}
		return res.LastInsertId()
	}
}
