package store

import (
	"context"
	"database/sql"
)

// PostgresReadStore keeps the domain→user-ids listing in a read table.
// Writes are idempotent so event redelivery from the feed is harmless.
type PostgresReadStore struct {
	db *sql.DB
}

func NewPostgresReadStore(db *sql.DB) *PostgresReadStore {
	return &PostgresReadStore{db: db}
}

func (rs *PostgresReadStore) AddUser(ctx context.Context, domainNamespace, userID string) error {
	_, err := rs.db.ExecContext(ctx,
		`INSERT INTO read_domain_users (domain_namespace, user_id)
		 VALUES ($1, $2)
		 ON CONFLICT (domain_namespace, user_id) DO NOTHING`,
		domainNamespace, userID,
	)
	return err
}

func (rs *PostgresReadStore) RemoveUser(ctx context.Context, domainNamespace, userID string) error {
	_, err := rs.db.ExecContext(ctx,
		`DELETE FROM read_domain_users WHERE domain_namespace = $1 AND user_id = $2`,
		domainNamespace, userID,
	)
	return err
}

func (rs *PostgresReadStore) UserIDs(ctx context.Context, domainNamespace string) ([]string, error) {
	rows, err := rs.db.QueryContext(ctx,
		`SELECT user_id FROM read_domain_users WHERE domain_namespace = $1 ORDER BY user_id ASC`,
		domainNamespace,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// EnsureReadSchema creates the read table if it does not exist
func EnsureReadSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS read_domain_users (
			domain_namespace TEXT NOT NULL,
			user_id          TEXT NOT NULL,
			PRIMARY KEY (domain_namespace, user_id)
		);
	`)
	return err
}
