package repositories

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/vperelman/dealflow/internal/domain/client"
	"github.com/vperelman/dealflow/internal/infrastructure/database/postgres"
	"github.com/vperelman/dealflow/internal/infrastructure/monitoring/logging"
	"github.com/vperelman/dealflow/pkg/errors"
	"github.com/vperelman/dealflow/pkg/types/common"
)

type postgresClientRepo struct {
	baseRepo
}

// NewPostgresClientRepo returns a client.Repository backed by PostgreSQL.
func NewPostgresClientRepo(conn *postgres.Connection, log logging.Logger) client.Repository {
	return &postgresClientRepo{baseRepo: baseRepo{conn: conn, log: log}}
}

const clientColumns = `
	id, owner_id, name, email, phone, notes, contacts, created_at, updated_at`

func (r *postgresClientRepo) Create(ctx context.Context, c *client.Client) error {
	contacts, err := json.Marshal(c.Contacts)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal contacts")
	}

	query := `
		INSERT INTO clients (` + clientColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err = r.executor().ExecContext(ctx, query,
		string(c.ID), string(c.OwnerID), c.Name, c.Email, c.Phone, c.Notes,
		contacts, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to insert client")
	}
	return nil
}

func (r *postgresClientRepo) FindByID(ctx context.Context, id common.ID) (*client.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE id = $1`
	c, err := scanClient(r.executor().QueryRowContext(ctx, query, string(id)))
	if err == sql.ErrNoRows {
		return nil, errors.New(errors.ErrCodeClientNotFound, "client not found").WithDetail(string(id))
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to load client")
	}
	return c, nil
}

func (r *postgresClientRepo) FindAll(ctx context.Context, ownerID common.UserID, pagination *common.Pagination) ([]*client.Client, error) {
	query := `
		SELECT ` + clientColumns + ` FROM clients
		WHERE owner_id = $1 ORDER BY name ASC
	`
	args := []interface{}{string(ownerID)}
	if pagination != nil {
		query += ` LIMIT $2 OFFSET $3`
		args = append(args, pagination.PageSize, pagination.Offset())
	}

	rows, err := r.executor().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to query clients")
	}
	defer rows.Close()

	clients := []*client.Client{}
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan client row")
		}
		clients = append(clients, c)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "client row iteration failed")
	}
	return clients, nil
}

func (r *postgresClientRepo) Update(ctx context.Context, c *client.Client) error {
	contacts, err := json.Marshal(c.Contacts)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal contacts")
	}

	query := `
		UPDATE clients SET
			owner_id = $2, name = $3, email = $4, phone = $5, notes = $6,
			contacts = $7, updated_at = $8
		WHERE id = $1
	`
	res, err := r.executor().ExecContext(ctx, query,
		string(c.ID), string(c.OwnerID), c.Name, c.Email, c.Phone, c.Notes,
		contacts, c.UpdatedAt,
	)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to update client")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.New(errors.ErrCodeClientNotFound, "client not found").WithDetail(string(c.ID))
	}
	return nil
}

func (r *postgresClientRepo) Delete(ctx context.Context, id common.ID) error {
	res, err := r.executor().ExecContext(ctx, `DELETE FROM clients WHERE id = $1`, string(id))
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to delete client")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.New(errors.ErrCodeClientNotFound, "client not found").WithDetail(string(id))
	}
	return nil
}

func scanClient(s scanner) (*client.Client, error) {
	var (
		c        client.Client
		id, owner string
		contacts []byte
	)

	err := s.Scan(&id, &owner, &c.Name, &c.Email, &c.Phone, &c.Notes,
		&contacts, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}

	c.ID = common.ID(id)
	c.OwnerID = common.UserID(owner)
	if err := json.Unmarshal(contacts, &c.Contacts); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to unmarshal contacts")
	}
	return &c, nil
}
