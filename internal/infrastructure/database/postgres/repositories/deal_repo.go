package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vperelman/dealflow/internal/domain/deal"
	"github.com/vperelman/dealflow/internal/domain/schedule"
	"github.com/vperelman/dealflow/internal/infrastructure/database/postgres"
	"github.com/vperelman/dealflow/internal/infrastructure/monitoring/logging"
	"github.com/vperelman/dealflow/pkg/errors"
	"github.com/vperelman/dealflow/pkg/types/common"
)

type postgresDealRepo struct {
	baseRepo
}

// NewPostgresDealRepo returns a deal.Repository backed by PostgreSQL.
func NewPostgresDealRepo(conn *postgres.Connection, log logging.Logger) deal.Repository {
	return &postgresDealRepo{baseRepo: baseRepo{conn: conn, log: log}}
}

const dealColumns = `
	id, client_id, contact_id, owner_id, title, value, status,
	date_sent, next_follow_up, next_follow_up_precision,
	lost_reason, closing_value, follow_ups, change_log,
	created_at, updated_at`

func (r *postgresDealRepo) Create(ctx context.Context, d *deal.Deal) error {
	followUps, changeLog, err := marshalDealJSON(d)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO deals (` + dealColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`
	nextTS, nextPrec := momentColumns(d.NextFollowUp)
	_, err = r.executor().ExecContext(ctx, query,
		string(d.ID), string(d.ClientID), nullableID(d.ContactID), string(d.OwnerID),
		d.Title, d.Value, string(d.Status),
		d.DateSent.DateTruncated(), nextTS, nextPrec,
		nullString(d.LostReason), d.ClosingValue, followUps, changeLog,
		d.CreatedAt, d.UpdatedAt,
	)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to insert deal")
	}
	return nil
}

func (r *postgresDealRepo) FindByID(ctx context.Context, id common.ID) (*deal.Deal, error) {
	query := `SELECT ` + dealColumns + ` FROM deals WHERE id = $1`
	d, err := scanDeal(r.executor().QueryRowContext(ctx, query, string(id)))
	if err == sql.ErrNoRows {
		return nil, errors.New(errors.ErrCodeDealNotFound, "deal not found").WithDetail(string(id))
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to load deal")
	}
	return d, nil
}

func (r *postgresDealRepo) FindAll(ctx context.Context) ([]*deal.Deal, error) {
	query := `SELECT ` + dealColumns + ` FROM deals ORDER BY created_at DESC`
	return r.queryDeals(ctx, query)
}

func (r *postgresDealRepo) FindByClientID(ctx context.Context, clientID common.ID) ([]*deal.Deal, error) {
	query := `SELECT ` + dealColumns + ` FROM deals WHERE client_id = $1 ORDER BY created_at DESC`
	return r.queryDeals(ctx, query, string(clientID))
}

func (r *postgresDealRepo) FindOpenScheduled(ctx context.Context) ([]*deal.Deal, error) {
	query := `
		SELECT ` + dealColumns + ` FROM deals
		WHERE status IN ('sent', 'following_up') AND next_follow_up IS NOT NULL
		ORDER BY next_follow_up ASC
	`
	return r.queryDeals(ctx, query)
}

func (r *postgresDealRepo) FindDecidedSince(ctx context.Context, since time.Time) ([]*deal.Deal, error) {
	query := `
		SELECT ` + dealColumns + ` FROM deals
		WHERE status IN ('won', 'lost') AND updated_at >= $1
		ORDER BY updated_at DESC
	`
	return r.queryDeals(ctx, query, since)
}

func (r *postgresDealRepo) Update(ctx context.Context, d *deal.Deal) error {
	followUps, changeLog, err := marshalDealJSON(d)
	if err != nil {
		return err
	}

	query := `
		UPDATE deals SET
			client_id = $2, contact_id = $3, owner_id = $4, title = $5,
			value = $6, status = $7, date_sent = $8,
			next_follow_up = $9, next_follow_up_precision = $10,
			lost_reason = $11, closing_value = $12,
			follow_ups = $13, change_log = $14, updated_at = $15
		WHERE id = $1
	`
	nextTS, nextPrec := momentColumns(d.NextFollowUp)
	res, err := r.executor().ExecContext(ctx, query,
		string(d.ID), string(d.ClientID), nullableID(d.ContactID), string(d.OwnerID),
		d.Title, d.Value, string(d.Status), d.DateSent.DateTruncated(),
		nextTS, nextPrec,
		nullString(d.LostReason), d.ClosingValue, followUps, changeLog,
		d.UpdatedAt,
	)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to update deal")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.New(errors.ErrCodeDealNotFound, "deal not found").WithDetail(string(d.ID))
	}
	return nil
}

func (r *postgresDealRepo) Delete(ctx context.Context, id common.ID) error {
	res, err := r.executor().ExecContext(ctx, `DELETE FROM deals WHERE id = $1`, string(id))
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to delete deal")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.New(errors.ErrCodeDealNotFound, "deal not found").WithDetail(string(id))
	}
	return nil
}

func (r *postgresDealRepo) queryDeals(ctx context.Context, query string, args ...interface{}) ([]*deal.Deal, error) {
	rows, err := r.executor().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to query deals")
	}
	defer rows.Close()

	deals := []*deal.Deal{}
	for rows.Next() {
		d, err := scanDeal(rows)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan deal row")
		}
		deals = append(deals, d)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "deal row iteration failed")
	}
	return deals, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Row mapping
// ─────────────────────────────────────────────────────────────────────────────

func marshalDealJSON(d *deal.Deal) (followUps, changeLog []byte, err error) {
	followUps, err = json.Marshal(d.FollowUps)
	if err != nil {
		return nil, nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal follow-ups")
	}
	changeLog, err = json.Marshal(d.Log)
	if err != nil {
		return nil, nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal change log")
	}
	return followUps, changeLog, nil
}

func scanDeal(s scanner) (*deal.Deal, error) {
	var (
		d            deal.Deal
		id, clientID string
		contactID    sql.NullString
		ownerID      string
		status       string
		dateSent     time.Time
		nextTS       sql.NullTime
		nextPrec     sql.NullString
		lostReason   sql.NullString
		closingValue decimal.NullDecimal
		followUps    []byte
		changeLog    []byte
	)

	err := s.Scan(
		&id, &clientID, &contactID, &ownerID, &d.Title, &d.Value, &status,
		&dateSent, &nextTS, &nextPrec,
		&lostReason, &closingValue, &followUps, &changeLog,
		&d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if closingValue.Valid {
		cv := closingValue.Decimal
		d.ClosingValue = &cv
	}

	d.ID = common.ID(id)
	d.ClientID = common.ID(clientID)
	if contactID.Valid {
		cid := common.ID(contactID.String)
		d.ContactID = &cid
	}
	d.OwnerID = common.UserID(ownerID)
	d.Status = deal.Status(status)
	d.DateSent = schedule.DateOf(dateSent)
	d.LostReason = lostReason.String

	if nextTS.Valid {
		prec := schedule.PrecisionInstant
		if nextPrec.Valid && nextPrec.String == string(schedule.PrecisionDate) {
			prec = schedule.PrecisionDate
		}
		m := schedule.FromStored(nextTS.Time, prec)
		d.NextFollowUp = &m
	}

	if err := json.Unmarshal(followUps, &d.FollowUps); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to unmarshal follow-ups")
	}
	if err := json.Unmarshal(changeLog, &d.Log); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to unmarshal change log")
	}

	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

func momentColumns(m *schedule.Moment) (interface{}, interface{}) {
	if m == nil {
		return nil, nil
	}
	return m.Time(), string(m.Precision())
}

func nullableID(id *common.ID) interface{} {
	if id == nil {
		return nil
	}
	return string(*id)
}

func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
