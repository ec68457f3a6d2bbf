package repositories

import (
	"context"
	"database/sql"
	"time"

	"github.com/vperelman/dealflow/internal/domain/reminder"
	"github.com/vperelman/dealflow/internal/domain/schedule"
	"github.com/vperelman/dealflow/internal/infrastructure/database/postgres"
	"github.com/vperelman/dealflow/internal/infrastructure/monitoring/logging"
	"github.com/vperelman/dealflow/pkg/errors"
	"github.com/vperelman/dealflow/pkg/types/common"
)

type postgresReminderRepo struct {
	baseRepo
}

// NewPostgresReminderRepo returns a reminder.Repository backed by PostgreSQL.
func NewPostgresReminderRepo(conn *postgres.Connection, log logging.Logger) reminder.Repository {
	return &postgresReminderRepo{baseRepo: baseRepo{conn: conn, log: log}}
}

const reminderColumns = `
	id, owner_id, title, notes, moment, moment_precision,
	completed, dismissed, created_at, updated_at`

func (r *postgresReminderRepo) Create(ctx context.Context, rem *reminder.Reminder) error {
	query := `
		INSERT INTO reminders (` + reminderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.executor().ExecContext(ctx, query,
		string(rem.ID), string(rem.OwnerID), rem.Title, rem.Notes,
		rem.Moment.Time(), string(rem.Moment.Precision()),
		rem.Completed, rem.Dismissed, rem.CreatedAt, rem.UpdatedAt,
	)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to insert reminder")
	}
	return nil
}

func (r *postgresReminderRepo) FindByID(ctx context.Context, id common.ID) (*reminder.Reminder, error) {
	query := `SELECT ` + reminderColumns + ` FROM reminders WHERE id = $1`
	rem, err := scanReminder(r.executor().QueryRowContext(ctx, query, string(id)))
	if err == sql.ErrNoRows {
		return nil, errors.New(errors.ErrCodeReminderNotFound, "reminder not found").WithDetail(string(id))
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to load reminder")
	}
	return rem, nil
}

func (r *postgresReminderRepo) FindAll(ctx context.Context, ownerID common.UserID, pagination *common.Pagination) ([]*reminder.Reminder, error) {
	query := `
		SELECT ` + reminderColumns + ` FROM reminders
		WHERE owner_id = $1 ORDER BY moment ASC
	`
	args := []interface{}{string(ownerID)}
	if pagination != nil {
		query += ` LIMIT $2 OFFSET $3`
		args = append(args, pagination.PageSize, pagination.Offset())
	}
	return r.queryReminders(ctx, query, args...)
}

func (r *postgresReminderRepo) FindPending(ctx context.Context, ownerID common.UserID) ([]*reminder.Reminder, error) {
	query := `
		SELECT ` + reminderColumns + ` FROM reminders
		WHERE owner_id = $1 AND NOT completed AND NOT dismissed
		ORDER BY moment ASC
	`
	return r.queryReminders(ctx, query, string(ownerID))
}

func (r *postgresReminderRepo) Update(ctx context.Context, rem *reminder.Reminder) error {
	query := `
		UPDATE reminders SET
			owner_id = $2, title = $3, notes = $4,
			moment = $5, moment_precision = $6,
			completed = $7, dismissed = $8, updated_at = $9
		WHERE id = $1
	`
	res, err := r.executor().ExecContext(ctx, query,
		string(rem.ID), string(rem.OwnerID), rem.Title, rem.Notes,
		rem.Moment.Time(), string(rem.Moment.Precision()),
		rem.Completed, rem.Dismissed, rem.UpdatedAt,
	)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to update reminder")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.New(errors.ErrCodeReminderNotFound, "reminder not found").WithDetail(string(rem.ID))
	}
	return nil
}

func (r *postgresReminderRepo) Delete(ctx context.Context, id common.ID) error {
	res, err := r.executor().ExecContext(ctx, `DELETE FROM reminders WHERE id = $1`, string(id))
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to delete reminder")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.New(errors.ErrCodeReminderNotFound, "reminder not found").WithDetail(string(id))
	}
	return nil
}

func (r *postgresReminderRepo) queryReminders(ctx context.Context, query string, args ...interface{}) ([]*reminder.Reminder, error) {
	rows, err := r.executor().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to query reminders")
	}
	defer rows.Close()

	reminders := []*reminder.Reminder{}
	for rows.Next() {
		rem, err := scanReminder(rows)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan reminder row")
		}
		reminders = append(reminders, rem)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "reminder row iteration failed")
	}
	return reminders, nil
}

func scanReminder(s scanner) (*reminder.Reminder, error) {
	var (
		rem        reminder.Reminder
		id, owner  string
		momentTS   time.Time
		momentPrec string
	)

	err := s.Scan(
		&id, &owner, &rem.Title, &rem.Notes, &momentTS, &momentPrec,
		&rem.Completed, &rem.Dismissed, &rem.CreatedAt, &rem.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	rem.ID = common.ID(id)
	rem.OwnerID = common.UserID(owner)

	prec := schedule.PrecisionInstant
	if momentPrec == string(schedule.PrecisionDate) {
		prec = schedule.PrecisionDate
	}
	rem.Moment = schedule.FromStored(momentTS, prec)

	return &rem, nil
}
