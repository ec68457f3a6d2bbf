package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vperelman/dealflow/internal/domain/deal"
	"github.com/vperelman/dealflow/internal/domain/schedule"
	"github.com/vperelman/dealflow/internal/infrastructure/database/postgres"
	"github.com/vperelman/dealflow/internal/infrastructure/monitoring/logging"
	"github.com/vperelman/dealflow/pkg/errors"
)

func newMockDealRepo(t *testing.T) (deal.Repository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)

	conn := postgres.NewConnectionWithDB(db, logging.NewNopLogger())
	repo := NewPostgresDealRepo(conn, logging.NewNopLogger())
	return repo, mock, func() { _ = db.Close() }
}

func sampleDeal(t *testing.T) *deal.Deal {
	t.Helper()
	d, err := deal.NewDeal("c1", "anna", "press brake retrofit",
		decimal.NewFromInt(7500), schedule.Date(2024, time.June, 1))
	require.NoError(t, err)
	return d
}

func dealRowColumns() []string {
	return []string{
		"id", "client_id", "contact_id", "owner_id", "title", "value", "status",
		"date_sent", "next_follow_up", "next_follow_up_precision",
		"lost_reason", "closing_value", "follow_ups", "change_log",
		"created_at", "updated_at",
	}
}

func dealToRow(t *testing.T, d *deal.Deal) *sqlmock.Rows {
	t.Helper()
	followUps, err := json.Marshal(d.FollowUps)
	require.NoError(t, err)
	changeLog, err := json.Marshal(d.Log)
	require.NoError(t, err)

	var nextTS interface{}
	var nextPrec interface{}
	if d.NextFollowUp != nil {
		nextTS = d.NextFollowUp.Time()
		nextPrec = string(d.NextFollowUp.Precision())
	}

	return sqlmock.NewRows(dealRowColumns()).AddRow(
		string(d.ID), string(d.ClientID), nil, string(d.OwnerID),
		d.Title, d.Value.String(), string(d.Status),
		d.DateSent.DateTruncated(), nextTS, nextPrec,
		nil, nil, followUps, changeLog,
		d.CreatedAt, d.UpdatedAt,
	)
}

func TestDealRepo_Create(t *testing.T) {
	repo, mock, done := newMockDealRepo(t)
	defer done()

	d := sampleDeal(t)
	mock.ExpectExec(`INSERT INTO deals`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Create(context.Background(), d))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDealRepo_FindByID_RoundTrip(t *testing.T) {
	repo, mock, done := newMockDealRepo(t)
	defer done()

	d := sampleDeal(t)
	next := schedule.Date(2024, time.June, 20)
	_, err := d.AddFollowUp(deal.FollowUpInput{Notes: "sent quote", Next: &next})
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT .+ FROM deals WHERE id`).
		WithArgs(string(d.ID)).
		WillReturnRows(dealToRow(t, d))

	got, err := repo.FindByID(context.Background(), d.ID)
	require.NoError(t, err)
	assert.Equal(t, d.ID, got.ID)
	assert.Equal(t, deal.StatusFollowingUp, got.Status)
	require.NotNil(t, got.NextFollowUp)
	assert.Equal(t, schedule.PrecisionDate, got.NextFollowUp.Precision())
	require.Len(t, got.FollowUps, 1)
	assert.Equal(t, "sent quote", got.FollowUps[0].Notes)
	require.Len(t, got.Log, 1)
	assert.Equal(t, deal.ChangeFollowUpLogged, got.Log[0].Kind)
}

func TestDealRepo_FindByID_NotFound(t *testing.T) {
	repo, mock, done := newMockDealRepo(t)
	defer done()

	mock.ExpectQuery(`SELECT .+ FROM deals WHERE id`).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "missing")
	assert.True(t, errors.IsNotFound(err))
}

func TestDealRepo_Update_NotFound(t *testing.T) {
	repo, mock, done := newMockDealRepo(t)
	defer done()

	d := sampleDeal(t)
	mock.ExpectExec(`UPDATE deals SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), d)
	assert.True(t, errors.IsCode(err, errors.ErrCodeDealNotFound))
}

func TestDealRepo_FindOpenScheduled(t *testing.T) {
	repo, mock, done := newMockDealRepo(t)
	defer done()

	d := sampleDeal(t)
	next := schedule.Date(2024, time.June, 20)
	_, err := d.AddFollowUp(deal.FollowUpInput{Notes: "call", Next: &next})
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT .+ FROM deals\s+WHERE status IN \('sent', 'following_up'\)`).
		WillReturnRows(dealToRow(t, d))

	deals, err := repo.FindOpenScheduled(context.Background())
	require.NoError(t, err)
	require.Len(t, deals, 1)
	assert.True(t, deals[0].Status.IsOpen())
}
