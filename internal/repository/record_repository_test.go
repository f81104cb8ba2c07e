package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/humna-mustafa/pakuni-api/internal/models"
)

func newRecordRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestRecordRepositoryUpsertField(t *testing.T) {
	db, mock, cleanup := newRecordRepoMock(t)
	defer cleanup()

	repo := NewRecordRepository(db)
	mock.ExpectExec("INSERT INTO canonical_fields.+ON CONFLICT \\(entity_type, entity_id, field_name\\) DO UPDATE").
		WillReturnResult(sqlmock.NewResult(1, 1))

	field := &models.CanonicalField{
		EntityType: models.EntityMerit,
		EntityID:   "uni-42",
		FieldName:  "aggregate_cutoff",
		Value:      "82",
		UpdatedBy:  "reviewer-1",
	}
	require.NoError(t, repo.UpsertField(context.Background(), field))
	require.False(t, field.UpdatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordRepositoryGetField(t *testing.T) {
	db, mock, cleanup := newRecordRepoMock(t)
	defer cleanup()

	repo := NewRecordRepository(db)
	rows := sqlmock.NewRows([]string{"entity_type", "entity_id", "field_name", "value", "updated_at", "updated_by"}).
		AddRow("MERIT", "uni-42", "aggregate_cutoff", "82", time.Now(), "reviewer-1")
	mock.ExpectQuery("SELECT entity_type, entity_id, field_name").
		WithArgs("MERIT", "uni-42", "aggregate_cutoff").
		WillReturnRows(rows)

	field, err := repo.GetField(context.Background(), models.EntityMerit, "uni-42", "aggregate_cutoff")
	require.NoError(t, err)
	require.Equal(t, "82", field.Value)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordRepositoryRefreshAggregate(t *testing.T) {
	db, mock, cleanup := newRecordRepoMock(t)
	defer cleanup()

	repo := NewRecordRepository(db)
	mock.ExpectExec("INSERT INTO derived_aggregates.+jsonb_object_agg").
		WithArgs("merit_cutoff_list", models.EntityMerit, "uni-42").
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.RefreshAggregate(context.Background(), "merit_cutoff_list", models.EntityMerit, "uni-42"))
	require.NoError(t, mock.ExpectationsWereMet())
}
