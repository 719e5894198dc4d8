package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/baljuhq/balju-api/internal/models"
)

func newSupplierRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestSupplierRepositoryCreateAndFind(t *testing.T) {
	db, mock, cleanup := newSupplierRepoMock(t)
	defer cleanup()

	repo := NewSupplierRepository(db)
	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO suppliers")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(1), now, now))

	contact := "010-1234-5678"
	supplier := &models.Supplier{Name: "Fresh Farms", Contact: &contact}
	require.NoError(t, repo.Create(context.Background(), supplier))
	require.Equal(t, int64(1), supplier.ID)

	rows := sqlmock.NewRows([]string{"id", "name", "contact", "address", "created_at", "updated_at"}).
		AddRow(int64(1), "Fresh Farms", contact, nil, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, contact, address")).
		WithArgs(int64(1)).
		WillReturnRows(rows)

	found, err := repo.FindByID(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, "Fresh Farms", found.Name)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSupplierRepositoryExistsByName(t *testing.T) {
	db, mock, cleanup := newSupplierRepoMock(t)
	defer cleanup()

	repo := NewSupplierRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM suppliers WHERE LOWER(name) = LOWER($1)")).
		WithArgs("Fresh Farms").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(1))

	exists, err := repo.ExistsByName(context.Background(), "Fresh Farms", 0)
	require.NoError(t, err)
	require.True(t, exists)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM suppliers WHERE LOWER(name) = LOWER($1)")).
		WithArgs("Unknown Co").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}))

	exists, err = repo.ExistsByName(context.Background(), "Unknown Co", 0)
	require.NoError(t, err)
	require.False(t, exists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSupplierRepositoryBulkDeleteGuardsReferences(t *testing.T) {
	db, mock, cleanup := newSupplierRepoMock(t)
	defer cleanup()

	repo := NewSupplierRepository(db)
	ids := []int64{1, 2}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM orders WHERE supplier_id = ANY($1)")).
		WithArgs(pq.Array(ids)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectRollback()

	_, err := repo.BulkDelete(context.Background(), ids)
	var refErr *ReferencedRowsError
	require.ErrorAs(t, err, &refErr)
	require.Equal(t, 3, refErr.Count)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSupplierRepositoryBulkDeleteUnreferenced(t *testing.T) {
	db, mock, cleanup := newSupplierRepoMock(t)
	defer cleanup()

	repo := NewSupplierRepository(db)
	ids := []int64{5, 6}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM orders WHERE supplier_id = ANY($1)")).
		WithArgs(pq.Array(ids)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM suppliers WHERE id = ANY($1)")).
		WithArgs(pq.Array(ids)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	deleted, err := repo.BulkDelete(context.Background(), ids)
	require.NoError(t, err)
	require.Equal(t, int64(2), deleted)
	require.NoError(t, mock.ExpectationsWereMet())
}
