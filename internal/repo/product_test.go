package repo

import (
	"context"
	"regexp"
	"testing"
	"time"

	"dieselhub/pkg/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{})
	require.NoError(t, err)
	return gormDB, mock
}

var productColumns = []string{
	"id", "created_at", "updated_at", "number", "oem", "cross", "manufacturer",
	"condition", "type", "availability", "qty", "price", "engine", "images", "sku",
}

func TestFindByKeyFragments_MatchesNormalizedColumns(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := NewProductRepository(gormDB)

	now := time.Now()
	rows := sqlmock.NewRows(productColumns).
		AddRow(7, now, now, "X-100", "", `["X 100 A"]`, "Bosch", "New", "Injector", "In stock", 2, 150.5, 2.0, `[]`, "")

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "products" WHERE regexp_replace(upper(coalesce(number, '')), '[[:space:]._-]', '', 'g') LIKE $1 OR regexp_replace(upper(coalesce(oem, '')), '[[:space:]._-]', '', 'g') LIKE $2`)).
		WillReturnRows(rows)

	products, err := repo.FindByKeyFragments(context.Background(), []string{"X100"}, 50)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, uint(7), products[0].ID)
	assert.Equal(t, []string{"X 100 A"}, products[0].Cross)
	require.NotNil(t, products[0].Engine)
	assert.Equal(t, 2.0, *products[0].Engine)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByKeyFragments_NoKeysSkipsQuery(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := NewProductRepository(gormDB)

	products, err := repo.FindByKeyFragments(context.Background(), []string{"", ""}, 50)
	assert.NoError(t, err)
	assert.Empty(t, products)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateFields_NotFound(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := NewProductRepository(gormDB)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "products" SET`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := repo.UpdateFields(context.Background(), 99, &models.Product{Number: "A1"})
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateFields_Success(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := NewProductRepository(gormDB)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "products" SET`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.UpdateFields(context.Background(), 3, &models.Product{Number: "A1", Qty: 0})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_Success(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := NewProductRepository(gormDB)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "products"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(11))
	mock.ExpectCommit()

	product := &models.Product{Number: "0445110376", Cross: []string{"A"}, Images: []string{}}
	require.NoError(t, repo.Create(context.Background(), product))
	assert.Equal(t, uint(11), product.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteAll(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := NewProductRepository(gormDB)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "products" WHERE id <> $1`)).
		WithArgs(0).
		WillReturnResult(sqlmock.NewResult(0, 5))
	mock.ExpectCommit()

	assert.NoError(t, repo.DeleteAll(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindBySKUOrNumber_FallsBackToNumber(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := NewProductRepository(gormDB)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "products" WHERE sku = $1`)).
		WillReturnRows(sqlmock.NewRows(productColumns))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "products" WHERE number = $1`)).
		WillReturnRows(sqlmock.NewRows(productColumns).
			AddRow(4, now, now, "P-1", "", `[]`, "", "", "", "", 1, 0, nil, `[]`, ""))

	product, err := repo.FindBySKUOrNumber(context.Background(), "P-1")
	require.NoError(t, err)
	assert.Equal(t, uint(4), product.ID)
	assert.Nil(t, product.Engine)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `A\%B\_C\\`, escapeLike(`A%B_C\`))
}
