package postgres

import (
	"context"
	"errors"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catalog-api/internal/domain"
)

func TestSelectSQL(t *testing.T) {
	assert.Equal(t, "SELECT category_id, name FROM categories", selectSQL("categories", []string{"category_id", "name"}, ""))
	assert.Equal(t, "SELECT category_id, name FROM categories WHERE name = $1",
		selectSQL("categories", []string{"category_id", "name"}, "name = $1"))
}

func TestInsertSQL(t *testing.T) {
	got := insertSQL("product_categories", []string{"product_id", "category_id"}, []string{"product_id", "category_id"})
	assert.Equal(t, "INSERT INTO product_categories (product_id, category_id) VALUES ($1, $2) RETURNING product_id, category_id", got)
}

func TestUpdateSQL(t *testing.T) {
	got := updateSQL("categories", []string{"name"}, []string{"category_id"})
	assert.Equal(t, "UPDATE categories SET name = $1, updated_at = now() WHERE category_id = $2", got)

	got = updateSQL("product_categories", []string{"product_id", "category_id"}, []string{"product_id", "category_id"})
	assert.Equal(t, "UPDATE product_categories SET product_id = $1, category_id = $2, updated_at = now() WHERE product_id = $3 AND category_id = $4", got)
}

func TestQualify(t *testing.T) {
	assert.Equal(t, []string{"p.product_id", "p.name"}, qualify("p", []string{"product_id", "name"}))
}

func TestCategoryChanges_OnlyPresentFields(t *testing.T) {
	name := "Loose leaf"
	columns, args := categoryChanges(domain.UpdateCategory{Name: &name})
	assert.Equal(t, []string{"name"}, columns)
	assert.Equal(t, []any{"Loose leaf"}, args)

	columns, args = categoryChanges(domain.UpdateCategory{})
	assert.Empty(t, columns)
	assert.Empty(t, args)
}

func TestProductChanges(t *testing.T) {
	repo := NewProductRepository(nil, nil)
	price := decimal.RequireFromString("3.20")
	columns, args := repo.t.changes(domain.UpdateProduct{Price: &price})
	assert.Equal(t, []string{"price"}, columns)
	require.Len(t, args, 1)
	assert.True(t, price.Equal(args[0].(decimal.Decimal)))
}

func TestDBError_IsOpaque(t *testing.T) {
	pgErr := &pgconn.PgError{Code: uniqueViolation, ConstraintName: "categories_name_key"}
	err := dbError("category.add", pgErr)

	assert.ErrorIs(t, err, domain.ErrDatabase)
	var target *pgconn.PgError
	assert.False(t, errors.As(err, &target))
	assert.Contains(t, err.Error(), "categories_name_key")
	assert.True(t, isUniqueViolation(pgErr))
	assert.False(t, isUniqueViolation(errors.New("boom")))
}

func TestLoadMigrations_EmbeddedFiles(t *testing.T) {
	migrations, err := LoadMigrations()
	require.NoError(t, err)
	require.Len(t, migrations, 3)
	assert.Equal(t, "0001_identity", migrations[0].Version)
	assert.Contains(t, migrations[0].Up, "permission_level")
	assert.NotContains(t, migrations[1].Up, "REFERENCES categories")
	for _, m := range migrations {
		assert.NotEmpty(t, m.Down, m.Version)
	}
}

func TestLoadMigrations_RequiresUpScript(t *testing.T) {
	fsys := fstest.MapFS{
		"m/0001_a_up.sql":   {Data: []byte("SELECT 1")},
		"m/0002_b_down.sql": {Data: []byte("SELECT 1")},
	}
	_, err := loadMigrations(fsys, "m")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "0002_b"))
}

func TestAcquire_BoundedByPoolTimeout(t *testing.T) {
	cfg, err := pgxpool.ParseConfig("postgres://catalog@127.0.0.1:1/catalog")
	require.NoError(t, err)
	cfg.ConnConfig.ConnectTimeout = 300 * time.Millisecond
	pool, err := pgxpool.NewWithConfig(context.Background(), cfg)
	require.NoError(t, err)
	defer pool.Close()

	assert.Equal(t, 300*time.Millisecond, acquireTimeout(pool))
	assert.Zero(t, acquireTimeout(nil))

	_, err = Acquire(context.Background(), pool, acquireTimeout(pool))
	assert.ErrorContains(t, err, "acquire connection")

	_, _, err = NewCategoryRepository(pool, nil).GetAll(context.Background())
	assert.ErrorIs(t, err, domain.ErrDatabase)
}
