package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePermissionLevel(t *testing.T) {
	for raw, want := range map[string]PermissionLevel{
		"READ":    PermissionRead,
		"write":   PermissionWrite,
		" Admin ": PermissionAdmin,
		"NONE":    PermissionNone,
	} {
		got, err := ParsePermissionLevel(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got, raw)
	}
}

func TestParsePermissionLevel_RejectsUnknown(t *testing.T) {
	for _, raw := range []string{"", "OWNER", "READ,WRITE", "superuser"} {
		_, err := ParsePermissionLevel(raw)
		assert.ErrorIs(t, err, ErrUnknownPermission, raw)
	}
}

func TestPermissionLevel_Satisfies(t *testing.T) {
	levels := []PermissionLevel{PermissionNone, PermissionRead, PermissionWrite, PermissionAdmin}
	for _, held := range levels {
		for _, required := range levels {
			want := held == PermissionAdmin || held == required
			assert.Equal(t, want, held.Satisfies(required), "%s satisfies %s", held, required)
		}
	}
	assert.False(t, PermissionWrite.Satisfies(PermissionRead))
	assert.False(t, PermissionRead.Satisfies(PermissionWrite))
}

func TestPermissionLevel_Valid(t *testing.T) {
	assert.True(t, PermissionAdmin.Valid())
	assert.False(t, PermissionLevel("admin").Valid())
	assert.False(t, PermissionLevel("").Valid())
}

func TestDatabaseError_IsOpaque(t *testing.T) {
	driverErr := errors.New("conn refused")
	err := NewDatabaseError("category.add", driverErr)

	assert.ErrorIs(t, err, ErrDatabase)
	assert.NotErrorIs(t, err, driverErr)
	assert.Contains(t, err.Error(), "category.add")
	assert.Contains(t, err.Error(), "conn refused")
}

func TestReissue_WrapsDatabaseError(t *testing.T) {
	inner := NewDatabaseError("store", errors.New("boom"))
	err := Reissue("catalog.list", inner)
	var dbErr *DatabaseError
	require.ErrorAs(t, err, &dbErr)
	assert.Equal(t, "catalog.list", dbErr.Op)

	assert.Equal(t, ErrCategoryNotFound, Reissue("x", ErrCategoryNotFound))
	assert.NoError(t, Reissue("x", nil))
}

func TestNotFoundKindsMatchNotFound(t *testing.T) {
	for _, err := range []error{ErrRoleNotFound, ErrUserNotFound, ErrProductNotFound, ErrCategoryNotFound, ErrOrderNotFound} {
		assert.ErrorIs(t, err, ErrNotFound)
	}
	assert.NotErrorIs(t, ErrProductNotFound, ErrCategoryNotFound)
}

func TestCategoryView_Redact(t *testing.T) {
	desc := "hot drinks"
	view := NewCategoryView(Category{CategoryID: 4, Name: "Coffee", Description: &desc})
	require.NotNil(t, view.CategoryID)
	assert.Equal(t, int64(4), *view.CategoryID)

	view.Redact()
	assert.Nil(t, view.CategoryID)
	assert.Nil(t, view.CreatedAt)
	assert.Nil(t, view.UpdatedAt)
	assert.Equal(t, "Coffee", view.Name)
	assert.Equal(t, &desc, view.Description)
}
