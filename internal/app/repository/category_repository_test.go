package repository

import (
	"context"
	"testing"

	"github.com/fuboru/panel-backend/internal/app/model"
	"github.com/fuboru/panel-backend/internal/db"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestCategoryRepository(t *testing.T) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	defer db.CleanupTestDB(testDB)

	repo := NewCategoryRepository(testDB)
	ctx := context.Background()

	b := &model.Category{Name: "Bumpers", Slug: "bumpers"}
	a := &model.Category{Name: "Antennas", Slug: "antennas"}
	require.NoError(t, repo.Create(ctx, b))
	require.NoError(t, repo.Create(ctx, a))

	t.Run("Duplicate slug", func(t *testing.T) {
		assert.Error(t, repo.Create(ctx, &model.Category{Name: "Other", Slug: "bumpers"}))
	})

	t.Run("List ordered by name", func(t *testing.T) {
		categories, err := repo.FindAll(ctx)
		require.NoError(t, err)
		require.Len(t, categories, 2)
		assert.Equal(t, "Antennas", categories[0].Name)
	})

	t.Run("Find by slug", func(t *testing.T) {
		found, err := repo.FindBySlug(ctx, "bumpers")
		require.NoError(t, err)
		assert.Equal(t, b.ID, found.ID)
	})

	t.Run("Count products", func(t *testing.T) {
		require.NoError(t, testDB.Create(&model.Product{Name: "Front", Slug: "front", CategoryID: b.ID}).Error)
		count, err := repo.CountProducts(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})

	t.Run("Update and delete", func(t *testing.T) {
		a.Name = "Antenna"
		require.NoError(t, repo.Update(ctx, a))
		found, err := repo.FindByID(ctx, a.ID)
		require.NoError(t, err)
		assert.Equal(t, "Antenna", found.Name)

		require.NoError(t, repo.Delete(ctx, a.ID))
		assert.ErrorIs(t, repo.Delete(ctx, a.ID), gorm.ErrRecordNotFound)
		_, err = repo.FindByID(ctx, uuid.New())
		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	})
}
