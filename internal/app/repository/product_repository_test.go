package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/fuboru/panel-backend/internal/app/model"
	"github.com/fuboru/panel-backend/internal/db"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupProductTest(t *testing.T) (*gorm.DB, ProductRepository, *model.Category, *model.Brand) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)

	category := &model.Category{Name: "Door Handles", Slug: "door-handles"}
	require.NoError(t, testDB.Create(category).Error)
	brand := &model.Brand{Name: "Toyota"}
	require.NoError(t, testDB.Create(brand).Error)

	return testDB, NewProductRepository(testDB), category, brand
}

func TestProductRepository_CreateAndFindByID(t *testing.T) {
	testDB, repo, category, brand := setupProductTest(t)
	defer db.CleanupTestDB(testDB)
	ctx := context.Background()

	product := &model.Product{Name: "Lever", Slug: "lever", CategoryID: category.ID, Image: "a.png"}
	require.NoError(t, repo.Create(ctx, product))
	assert.NotEqual(t, uuid.Nil, product.ID)

	socials := []model.Social{
		{ProductID: product.ID, Name: "YouTube", Link: "https://youtu.be/x", Position: 1},
		{ProductID: product.ID, Name: "Instagram", Link: "https://instagram.com/x", Position: 0},
	}
	require.NoError(t, repo.CreateSocials(ctx, socials))
	assert.NotEqual(t, uuid.Nil, socials[0].ID)

	productBrands := []model.ProductBrand{{ProductID: product.ID, BrandID: brand.ID}}
	require.NoError(t, repo.CreateProductBrands(ctx, productBrands))
	require.NotEqual(t, uuid.Nil, productBrands[0].ID)

	brandTypes := []model.BrandType{
		{ProductBrandID: productBrands[0].ID, Type: "Avanza", Position: 0},
		{ProductBrandID: productBrands[0].ID, Type: "Rush", Position: 1},
	}
	require.NoError(t, repo.CreateBrandTypes(ctx, brandTypes))

	found, err := repo.FindByID(ctx, product.ID)
	require.NoError(t, err)
	require.NotNil(t, found.Category)
	assert.Equal(t, "Door Handles", found.Category.Name)
	require.Len(t, found.Socials, 2)
	assert.Equal(t, "Instagram", found.Socials[0].Name)
	require.Len(t, found.ProductBrands, 1)
	require.NotNil(t, found.ProductBrands[0].Brand)
	assert.Equal(t, "Toyota", found.ProductBrands[0].Brand.Name)
	require.Len(t, found.ProductBrands[0].BrandTypes, 2)
	assert.Equal(t, "Avanza", found.ProductBrands[0].BrandTypes[0].Type)
}

func TestProductRepository_FindByID_NotFound(t *testing.T) {
	testDB, repo, _, _ := setupProductTest(t)
	defer db.CleanupTestDB(testDB)

	_, err := repo.FindByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestProductRepository_FindAll(t *testing.T) {
	testDB, repo, category, _ := setupProductTest(t)
	defer db.CleanupTestDB(testDB)
	ctx := context.Background()

	for _, name := range []string{"Spoiler", "Antenna", "Mirror"} {
		require.NoError(t, repo.Create(ctx, &model.Product{Name: name, Slug: name, CategoryID: category.ID}))
	}

	products, err := repo.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, products, 3)
	assert.Equal(t, "Antenna", products[0].Name)
	assert.Equal(t, "Spoiler", products[2].Name)
	require.NotNil(t, products[0].Category)
	assert.Equal(t, category.Name, products[0].Category.Name)
}

func TestProductRepository_EmptyChildSetsAreNoops(t *testing.T) {
	testDB, repo, _, _ := setupProductTest(t)
	defer db.CleanupTestDB(testDB)
	ctx := context.Background()

	assert.NoError(t, repo.CreateSocials(ctx, nil))
	assert.NoError(t, repo.CreateProductBrands(ctx, []model.ProductBrand{}))
	assert.NoError(t, repo.CreateBrandTypes(ctx, nil))
	assert.NoError(t, repo.DeleteBrandTypesByProductBrandIDs(ctx, nil))
}

func TestProductRepository_Update(t *testing.T) {
	testDB, repo, category, _ := setupProductTest(t)
	defer db.CleanupTestDB(testDB)
	ctx := context.Background()

	product := &model.Product{Name: "Lever", Slug: "lever", CategoryID: category.ID, Description: "old"}
	require.NoError(t, repo.Create(ctx, product))

	product.Name = "Lever Pro"
	product.Description = ""
	require.NoError(t, repo.Update(ctx, product))

	found, err := repo.FindByIDForUpdate(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, "Lever Pro", found.Name)
	assert.Empty(t, found.Description)
}

func TestProductRepository_DeleteChildren(t *testing.T) {
	testDB, repo, category, brand := setupProductTest(t)
	defer db.CleanupTestDB(testDB)
	ctx := context.Background()

	product := &model.Product{Name: "Lever", Slug: "lever", CategoryID: category.ID}
	require.NoError(t, repo.Create(ctx, product))
	require.NoError(t, repo.CreateSocials(ctx, []model.Social{{ProductID: product.ID, Name: "x"}}))
	productBrands := []model.ProductBrand{{ProductID: product.ID, BrandID: brand.ID}}
	require.NoError(t, repo.CreateProductBrands(ctx, productBrands))
	require.NoError(t, repo.CreateBrandTypes(ctx, []model.BrandType{{ProductBrandID: productBrands[0].ID, Type: "A"}}))

	ids, err := repo.FindProductBrandIDs(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{productBrands[0].ID}, ids)

	require.NoError(t, repo.DeleteBrandTypesByProductBrandIDs(ctx, ids))
	require.NoError(t, repo.DeleteProductBrandsByProductID(ctx, product.ID))
	require.NoError(t, repo.DeleteSocialsByProductID(ctx, product.ID))
	require.NoError(t, repo.Delete(ctx, product.ID))

	for _, m := range []interface{}{&model.BrandType{}, &model.ProductBrand{}, &model.Social{}, &model.Product{}} {
		var count int64
		require.NoError(t, testDB.Model(m).Count(&count).Error)
		assert.Zero(t, count)
	}

	assert.ErrorIs(t, repo.Delete(ctx, product.ID), gorm.ErrRecordNotFound)
}

func TestProductRepository_TransactionRollsBack(t *testing.T) {
	testDB, repo, category, _ := setupProductTest(t)
	defer db.CleanupTestDB(testDB)
	ctx := context.Background()

	boom := errors.New("boom")
	err := repo.Transaction(ctx, func(tx ProductRepository) error {
		product := &model.Product{Name: "Lever", Slug: "lever", CategoryID: category.ID}
		if err := tx.Create(ctx, product); err != nil {
			return err
		}
		if err := tx.CreateSocials(ctx, []model.Social{{ProductID: product.ID, Name: "x"}}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	products, err := repo.FindAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, products)

	var socials int64
	require.NoError(t, testDB.Model(&model.Social{}).Count(&socials).Error)
	assert.Zero(t, socials)
}

func TestProductRepository_RejectsUnknownCategory(t *testing.T) {
	testDB, repo, _, _ := setupProductTest(t)
	defer db.CleanupTestDB(testDB)

	err := repo.Create(context.Background(), &model.Product{Name: "Lever", Slug: "lever", CategoryID: uuid.New()})
	assert.Error(t, err)
}
