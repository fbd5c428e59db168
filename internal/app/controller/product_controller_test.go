package controller

import (
	"net/http"
	"strings"
	"testing"

	"github.com/fuboru/panel-backend/internal/app/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type productFixture struct {
	*testServer
	categoryID string
	brandID    string
}

func setupProductControllerTest(t *testing.T) *productFixture {
	s := setupControllerTest(t)

	category := &model.Category{Name: "Door Handles", Slug: "door-handles"}
	require.NoError(t, s.db.Create(category).Error)
	brand := &model.Brand{Name: "Toyota"}
	require.NoError(t, s.db.Create(brand).Error)

	return &productFixture{testServer: s, categoryID: category.ID.String(), brandID: brand.ID.String()}
}

func (f *productFixture) payload(slug string) map[string]interface{} {
	return map[string]interface{}{
		"name":        "Chrome Lever",
		"slug":        slug,
		"category_id": f.categoryID,
		"description": "Die-cast lever",
		"advantage":   "Rust free",
		"socials": []map[string]string{
			{"name": "YouTube", "link": "https://youtu.be/abc", "embeded_code": "<iframe></iframe>"},
		},
		"compatibles": []map[string]string{
			{"brand_id": f.brandID, "types": "Avanza, Rush"},
		},
	}
}

func pngUpload(size int) *upload {
	return &upload{name: "lever.png", contentType: "image/png", body: []byte(strings.Repeat("x", size))}
}

func TestProductController_CreateAndGet(t *testing.T) {
	f := setupProductControllerTest(t)

	w := f.doMultipart(t, http.MethodPost, "/products", f.payload("chrome-lever"), pngUpload(16))
	id := createdID(t, w, "product")
	assert.Equal(t, 1, f.store.Count(testProductBucket))

	w = f.doJSON(t, http.MethodGet, "/products/"+id, f.token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	product := decode(t, w)["product"].(map[string]interface{})
	assert.Equal(t, "chrome-lever", product["slug"])
	assert.NotEmpty(t, product["image_url"])
	assert.Len(t, product["socials"], 1)

	compatible := product["compatible"].([]interface{})
	require.Len(t, compatible, 1)
	entry := compatible[0].(map[string]interface{})
	assert.Equal(t, f.brandID+"-0", entry["id"])
	assert.Equal(t, "Avanza,Rush", entry["types"])

	w = f.doJSON(t, http.MethodGet, "/products", f.token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decode(t, w)["count"])
}

func TestProductController_CreateWithoutImage(t *testing.T) {
	f := setupProductControllerTest(t)

	createdID(t, f.doMultipart(t, http.MethodPost, "/products", f.payload("no-image"), nil), "product")
	assert.Equal(t, 0, f.store.Count(testProductBucket))
}

func TestProductController_CreateRejections(t *testing.T) {
	f := setupProductControllerTest(t)

	missingName := f.payload("missing-name")
	delete(missingName, "name")

	badSocial := f.payload("bad-social")
	badSocial["socials"] = []map[string]string{{"link": "https://example.com"}}

	tests := []struct {
		name     string
		data     interface{}
		image    *upload
		wantCode int
		wantErr  string
	}{
		{"Missing data field", nil, nil, http.StatusBadRequest, "VALIDATION_INVALID_INPUT"},
		{"Missing name", missingName, nil, http.StatusBadRequest, "VALIDATION_INVALID_INPUT"},
		{"Social without name", badSocial, nil, http.StatusBadRequest, "VALIDATION_INVALID_INPUT"},
		{"Wrong content type", f.payload("pdf"), &upload{name: "a.pdf", contentType: "application/pdf", body: []byte("%PDF")}, http.StatusBadRequest, "UPLOAD_INVALID_FILE_TYPE"},
		{"Image too large", f.payload("large"), pngUpload(testMaxUploadBytes + 1), http.StatusRequestEntityTooLarge, "UPLOAD_FILE_TOO_LARGE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.doMultipart(t, http.MethodPost, "/products", tt.data, tt.image)
			assert.Equal(t, tt.wantCode, w.Code, w.Body.String())
			assert.Equal(t, tt.wantErr, decode(t, w)["error"])
		})
	}

	assert.Equal(t, 0, f.store.Count(testProductBucket))
	var count int64
	require.NoError(t, f.db.Model(&model.Product{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestProductController_CreateUnknownCategoryDiscardsImage(t *testing.T) {
	f := setupProductControllerTest(t)

	data := f.payload("ghost")
	data["category_id"] = "00000000-0000-4000-8000-000000000000"

	w := f.doMultipart(t, http.MethodPost, "/products", data, pngUpload(16))
	assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
	assert.Equal(t, 0, f.store.Count(testProductBucket))
}

func TestProductController_UpdateAndDelete(t *testing.T) {
	f := setupProductControllerTest(t)

	id := createdID(t, f.doMultipart(t, http.MethodPost, "/products", f.payload("lever"), pngUpload(16)), "product")

	data := f.payload("lever-v2")
	data["socials"] = []map[string]string{}
	w := f.doMultipart(t, http.MethodPut, "/products/"+id, data, pngUpload(8))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	product := decode(t, w)["product"].(map[string]interface{})
	assert.Equal(t, "lever-v2", product["slug"])
	assert.Empty(t, product["socials"])
	assert.Equal(t, 1, f.store.Count(testProductBucket), "previous image should be discarded")

	w = f.doJSON(t, http.MethodDelete, "/products/"+id, f.token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, f.store.Count(testProductBucket))

	w = f.doJSON(t, http.MethodGet, "/products/"+id, f.token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "PRODUCT_NOT_FOUND", decode(t, w)["error"])
}

func TestProductController_DeleteWithFailedImageRemoval(t *testing.T) {
	f := setupProductControllerTest(t)

	id := createdID(t, f.doMultipart(t, http.MethodPost, "/products", f.payload("lever"), pngUpload(16)), "product")

	f.store.FailRemovals(true)
	w := f.doJSON(t, http.MethodDelete, "/products/"+id, f.token, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var pending int64
	require.NoError(t, f.db.Model(&model.StorageCleanup{}).Count(&pending).Error)
	assert.Equal(t, int64(1), pending)
}
