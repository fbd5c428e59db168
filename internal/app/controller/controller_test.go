package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/fuboru/panel-backend/internal/app/repository"
	"github.com/fuboru/panel-backend/internal/app/service"
	"github.com/fuboru/panel-backend/internal/db"
	"github.com/fuboru/panel-backend/internal/middleware"
	"github.com/fuboru/panel-backend/internal/session"
	"github.com/fuboru/panel-backend/internal/storage"
	ws "github.com/fuboru/panel-backend/internal/websocket"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const (
	testJWTSecret      = "test-jwt-secret"
	testProductBucket  = "product-bucket"
	testCertBucket     = "certificate-bucket"
	testMaxUploadBytes = 1024
)

type testServer struct {
	router *gin.Engine
	db     *gorm.DB
	store  *storage.MemoryStorage
	users  service.UserService
	hub    *ws.Hub
	token  string
}

func setupControllerTest(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	require.NoError(t, RegisterValidators())

	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	store := storage.NewMemoryStorage()
	revoker := session.NewMemoryRevoker()
	bus := session.NewLocalBus()
	cache := session.NewCache(testJWTSecret, revoker, bus)
	require.NoError(t, cache.Start(ctx))
	t.Cleanup(cache.Stop)

	hub := ws.NewHub()
	events, err := bus.Subscribe(ctx)
	require.NoError(t, err)
	go hub.Run(ctx, events)

	userRepo := repository.NewUserRepository(testDB)
	cleanup := service.NewCleanupService(store, repository.NewStorageCleanupRepository(testDB))
	users := service.NewUserService(userRepo, revoker, bus, 7*24*time.Hour)
	auth := service.NewAuthService(userRepo, users, cache, revoker, bus, service.AuthConfig{
		Secret:        testJWTSecret,
		AccessExpiry:  15 * time.Minute,
		RefreshExpiry: 7 * 24 * time.Hour,
		AllowSignup:   true,
	})

	authCtrl := NewAuthController(auth, hub, []string{"*"})
	categoryCtrl := NewCategoryController(service.NewCategoryService(repository.NewCategoryRepository(testDB)))
	brandCtrl := NewBrandController(service.NewBrandService(repository.NewBrandRepository(testDB)))
	certCtrl := NewCertificateController(
		service.NewCertificateService(repository.NewCertificateRepository(testDB), store, cleanup, testCertBucket),
		testMaxUploadBytes,
	)
	productCtrl := NewProductController(
		service.NewProductService(repository.NewProductRepository(testDB), store, cleanup, testProductBucket),
		testMaxUploadBytes,
	)
	userCtrl := NewUserController(users)

	gate := middleware.NewAuthMiddleware(cache).Authenticate()
	router := gin.New()
	router.POST("/auth/login", authCtrl.Login)
	router.POST("/auth/signup", authCtrl.SignUp)
	router.POST("/auth/refresh", authCtrl.Refresh)
	router.POST("/auth/logout", gate, authCtrl.Logout)
	router.GET("/auth/session", gate, authCtrl.Session)
	router.GET("/auth/events", gate, authCtrl.Events)

	crud := func(prefix string, list, get, create, update, del gin.HandlerFunc) {
		g := router.Group(prefix, gate)
		g.GET("", list)
		g.GET("/:id", get)
		g.POST("", create)
		if update != nil {
			g.PUT("/:id", update)
		}
		g.DELETE("/:id", del)
	}
	crud("/categories", categoryCtrl.List, categoryCtrl.Get, categoryCtrl.Create, categoryCtrl.Update, categoryCtrl.Delete)
	crud("/brands", brandCtrl.List, brandCtrl.Get, brandCtrl.Create, brandCtrl.Update, brandCtrl.Delete)
	crud("/certificates", certCtrl.List, certCtrl.Get, certCtrl.Create, certCtrl.Update, certCtrl.Delete)
	crud("/products", productCtrl.List, productCtrl.Get, productCtrl.Create, productCtrl.Update, productCtrl.Delete)
	crud("/users", userCtrl.List, userCtrl.Get, userCtrl.Create, nil, userCtrl.Delete)

	_, err = users.Create(ctx, service.UserInput{Name: "Admin", Email: "admin@example.com", Password: "password123"})
	require.NoError(t, err)

	srv := &testServer{router: router, db: testDB, store: store, users: users, hub: hub}
	srv.token = srv.login(t, "admin@example.com", "password123")
	return srv
}

func (s *testServer) login(t *testing.T, email, password string) string {
	t.Helper()
	w := s.doJSON(t, http.MethodPost, "/auth/login", "", map[string]string{"email": email, "password": password})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Tokens struct {
			AccessToken string `json:"access_token"`
		} `json:"tokens"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Tokens.AccessToken
}

func (s *testServer) doJSON(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

type upload struct {
	name        string
	contentType string
	body        []byte
}

func (s *testServer) doMultipart(t *testing.T, method, path string, data interface{}, image *upload) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	if data != nil {
		raw, err := json.Marshal(data)
		require.NoError(t, err)
		require.NoError(t, mw.WriteField("data", string(raw)))
	}
	if image != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="image"; filename="`+image.name+`"`)
		h.Set("Content-Type", image.contentType)
		part, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(image.body)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+s.token)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

// createdID returns response[key].id from a create call.
func createdID(t *testing.T, w *httptest.ResponseRecorder, key string) string {
	t.Helper()
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	entity, ok := decode(t, w)[key].(map[string]interface{})
	require.True(t, ok)
	id, ok := entity["id"].(string)
	require.True(t, ok)
	return id
}
