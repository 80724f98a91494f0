package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"todo-manager/backend/internal/middleware"
	"todo-manager/backend/internal/models"
	"todo-manager/backend/internal/services"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupAuthRouter(t *testing.T) (*gin.Engine, *gorm.DB, *services.TokenService) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Task{}); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	hasher := services.NewPasswordHasher(bcrypt.MinCost)
	tokens := services.NewTokenService("test-secret", 30*time.Minute)

	router := gin.New()
	router.Use(middleware.AuthMiddleware(db, tokens, services.NewAuthService(hasher)))
	router.GET("/protected", func(c *gin.Context) {
		user := c.MustGet(middleware.CurrentUserKey).(*models.User)
		c.JSON(http.StatusOK, gin.H{"username": user.Username})
	})

	return router, db, tokens
}

func request(router *gin.Engine, authHeader string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest("GET", "/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware_MissingHeader(t *testing.T) {
	router, _, _ := setupAuthRouter(t)

	w := request(router, "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status %d, got %d", http.StatusUnauthorized, w.Code)
	}
}

func TestAuthMiddleware_NotBearer(t *testing.T) {
	router, _, _ := setupAuthRouter(t)

	w := request(router, "Basic dXNlcjpwYXNz")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status %d, got %d", http.StatusUnauthorized, w.Code)
	}
}

func TestAuthMiddleware_GarbageToken(t *testing.T) {
	router, _, _ := setupAuthRouter(t)

	w := request(router, "Bearer not-a-token")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status %d, got %d", http.StatusUnauthorized, w.Code)
	}
}

func TestAuthMiddleware_ExpiredToken(t *testing.T) {
	router, db, tokens := setupAuthRouter(t)

	db.Create(&models.User{Username: "alice", Password: "hash"})

	token, err := tokens.Issue("alice", -time.Minute)
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}

	w := request(router, "Bearer "+token)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status %d, got %d", http.StatusUnauthorized, w.Code)
	}
}

func TestAuthMiddleware_UnknownSubject(t *testing.T) {
	router, _, tokens := setupAuthRouter(t)

	// Valid signature, but the user no longer exists.
	token, err := tokens.Issue("ghost", time.Hour)
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}

	w := request(router, "Bearer "+token)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status %d, got %d", http.StatusUnauthorized, w.Code)
	}
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	router, db, tokens := setupAuthRouter(t)

	db.Create(&models.User{Username: "alice", Password: "hash"})

	token, err := tokens.Issue("alice", time.Hour)
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}

	w := request(router, "Bearer "+token)
	if w.Code != http.StatusOK {
		t.Errorf("Expected status %d, got %d", http.StatusOK, w.Code)
	}
	if body := w.Body.String(); body != `{"username":"alice"}` {
		t.Errorf("Unexpected body: %s", body)
	}
}

func TestAuthMiddleware_SameResponseForAllFailures(t *testing.T) {
	router, _, tokens := setupAuthRouter(t)

	expired, _ := tokens.Issue("alice", -time.Minute)
	unknown, _ := tokens.Issue("ghost", time.Hour)

	headers := []string{"", "Bearer garbage", "Bearer " + expired, "Bearer " + unknown}

	var bodies []string
	for _, h := range headers {
		w := request(router, h)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("Expected 401 for header %q, got %d", h, w.Code)
		}
		bodies = append(bodies, w.Body.String())
	}

	// No failure mode may leak which step rejected the request.
	for i := 1; i < len(bodies); i++ {
		if bodies[i] != bodies[0] {
			t.Errorf("Failure responses differ: %q vs %q", bodies[0], bodies[i])
		}
	}
}
