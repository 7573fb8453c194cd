package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rentwheels/car-rental-backend/pkg/jwt"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testIssuer = "car-rental-auth"

func setupTestJWTService() *jwt.Service {
	return jwt.NewService("test-access-secret-key-123456789", testIssuer, time.Hour)
}

func newTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func setupTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

func whoAmI(c *gin.Context) {
	userCtx, exists := GetUserContext(c)
	c.JSON(http.StatusOK, gin.H{
		"authenticated": exists,
		"user_id":       userCtx.UserID,
	})
}

func TestAuthMiddleware_Success(t *testing.T) {
	jwtService := setupTestJWTService()
	router := setupTestRouter()
	router.GET("/protected", AuthMiddleware(jwtService, newTestLogger()), whoAmI)

	token, err := jwtService.GenerateAccessToken("user-42", "renter@example.com", []string{"user"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"user_id":"user-42"`)
}

func TestAuthMiddleware_Rejections(t *testing.T) {
	jwtService := setupTestJWTService()
	expired, err := jwt.NewService("test-access-secret-key-123456789", testIssuer, -time.Hour).
		GenerateAccessToken("user-42", "", nil)
	require.NoError(t, err)
	foreign, err := jwt.NewService("some-other-secret", testIssuer, time.Hour).
		GenerateAccessToken("user-42", "", nil)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		code   string
	}{
		{"Missing header", "", "MISSING_AUTH_HEADER"},
		{"Wrong scheme", "Basic dXNlcjpwYXNz", "INVALID_AUTH_FORMAT"},
		{"Empty token", "Bearer   ", "INVALID_AUTH_FORMAT"},
		{"Garbage token", "Bearer invalid.token.here", "INVALID_TOKEN"},
		{"Expired token", "Bearer " + expired, "INVALID_TOKEN"},
		{"Wrong secret", "Bearer " + foreign, "INVALID_TOKEN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := setupTestRouter()
			router.GET("/protected", AuthMiddleware(jwtService, newTestLogger()), func(c *gin.Context) {
				c.JSON(http.StatusOK, gin.H{"message": "should not reach here"})
			})

			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.code, body["code"])
		})
	}
}

func TestOptionalAuth(t *testing.T) {
	jwtService := setupTestJWTService()
	token, err := jwtService.GenerateAccessToken("user-42", "", []string{"user"})
	require.NoError(t, err)

	tests := []struct {
		name          string
		header        string
		authenticated bool
	}{
		{"No header", "", false},
		{"Valid token", "Bearer " + token, true},
		{"Invalid token", "Bearer nope", false},
		{"Wrong scheme", "Token " + token, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := setupTestRouter()
			router.GET("/maybe", OptionalAuth(jwtService, newTestLogger()), whoAmI)

			req := httptest.NewRequest(http.MethodGet, "/maybe", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusOK, w.Code)
			var body struct {
				Authenticated bool   `json:"authenticated"`
				UserID        string `json:"user_id"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.authenticated, body.Authenticated)
			if tt.authenticated {
				assert.Equal(t, "user-42", body.UserID)
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	jwtService := setupTestJWTService()

	tests := []struct {
		name     string
		roles    []string
		expected int
	}{
		{"Admin allowed", []string{"user", "admin"}, http.StatusOK},
		{"User forbidden", []string{"user"}, http.StatusForbidden},
		{"No roles forbidden", nil, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := setupTestRouter()
			router.GET("/admin", AuthMiddleware(jwtService, newTestLogger()), RequireRole("admin"), whoAmI)

			token, err := jwtService.GenerateAccessToken("user-42", "", tt.roles)
			require.NoError(t, err)

			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			req.Header.Set("Authorization", "Bearer "+token)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expected, w.Code)
		})
	}

	t.Run("Without auth middleware", func(t *testing.T) {
		router := setupTestRouter()
		router.GET("/admin", RequireRole("admin"), whoAmI)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestGetUserContext(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	_, exists := GetUserContext(c)
	assert.False(t, exists)

	c.Set(UserContextKey, "not a user context")
	_, exists = GetUserContext(c)
	assert.False(t, exists)

	c.Set(UserContextKey, UserContext{UserID: "user-42", Roles: []string{"admin"}})
	userCtx, exists := GetUserContext(c)
	assert.True(t, exists)
	assert.Equal(t, "user-42", userCtx.UserID)
	assert.True(t, userCtx.HasRole("admin"))
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&buf)
	logger.SetFormatter(&logrus.JSONFormatter{})

	router := setupTestRouter()
	router.Use(RequestLogger(logger))
	router.GET("/bookings/:id", func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
	})

	req := httptest.NewRequest(http.MethodGet, "/bookings/abc", nil)
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "warning", line["level"])
	assert.Equal(t, "GET", line["method"])
	assert.Equal(t, "/bookings/abc", line["path"])
	assert.Equal(t, "/bookings/:id", line["route"])
	assert.Equal(t, float64(http.StatusNotFound), line["status"])
	assert.Equal(t, "desktop", line["device_type"])
	assert.Equal(t, "windows", line["platform"])
}
