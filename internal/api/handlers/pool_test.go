package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcorriveau23/backend-pool-nhl/internal/draft"
	"github.com/jcorriveau23/backend-pool-nhl/internal/pool"
	"github.com/jcorriveau23/backend-pool-nhl/internal/store/memory"
)

func newTestRouter(h *PoolHandler, userID string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		if userID != "" {
			c.Set("user_id", userID)
		}
		c.Next()
	})
	router.GET("/pool/:name", h.GetPool)
	router.POST("/create-pool", h.CreatePool)
	router.POST("/delete-pool", h.DeletePool)
	router.POST("/update-pool-settings", h.UpdatePoolSettings)
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(method, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCreatePoolThenGetPool(t *testing.T) {
	s := memory.New()
	h := NewPoolHandler(s, nil, pool.SeasonConstants{PoolCreationSeason: 20252026, TradeDeadlineDate: "2026-03-06"})
	router := newTestRouter(h, "owner-1")

	w := doJSON(t, router, http.MethodPost, "/create-pool", createPoolRequest{Name: "pool-x"})
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/pool/pool-x", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "owner-1")
}

func TestCreatePoolRequiresAuth(t *testing.T) {
	s := memory.New()
	h := NewPoolHandler(s, nil, pool.SeasonConstants{PoolCreationSeason: 20252026})
	router := newTestRouter(h, "")

	w := doJSON(t, router, http.MethodPost, "/create-pool", createPoolRequest{Name: "pool-x"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUpdatePoolSettingsRejectsNonOwner(t *testing.T) {
	s := memory.New()
	h := NewPoolHandler(s, nil, pool.SeasonConstants{PoolCreationSeason: 20252026})
	owner := newTestRouter(h, "owner-1")
	doJSON(t, owner, http.MethodPost, "/create-pool", createPoolRequest{Name: "pool-y"})

	intruder := newTestRouter(h, "someone-else")
	w := doJSON(t, intruder, http.MethodPost, "/update-pool-settings", updatePoolSettingsRequest{
		PoolName: "pool-y",
		Settings: pool.DefaultPoolSettings(),
	})
	assert.NotEqual(t, http.StatusOK, w.Code)
}

func TestDeletePoolRejectsNonOwner(t *testing.T) {
	s := memory.New()
	registry := draft.NewRegistry(nil)
	h := NewPoolHandler(s, registry, pool.SeasonConstants{PoolCreationSeason: 20252026})
	owner := newTestRouter(h, "owner-1")
	doJSON(t, owner, http.MethodPost, "/create-pool", createPoolRequest{Name: "pool-z"})

	intruder := newTestRouter(h, "someone-else")
	w := doJSON(t, intruder, http.MethodPost, "/delete-pool", poolNameRequest{Name: "pool-z"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(t, owner, http.MethodPost, "/delete-pool", poolNameRequest{Name: "pool-z"})
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/pool/pool-z", nil)
	owner.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
