package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jcorriveau23/backend-pool-nhl/internal/draft"
)

// HealthHandler exposes liveness/readiness probes and a small amount of
// Draft Room Coordinator visibility for operators.
type HealthHandler struct {
	registry *draft.Registry
}

// NewHealthHandler builds a health handler over the shared coordinator.
func NewHealthHandler(registry *draft.Registry) *HealthHandler {
	return &HealthHandler{registry: registry}
}

// GetHealth is a basic liveness probe — always 200 if the process is
// serving requests at all.
func (h *HealthHandler) GetHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "backend-pool-nhl"})
}

// GetReady reports readiness; the service has no external dependency to
// block on beyond the store connection already having been established at
// startup, so readiness mirrors liveness here.
func (h *HealthHandler) GetReady(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

// GetRoomStatus exposes the coordinator's live rooms and its count of
// authenticated sockets for operators —
// spec.md §4.2's list_rooms/list_authenticated_sockets inspection surface.
func (h *HealthHandler) GetRoomStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"rooms":                 h.registry.ListRooms(),
		"authenticated_sockets": len(h.registry.ListAuthenticatedSockets()),
	})
}
