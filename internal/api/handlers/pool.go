// Package handlers adapts the Pool State Engine and Draft Room Coordinator
// onto thin HTTP endpoints, per spec.md §6.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jcorriveau23/backend-pool-nhl/internal/api/middleware"
	"github.com/jcorriveau23/backend-pool-nhl/internal/draft"
	"github.com/jcorriveau23/backend-pool-nhl/internal/pool"
	"github.com/jcorriveau23/backend-pool-nhl/internal/store"
	"github.com/jcorriveau23/backend-pool-nhl/pkg/utils"
)

// PoolHandler implements every REST endpoint in spec.md §6 as a thin
// adapter over the engine + store: load, mutate, persist the diff,
// broadcast the projected snapshot to any live draft room.
type PoolHandler struct {
	store    store.PoolStore
	registry *draft.Registry
	season   pool.SeasonConstants
}

// NewPoolHandler wires a PoolHandler over its store and (optional)
// draft room coordinator.
func NewPoolHandler(s store.PoolStore, registry *draft.Registry, season pool.SeasonConstants) *PoolHandler {
	return &PoolHandler{store: s, registry: registry, season: season}
}

func today() string {
	return time.Now().Format("2006-01-02")
}

// withoutScoreByDay mirrors internal/draft's projection before a pool is
// ever handed to a client, whether over HTTP or the WebSocket broadcast.
func withoutScoreByDay(p *pool.Pool) *pool.Pool {
	if p.Context == nil {
		return p
	}
	cp := *p
	ctxCopy := *p.Context
	ctxCopy.ScoreByDay = map[string]map[string]pool.DailyRosterPoints{}
	cp.Context = &ctxCopy
	return &cp
}

// persist writes p's full diff back to the store and, if a draft room
// coordinator was supplied, broadcasts the projected snapshot to the pool's
// room. It returns the persisted pool.
func (h *PoolHandler) persist(c *gin.Context, name string, p *pool.Pool) (*pool.Pool, error) {
	updated, err := h.store.UpdatePool(c.Request.Context(), name, store.FullDiff(p))
	if err != nil {
		return nil, err
	}
	if h.registry != nil {
		if raw, marshalErr := json.Marshal(draft.PoolFrame(withoutScoreByDay(updated))); marshalErr == nil {
			h.registry.Broadcast(name, raw)
		}
	}
	return updated, nil
}

func (h *PoolHandler) sendStoreErr(c *gin.Context, err error) {
	if err == store.ErrNotFound {
		utils.SendNotFound(c, "pool not found")
		return
	}
	if err == store.ErrAlreadyExists {
		utils.SendError(c, http.StatusConflict, utils.NewAppError(utils.ErrCodeConflict, "pool already exists"))
		return
	}
	utils.SendInternalError(c, err.Error())
}

// GetPool handles GET /pool/:name — a short pool with score_by_day
// projected out.
func (h *PoolHandler) GetPool(c *gin.Context) {
	p, err := h.store.GetShortPool(c.Request.Context(), c.Param("name"))
	if err != nil {
		h.sendStoreErr(c, err)
		return
	}
	utils.SendSuccess(c, p)
}

// GetPoolWithDateWindow handles GET /pool/:name/:from_date.
func (h *PoolHandler) GetPoolWithDateWindow(c *gin.Context) {
	p, err := h.store.GetPoolWithDateWindow(c.Request.Context(), c.Param("name"), c.Param("from_date"))
	if err != nil {
		h.sendStoreErr(c, err)
		return
	}
	utils.SendSuccess(c, p)
}

// ListPools handles GET /pools?season=N.
func (h *PoolHandler) ListPools(c *gin.Context) {
	season, err := strconv.ParseUint(c.Query("season"), 10, 32)
	if err != nil {
		utils.SendValidationError(c, "season query parameter is required", err.Error())
		return
	}
	pools, err := h.store.ListPools(c.Request.Context(), uint32(season))
	if err != nil {
		h.sendStoreErr(c, err)
		return
	}
	utils.SendSuccess(c, pools)
}

type createPoolRequest struct {
	Name     string             `json:"name" binding:"required"`
	Settings *pool.PoolSettings `json:"settings"`
}

// CreatePool handles POST /create-pool. The caller becomes the pool's
// owner.
func (h *PoolHandler) CreatePool(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		utils.SendUnauthorized(c, "authentication required")
		return
	}
	var req createPoolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "invalid request body", err.Error())
		return
	}
	settings := pool.DefaultPoolSettings()
	if req.Settings != nil {
		settings = *req.Settings
	}
	newPool := pool.NewPool(req.Name, userID, settings, h.season)
	if err := h.store.InsertPool(c.Request.Context(), newPool); err != nil {
		h.sendStoreErr(c, err)
		return
	}
	utils.SendSuccess(c, newPool)
}

type poolNameRequest struct {
	Name string `json:"name" binding:"required"`
}

// DeletePool handles POST /delete-pool. Only the owner may delete a pool.
func (h *PoolHandler) DeletePool(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		utils.SendUnauthorized(c, "authentication required")
		return
	}
	var req poolNameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "invalid request body", err.Error())
		return
	}
	p, err := h.store.GetShortPool(c.Request.Context(), req.Name)
	if err != nil {
		h.sendStoreErr(c, err)
		return
	}
	if !p.HasOwnerRights(userID) {
		utils.SendForbidden(c, "only the owner may delete this pool")
		return
	}
	if err := h.store.DeletePool(c.Request.Context(), req.Name); err != nil {
		h.sendStoreErr(c, err)
		return
	}
	utils.SendSuccess(c, gin.H{"deleted": req.Name})
}

// mutate is the common load → mutate → persist shape shared by every
// pool-mutating endpoint below.
func (h *PoolHandler) mutate(c *gin.Context, name string, fn func(p *pool.Pool, actor string) *pool.Error) {
	userID, ok := middleware.UserID(c)
	if !ok {
		utils.SendUnauthorized(c, "authentication required")
		return
	}
	p, err := h.store.GetShortPool(c.Request.Context(), name)
	if err != nil {
		h.sendStoreErr(c, err)
		return
	}
	if engineErr := fn(p, userID); engineErr != nil {
		utils.SendDomainError(c, engineErr)
		return
	}
	updated, err := h.persist(c, name, p)
	if err != nil {
		h.sendStoreErr(c, err)
		return
	}
	utils.SendSuccess(c, withoutScoreByDay(updated))
}

type addPlayerRequest struct {
	PoolName string      `json:"pool_name" binding:"required"`
	Target   string      `json:"target" binding:"required"`
	Player   pool.Player `json:"player"`
}

// AddPlayer handles POST /add-player.
func (h *PoolHandler) AddPlayer(c *gin.Context) {
	var req addPlayerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "invalid request body", err.Error())
		return
	}
	h.mutate(c, req.PoolName, func(p *pool.Pool, actor string) *pool.Error {
		return p.AddPlayer(actor, req.Target, req.Player)
	})
}

type removePlayerRequest struct {
	PoolName string `json:"pool_name" binding:"required"`
	Target   string `json:"target" binding:"required"`
	PlayerID uint32 `json:"player_id"`
}

// RemovePlayer handles POST /remove-player.
func (h *PoolHandler) RemovePlayer(c *gin.Context) {
	var req removePlayerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "invalid request body", err.Error())
		return
	}
	h.mutate(c, req.PoolName, func(p *pool.Pool, actor string) *pool.Error {
		return p.RemovePlayer(actor, req.Target, req.PlayerID)
	})
}

type createTradeRequest struct {
	PoolName string     `json:"pool_name" binding:"required"`
	Trade    pool.Trade `json:"trade"`
}

// CreateTrade handles POST /create-trade.
func (h *PoolHandler) CreateTrade(c *gin.Context) {
	var req createTradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "invalid request body", err.Error())
		return
	}
	h.mutate(c, req.PoolName, func(p *pool.Pool, actor string) *pool.Error {
		return p.CreateTrade(actor, req.Trade, time.Now().UnixMilli(), h.season.TradeDeadlineDate, today())
	})
}

type deleteTradeRequest struct {
	PoolName string `json:"pool_name" binding:"required"`
	TradeID  uint32 `json:"trade_id"`
}

// DeleteTrade handles POST /delete-trade.
func (h *PoolHandler) DeleteTrade(c *gin.Context) {
	var req deleteTradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "invalid request body", err.Error())
		return
	}
	h.mutate(c, req.PoolName, func(p *pool.Pool, actor string) *pool.Error {
		return p.DeleteTrade(actor, req.TradeID)
	})
}

type respondTradeRequest struct {
	PoolName string `json:"pool_name" binding:"required"`
	TradeID  uint32 `json:"trade_id"`
	Accept   bool   `json:"accept"`
}

// RespondTrade handles POST /respond-trade.
func (h *PoolHandler) RespondTrade(c *gin.Context) {
	var req respondTradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "invalid request body", err.Error())
		return
	}
	h.mutate(c, req.PoolName, func(p *pool.Pool, actor string) *pool.Error {
		return p.RespondTrade(actor, req.TradeID, req.Accept, time.Now().UnixMilli())
	})
}

type fillSpotRequest struct {
	PoolName string `json:"pool_name" binding:"required"`
	Target   string `json:"target" binding:"required"`
	PlayerID uint32 `json:"player_id"`
}

// FillSpot handles POST /fill-spot.
func (h *PoolHandler) FillSpot(c *gin.Context) {
	var req fillSpotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "invalid request body", err.Error())
		return
	}
	h.mutate(c, req.PoolName, func(p *pool.Pool, actor string) *pool.Error {
		return p.FillSpot(actor, req.Target, req.PlayerID)
	})
}

type protectPlayersRequest struct {
	PoolName  string   `json:"pool_name" binding:"required"`
	Protected []uint32 `json:"protected_players"`
}

// ProtectPlayers handles POST /protect-players.
func (h *PoolHandler) ProtectPlayers(c *gin.Context) {
	var req protectPlayersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "invalid request body", err.Error())
		return
	}
	h.mutate(c, req.PoolName, func(p *pool.Pool, actor string) *pool.Error {
		return p.ProtectPlayers(actor, req.Protected)
	})
}

// CompleteProtection handles POST /complete-protection. Not named in
// spec.md's literal endpoint list but required to drive Dynasty → Draft —
// exposed as an owner-only admin action alongside the others.
func (h *PoolHandler) CompleteProtection(c *gin.Context) {
	var req poolNameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "invalid request body", err.Error())
		return
	}
	h.mutate(c, req.Name, func(p *pool.Pool, actor string) *pool.Error {
		return p.CompleteProtection(actor)
	})
}

type modifyRosterRequest struct {
	PoolName   string   `json:"pool_name" binding:"required"`
	Target     string   `json:"target" binding:"required"`
	Forwards   []uint32 `json:"forwards"`
	Defenders  []uint32 `json:"defenders"`
	Goalies    []uint32 `json:"goalies"`
	Reservists []uint32 `json:"reservists"`
}

// ModifyRoster handles POST /modify-roster.
func (h *PoolHandler) ModifyRoster(c *gin.Context) {
	var req modifyRosterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "invalid request body", err.Error())
		return
	}
	h.mutate(c, req.PoolName, func(p *pool.Pool, actor string) *pool.Error {
		return p.ModifyRoster(actor, req.Target, req.Forwards, req.Defenders, req.Goalies, req.Reservists)
	})
}

type updatePoolSettingsRequest struct {
	PoolName string            `json:"pool_name" binding:"required"`
	Settings pool.PoolSettings `json:"settings"`
}

// UpdatePoolSettings handles POST /update-pool-settings. Only available
// before a draft starts, matching the reference engine which treats
// settings as frozen once context exists.
func (h *PoolHandler) UpdatePoolSettings(c *gin.Context) {
	var req updatePoolSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "invalid request body", err.Error())
		return
	}
	h.mutate(c, req.PoolName, func(p *pool.Pool, actor string) *pool.Error {
		if !p.HasOwnerRights(actor) {
			return &pool.Error{Kind: pool.KindNotAuthorized, Message: "only the owner may change settings"}
		}
		if p.Status != pool.StateCreated {
			return &pool.Error{Kind: pool.KindInvalidState, Message: "settings are frozen once the draft has started"}
		}
		p.Settings = req.Settings
		return nil
	})
}

// MarkAsFinal handles POST /mark-as-final.
func (h *PoolHandler) MarkAsFinal(c *gin.Context) {
	var req poolNameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "invalid request body", err.Error())
		return
	}
	h.mutate(c, req.Name, func(p *pool.Pool, actor string) *pool.Error {
		return p.MarkAsFinal(actor)
	})
}

type generateDynastyRequest struct {
	PoolName    string `json:"pool_name" binding:"required"`
	NewPoolName string `json:"new_pool_name" binding:"required"`
}

// GenerateDynasty handles POST /generate-dynasty: builds the next season's
// pool from a finalized one, persists both documents, and returns the new
// pool.
func (h *PoolHandler) GenerateDynasty(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		utils.SendUnauthorized(c, "authentication required")
		return
	}
	var req generateDynastyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "invalid request body", err.Error())
		return
	}
	p, err := h.store.GetShortPool(c.Request.Context(), req.PoolName)
	if err != nil {
		h.sendStoreErr(c, err)
		return
	}
	newPool, engineErr := p.GenerateDynasty(userID, req.NewPoolName, h.season)
	if engineErr != nil {
		utils.SendDomainError(c, engineErr)
		return
	}
	if err := h.store.InsertPool(c.Request.Context(), newPool); err != nil {
		h.sendStoreErr(c, err)
		return
	}
	if _, err := h.persist(c, req.PoolName, p); err != nil {
		h.sendStoreErr(c, err)
		return
	}
	utils.SendSuccess(c, newPool)
}
