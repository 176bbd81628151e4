package server

import (
	"errors"
	"net/http"
	"strings"

	"musicquiz/internal/auth"
	"musicquiz/internal/catalog"
	"musicquiz/internal/config"
	"musicquiz/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// Handler 聚合所有 HTTP handler，依赖注入 service 层。
type Handler struct {
	cfg       config.Config
	playerSvc *service.PlayerService
	gameSvc   *service.GameService
	catalog   *catalog.Client
}

func NewHandler(cfg config.Config, playerSvc *service.PlayerService, gameSvc *service.GameService, cat *catalog.Client) *Handler {
	return &Handler{cfg: cfg, playerSvc: playerSvc, gameSvc: gameSvc, catalog: cat}
}

// GuestLogin 注册游客身份并签发会话 token。
func (h *Handler) GuestLogin(c *gin.Context) {
	var req struct {
		DisplayName string `json:"display_name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	req.DisplayName = strings.TrimSpace(req.DisplayName)
	if len(req.DisplayName) < 2 || len(req.DisplayName) > 32 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid display name"})
		return
	}
	player, err := h.playerSvc.CreateGuest(req.DisplayName)
	if err != nil {
		log.Error().Err(err).Str("display_name", req.DisplayName).Msg("guest login")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create player"})
		return
	}
	token, err := auth.GenerateSessionToken(player.ID, player.DisplayName, h.cfg.JWTSecret, h.cfg.SessionTTLMinutes)
	if err != nil {
		log.Error().Err(err).Str("user_id", player.ID).Msg("guest login token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create session"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user_id": player.ID, "display_name": player.DisplayName, "token": token})
}

// CreateGame 创建游戏并返回分配的房间码。
func (h *Handler) CreateGame(c *gin.Context) {
	var req struct {
		Name     string `json:"name"`
		Passcode string `json:"passcode"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || len(req.Name) > 128 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid game name"})
		return
	}
	game, err := h.gameSvc.Create(auth.GetUserID(c), req.Name, req.Passcode)
	if err != nil {
		log.Error().Err(err).Str("host_id", auth.GetUserID(c)).Msg("create game")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create game"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"game": game})
}

// ListGames 返回最近的游戏列表，附带实时在线人数。
func (h *Handler) ListGames(c *gin.Context) {
	games, err := h.gameSvc.List(100)
	if err != nil {
		log.Error().Err(err).Msg("list games")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list games"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"games": games})
}

// GetGame 按房间码查询游戏，私密房间需提交口令。
func (h *Handler) GetGame(c *gin.Context) {
	code := strings.ToUpper(strings.TrimSpace(c.Param("code")))
	game, err := h.gameSvc.GetByCode(code, c.Query("passcode"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrGameNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "game not found"})
		case errors.Is(err, service.ErrInvalidPasscode):
			c.JSON(http.StatusForbidden, gin.H{"error": "invalid passcode"})
		default:
			log.Error().Err(err).Str("code", code).Msg("get game")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load game"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"game": game})
}

// UpdateGameStatus 落库游戏状态。房间内的实时通告走 websocket
// 协调器，调用方应在广播成功后再调用本接口持久化。
func (h *Handler) UpdateGameStatus(c *gin.Context) {
	code := strings.ToUpper(strings.TrimSpace(c.Param("code")))
	var req struct {
		Status string `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	switch req.Status {
	case "waiting", "preparing", "ready", "playing", "finished":
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
		return
	}
	if err := h.gameSvc.UpdateStatus(code, auth.GetUserID(c), req.Status); err != nil {
		if errors.Is(err, service.ErrGameNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "game not found"})
			return
		}
		log.Error().Err(err).Str("code", code).Msg("update game status")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update status"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": req.Status})
}

// AddSong 记录房主为游戏挑选的曲目。
func (h *Handler) AddSong(c *gin.Context) {
	code := strings.ToUpper(strings.TrimSpace(c.Param("code")))
	var req service.SongInput
	if err := c.ShouldBindJSON(&req); err != nil || req.ExternalID == "" || req.Title == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	if err := h.gameSvc.AddSong(code, auth.GetUserID(c), req); err != nil {
		if errors.Is(err, service.ErrGameNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "game not found"})
			return
		}
		log.Error().Err(err).Str("code", code).Msg("add song")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to add song"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// SearchCatalog 搜索第三方曲库，结果经读穿缓存。
func (h *Handler) SearchCatalog(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing query"})
		return
	}
	tracks, err := h.catalog.Search(c.Request.Context(), q)
	if err != nil {
		log.Error().Err(err).Str("query", q).Msg("catalog search")
		c.JSON(http.StatusBadGateway, gin.H{"error": "catalog unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"tracks": tracks})
}
