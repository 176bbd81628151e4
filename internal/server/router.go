package server

import (
	"net/http"
	"time"

	"musicquiz/internal/auth"
	"musicquiz/internal/config"
	"musicquiz/internal/metrics"
	"musicquiz/internal/mw"
	"musicquiz/internal/relay"
	"musicquiz/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
)

// SetupRouter 统一初始化 Gin 中间件、REST API 以及 WebSocket 端点。
func SetupRouter(cfg config.Config, h *Handler, coord *relay.Coordinator, table *ws.Table) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(metrics.GinMiddleware())
	r.Use(mw.CORS(cfg.Env))
	// 控制单个 IP+路由的速率，websocket 内另有按连接的事件限速。
	r.Use(mw.RateLimit(rate.Every(time.Second/20), 40))

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")
	api.POST("/auth/guest", h.GuestLogin)

	// 需要 Bearer Token 的业务接口。
	authed := api.Group("")
	authed.Use(auth.Middleware(cfg))
	authed.POST("/games", h.CreateGame)
	authed.GET("/games", h.ListGames)
	authed.GET("/games/:code", h.GetGame)
	authed.PATCH("/games/:code/status", h.UpdateGameStatus)
	authed.POST("/games/:code/songs", h.AddSong)
	authed.GET("/catalog/search", h.SearchCatalog)

	r.GET("/ws", ws.Serve(coord, table, cfg))

	return r
}
