package http

import (
	"context"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/pomsaddons/BloxCord/internal/adapters/signal"
	"github.com/pomsaddons/BloxCord/internal/config"
)

// ClientTokenMiddleware gives every browser/client a stable per-client
// token; it backs the per-connection identity slot before a join binds
// a real username.
func ClientTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie("ct")
		if token == "" {
			token = uuid.NewString()
			c.SetCookie("ct", token, 3600*24*7, "/", "", false, true)
		}
		c.Set("client_token", token)
		c.Next()
	}
}

func SetupRouter(ctx context.Context, cfg *config.Config, ctl *signal.Controller) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions("BloxCordSessions", store))
	r.Use(ClientTokenMiddleware())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	api.GET("/ws", func(c *gin.Context) {
		log.Info().Str("module", "adapters.http").Str("client", c.GetString("client_token")).Msg("ws endpoint hit")
		ctl.HandleSignal(ctx, c)
	})

	return r
}
