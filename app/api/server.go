package api

import (
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// NewServer creates the control HTTP server with all routes configured.
func NewServer(handler *Handler, apiAccessKey string) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		Formatter: func(param gin.LogFormatterParams) string {
			return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
				param.ClientIP,
				param.TimeStamp.Format(time.RFC3339),
				param.Method,
				param.Path,
				param.Request.Proto,
				param.StatusCode,
				param.Latency,
				param.Request.UserAgent(),
				param.ErrorMessage,
			)
		},
	}))

	r.Use(gin.Recovery())

	setupRoutes(r, handler, apiAccessKey)

	return r
}

func setupRoutes(r *gin.Engine, handler *Handler, apiAccessKey string) {
	r.GET("/health", handler.HealthCheck)
	r.GET("/sites", handler.ListSites)

	control := r.Group("/")
	if apiAccessKey != "" {
		control.Use(authMiddleware(apiAccessKey))
		log.Printf("Control endpoints enabled with authentication")
	}
	{
		control.POST("/control/start", handler.StartChecker)
		control.POST("/control/stop", handler.StopChecker)
		control.POST("/control/restart", handler.RestartChecker)
		control.POST("/control/update", handler.UpdateNow)
		control.POST("/sites/:id/enable", handler.EnableSite)
		control.POST("/sites/:id/disable", handler.DisableSite)
	}

	r.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"service":     "DealWatch",
			"description": "Deal-of-the-day feed watcher with change-detection notifications",
			"endpoints": map[string]string{
				"health":  "/health",
				"sites":   "/sites",
				"start":   "/control/start (POST)",
				"stop":    "/control/stop (POST)",
				"restart": "/control/restart (POST)",
				"update":  "/control/update (POST)",
				"enable":  "/sites/<id>/enable (POST)",
				"disable": "/sites/<id>/disable (POST)",
			},
		})
	})

	r.GET("/favicon.ico", func(c *gin.Context) {
		c.Status(204)
	})
}

func authMiddleware(apiAccessKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		providedKey := c.GetHeader("X-API-Key")

		if providedKey == "" {
			authHeader := c.GetHeader("Authorization")
			if strings.HasPrefix(authHeader, "Bearer ") {
				providedKey = strings.TrimPrefix(authHeader, "Bearer ")
			}
		}

		if providedKey == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "API key required",
				"message": "Provide API key in X-API-Key header or Authorization: Bearer <key>",
			})
			c.Abort()
			return
		}

		if providedKey != apiAccessKey {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "Invalid API key",
				"message": "The provided API key is not valid",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
