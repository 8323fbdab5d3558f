package api

import (
	"context"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/atmosdata/metsync/internal/job"
)

// BatchRunner executes one batch invocation and reports its result.
type BatchRunner interface {
	Run(ctx context.Context) job.Response
}

// NewRouter builds the HTTP trigger surface: POST /run executes one
// batch and relays the structured result with its mapped status code.
func NewRouter(runner BatchRunner, allowedOrigins []string) *gin.Engine {
	return newRouter(runner, allowedOrigins)
}

func newRouter(runner BatchRunner, allowedOrigins []string) *gin.Engine {
	router := gin.New()

	// Add middleware
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	corsConfig := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	normalizedOrigins, allowAll := normalizeAllowedOrigins(allowedOrigins)
	switch {
	case allowAll:
		corsConfig.AllowOriginFunc = func(origin string) bool { return true }
	case len(normalizedOrigins) > 0:
		corsConfig.AllowOrigins = normalizedOrigins
	default:
		corsConfig.AllowOrigins = []string{"http://localhost:3000"}
	}
	router.Use(cors.New(corsConfig))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	router.POST("/run", func(c *gin.Context) {
		resp := runner.Run(c.Request.Context())
		c.JSON(resp.StatusCode, resp.Body)
	})

	return router
}

func normalizeAllowedOrigins(origins []string) ([]string, bool) {
	var (
		parsed   []string
		allowAll bool
	)
	for _, origin := range origins {
		parts := strings.Split(origin, ",")
		for _, part := range parts {
			trimmed := strings.TrimSpace(part)
			if trimmed == "" {
				continue
			}
			if trimmed == "*" {
				allowAll = true
				continue
			}
			parsed = append(parsed, trimmed)
		}
	}
	return parsed, allowAll
}
