// Package server exposes the inventory over HTTP.
package server

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"tree-tracker/utils"
)

// SetupRouter wires every handler under /api.
func SetupRouter(h *Handler, logger *utils.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(logger))

	r.Use(cors.New(cors.Config{
		AllowAllOrigins:  true,
		AllowMethods:     []string{"GET", "POST", "OPTIONS", "HEAD"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "X-Requested-With", SessionHeader},
		ExposeHeaders:    []string{"Content-Length", SessionHeader},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	api := r.Group("/api")
	{
		api.GET("/health", h.Health)

		api.GET("/species", h.ListSpecies)
		api.GET("/species/:id", h.GetSpecies)
		api.GET("/genera", h.ListGenera)
		api.GET("/genera/:genus/species", h.ListGenusSpecies)

		api.GET("/location", h.GetLocation)
		api.POST("/location/resolve", h.ResolveLocation)

		api.POST("/benefits", h.CalculateBenefits)

		api.POST("/trees", h.SubmitTree)
		api.GET("/trees", h.ListTrees)
		api.GET("/insights", h.Insights)
		api.GET("/search", h.Search)
	}

	return r
}

func requestLogger(logger *utils.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("[http] %s %s → %d (%s)", c.Request.Method, c.Request.URL.Path,
			c.Writer.Status(), time.Since(start).Round(time.Millisecond))
	}
}
