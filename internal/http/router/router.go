package router

import (
	"net/http"

	"basegraph.app/recommender/internal/http/dto"
	"basegraph.app/recommender/internal/http/handler"
	"basegraph.app/recommender/internal/service"
	"github.com/gin-gonic/gin"
)

func SetupRoutes(router *gin.Engine, services *service.Services) {
	router.HandleMethodNotAllowed = true
	router.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, dto.ErrorResponse{Detail: "method not allowed"})
	})
	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Detail: "not found"})
	})

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	recommendationHandler := handler.NewRecommendationHandler(services.Recommendations())
	RecommendationRouter(router.Group("/recommendations"), recommendationHandler)
}
