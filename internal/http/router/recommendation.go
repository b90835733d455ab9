package router

import (
	"basegraph.app/recommender/internal/http/handler"
	"github.com/gin-gonic/gin"
)

func RecommendationRouter(rg *gin.RouterGroup, h *handler.RecommendationHandler) {
	rg.POST("", h.Recommend)
}
