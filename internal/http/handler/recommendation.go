package handler

import (
	"log/slog"
	"net/http"

	"basegraph.app/recommender/internal/http/dto"
	"basegraph.app/recommender/internal/service"
	"github.com/gin-gonic/gin"
)

type RecommendationHandler struct {
	recommendationService service.RecommendationService
}

func NewRecommendationHandler(recommendationService service.RecommendationService) *RecommendationHandler {
	return &RecommendationHandler{recommendationService: recommendationService}
}

func (h *RecommendationHandler) Recommend(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.RecommendationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.WarnContext(ctx, "invalid request body", "error", err)
		c.JSON(http.StatusUnprocessableEntity, dto.ErrorResponse{Detail: err.Error()})
		return
	}

	rec, err := h.recommendationService.Recommend(ctx, req.ToModel())
	if err != nil {
		c.JSON(statusFor(err), dto.ErrorResponse{Detail: err.Error()})
		return
	}

	c.JSON(http.StatusOK, dto.ToRecommendationResponse(rec))
}

// statusFor maps service error kinds to HTTP statuses. Upstream and reply
// failures are both the server's problem from the client's point of view.
func statusFor(err error) int {
	kind, ok := service.KindOf(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch kind {
	case service.KindValidation:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
