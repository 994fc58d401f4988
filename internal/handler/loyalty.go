package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Lakriii/eshop-platform-main/internal/dto"
	"github.com/Lakriii/eshop-platform-main/internal/middleware"
	"github.com/Lakriii/eshop-platform-main/internal/service"
)

type LoyaltyHandler struct {
	svc *service.LoyaltyService
}

func NewLoyaltyHandler(svc *service.LoyaltyService) *LoyaltyHandler {
	return &LoyaltyHandler{svc: svc}
}

func (h *LoyaltyHandler) Balance(c *gin.Context) {
	points, err := h.svc.Balance(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, dto.LoyaltyResponse{Points: points})
}
