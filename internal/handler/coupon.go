package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/Lakriii/eshop-platform-main/internal/dto"
	"github.com/Lakriii/eshop-platform-main/internal/model"
	"github.com/Lakriii/eshop-platform-main/internal/repository"
)

// CouponHandler is the staff-facing coupon administration surface. Coupon
// validation and consumption live in the cart and checkout flows.
type CouponHandler struct {
	couponRepo repository.CouponRepository
}

func NewCouponHandler(couponRepo repository.CouponRepository) *CouponHandler {
	return &CouponHandler{couponRepo: couponRepo}
}

func (h *CouponHandler) List(c *gin.Context) {
	coupons, err := h.couponRepo.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	items := make([]dto.CouponResponse, 0, len(coupons))
	for i := range coupons {
		items = append(items, h.toCouponResponse(c.Request.Context(), &coupons[i]))
	}
	c.JSON(http.StatusOK, gin.H{"coupons": items})
}

func (h *CouponHandler) Create(c *gin.Context) {
	var req dto.CreateCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.DiscountPercentage.LessThan(decimal.Zero) || req.DiscountPercentage.GreaterThan(decimal.NewFromInt(100)) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "discount percentage must be between 0 and 100"})
		return
	}

	coupon := &model.Coupon{
		Code:               req.Code,
		DiscountPercentage: req.DiscountPercentage,
		Active:             req.Active,
		ValidFrom:          req.ValidFrom,
		ValidTo:            req.ValidTo,
		MaxUsesTotal:       req.MaxUsesTotal,
		MaxUsesPerUser:     req.MaxUsesPerUser,
		MinOrderTotal:      req.MinOrderTotal,
	}
	if err := h.couponRepo.Create(c.Request.Context(), coupon, req.AllowedUserIDs); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusCreated, h.toCouponResponse(c.Request.Context(), coupon))
}

func (h *CouponHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid coupon ID"})
		return
	}

	var req dto.UpdateCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	coupon, err := h.couponRepo.GetByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	if coupon == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "coupon not found"})
		return
	}

	if req.DiscountPercentage != nil {
		coupon.DiscountPercentage = *req.DiscountPercentage
	}
	if req.Active != nil {
		coupon.Active = *req.Active
	}
	if req.ValidFrom != nil {
		coupon.ValidFrom = req.ValidFrom
	}
	if req.ValidTo != nil {
		coupon.ValidTo = req.ValidTo
	}
	if req.MaxUsesTotal != nil {
		coupon.MaxUsesTotal = *req.MaxUsesTotal
	}
	if req.MaxUsesPerUser != nil {
		coupon.MaxUsesPerUser = *req.MaxUsesPerUser
	}
	if req.MinOrderTotal != nil {
		coupon.MinOrderTotal = *req.MinOrderTotal
	}

	if err := h.couponRepo.Update(c.Request.Context(), coupon); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "coupon not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, h.toCouponResponse(c.Request.Context(), coupon))
}

func (h *CouponHandler) toCouponResponse(ctx context.Context, coupon *model.Coupon) dto.CouponResponse {
	uses, _ := h.couponRepo.CountUses(ctx, nil, coupon.ID)
	return dto.CouponResponse{
		ID:                 coupon.ID,
		Code:               coupon.Code,
		DiscountPercentage: coupon.DiscountPercentage,
		Active:             coupon.Active,
		ValidFrom:          coupon.ValidFrom,
		ValidTo:            coupon.ValidTo,
		MaxUsesTotal:       coupon.MaxUsesTotal,
		MaxUsesPerUser:     coupon.MaxUsesPerUser,
		MinOrderTotal:      coupon.MinOrderTotal,
		TotalUses:          uses,
	}
}
