package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"RestaurantSync/internal/interfaces"
	"RestaurantSync/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// RestaurantHandler 餐厅、配额与同步记录的查询接口
type RestaurantHandler struct {
	restaurants interfaces.RestaurantRepository
	quota       interfaces.QuotaCounter
	runs        interfaces.RunRepository
	logger      *logrus.Logger
}

func NewRestaurantHandler(
	restaurants interfaces.RestaurantRepository,
	quota interfaces.QuotaCounter,
	runs interfaces.RunRepository,
	logger *logrus.Logger,
) *RestaurantHandler {
	return &RestaurantHandler{
		restaurants: restaurants,
		quota:       quota,
		runs:        runs,
		logger:      logger,
	}
}

// ListRestaurants 餐厅列表
// GET /api/restaurants?city=São Paulo&neighborhood=Pinheiros&page=1&page_size=20
func (h *RestaurantHandler) ListRestaurants(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	list, total, err := h.restaurants.List(c.Request.Context(), interfaces.RestaurantFilter{
		City:         c.Query("city"),
		Neighborhood: c.Query("neighborhood"),
		Page:         page,
		PageSize:     pageSize,
	})
	if err != nil {
		h.logger.WithError(err).Error("ListRestaurants failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"list":  list,
		"total": total,
		"page":  page,
	})
}

// GetRestaurant 餐厅详情（含营业时间与类型标签）
// GET /api/restaurants/:id
func (h *RestaurantHandler) GetRestaurant(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid restaurant id"})
		return
	}

	rest, err := h.restaurants.GetByID(c.Request.Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		h.logger.WithError(err).Error("GetRestaurant failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, rest)
}

// GetQuota 指定月份的 API 用量，默认当月
// GET /api/quota?month=2024-05
func (h *RestaurantHandler) GetQuota(c *gin.Context) {
	month := time.Now()
	if m := c.Query("month"); m != "" {
		parsed, err := time.Parse("2006-01", m)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "month must be YYYY-MM"})
			return
		}
		month = parsed
	}

	usage, err := h.quota.Usage(c.Request.Context(), month)
	if err != nil {
		h.logger.WithError(err).Error("GetQuota failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, usage)
}

// ListRuns 最近的同步记录
// GET /api/runs?limit=20
func (h *RestaurantHandler) ListRuns(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	runs, err := h.runs.Recent(c.Request.Context(), limit)
	if err != nil {
		h.logger.WithError(err).Error("ListRuns failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, runs)
}
