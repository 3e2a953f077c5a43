package api

import (
	"errors"
	"net/http"

	"RestaurantSync/internal/model"
	"RestaurantSync/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type SyncHandler struct {
	ingestion *service.IngestionService
	logger    *logrus.Logger
}

func NewSyncHandler(ingestion *service.IngestionService, logger *logrus.Logger) *SyncHandler {
	return &SyncHandler{
		ingestion: ingestion,
		logger:    logger,
	}
}

// SyncRestaurants 按收藏列表新增餐厅
// @Summary 同步收藏列表中的新餐厅
// @Success 200 {object} model.IngestionReport
// @Failure 409 {object} map[string]string "已有同步在执行"
// @Failure 502 {object} map[string]string "收藏列表不可用"
// @Router /sync/restaurants [post]
func (h *SyncHandler) SyncRestaurants(c *gin.Context) {
	report, err := h.ingestion.Run(c.Request.Context())
	h.respond(c, report, err)
}

// RefreshRestaurants 按已保存的 Place ID 刷新全部餐厅
// @Router /sync/restaurants/refresh [post]
func (h *SyncHandler) RefreshRestaurants(c *gin.Context) {
	report, err := h.ingestion.Refresh(c.Request.Context())
	h.respond(c, report, err)
}

func (h *SyncHandler) respond(c *gin.Context, report *model.IngestionReport, err error) {
	switch {
	case errors.Is(err, service.ErrRunInProgress):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNameSource):
		h.logger.WithError(err).Error("餐厅同步失败：收藏列表不可用")
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	case err != nil:
		h.logger.WithError(err).Error("餐厅同步失败")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusOK, report)
	}
}
