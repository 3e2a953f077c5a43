package api

import "github.com/gin-gonic/gin"

// RegisterRoutes 注册同步与查询接口
func RegisterRoutes(r gin.IRouter, sync *SyncHandler, restaurants *RestaurantHandler) {
	r.POST("/sync/restaurants", sync.SyncRestaurants)
	r.POST("/sync/restaurants/refresh", sync.RefreshRestaurants)

	r.GET("/api/restaurants", restaurants.ListRestaurants)
	r.GET("/api/restaurants/:id", restaurants.GetRestaurant)
	r.GET("/api/quota", restaurants.GetQuota)
	r.GET("/api/runs", restaurants.ListRuns)
}
