package v1

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes регистрирует все маршруты API
func (h *Handler) RegisterRoutes(api *gin.RouterGroup) {
	// Открытые маршруты: регистрация, вход и раздача изображений
	api.POST("/register", h.register)
	api.POST("/login", h.login)
	api.GET("/uploads/:filename", h.serveImage)

	// Маршрут Health-check
	api.GET("/healthz", h.healthCheck)

	// Маршруты, требующие токен сессии
	authed := api.Group("", AuthMiddleware(h.tokens, h.logger))
	{
		authed.POST("/logout", h.logout)

		// Маршруты для управления инцидентами (CRUD)
		incidents := authed.Group("/incidents")
		{
			incidents.POST("", h.createIncident)
			incidents.GET("", h.listIncidents)
			incidents.GET("/:id", h.getIncident)
			incidents.PUT("/:id", h.updateIncident)
			incidents.DELETE("/:id", h.deleteIncident)
		}
	}
}
