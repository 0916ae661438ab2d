package http

import (
	jwt "github.com/appleboy/gin-jwt/v2"
	"github.com/gin-gonic/gin"

	"github.com/kanikamera/agent/src/models"
	"github.com/kanikamera/agent/src/routers/websocket"
)

func AddRoutes(r *gin.Engine, authMiddleware *jwt.GinJWTMiddleware, configDirectory string, configuration *models.Configuration, communication *models.Communication) *gin.RouterGroup {

	// The live view speaks its own protocol and checks the token by hand,
	// so it lives outside the api group.
	r.GET("/ws", func(c *gin.Context) {
		websocket.WebsocketHandler(c, JWTSecret(configuration.Config), communication)
	})

	api := r.Group("/api")
	{
		api.POST("/login", authMiddleware.LoginHandler)

		api.Use(authMiddleware.MiddlewareFunc())
		{
			// Secured endpoints..

			api.GET("/config", func(c *gin.Context) {
				GetConfig(c, configuration)
			})
			api.POST("/config", func(c *gin.Context) {
				UpdateConfig(c, configDirectory, configuration, communication)
			})

			api.GET("/status", func(c *gin.Context) {
				GetStatus(c, configuration, communication)
			})

			api.POST("/camera/snapshot", func(c *gin.Context) {
				MakeSnapshot(c, communication)
			})
			api.POST("/camera/verify", func(c *gin.Context) {
				VerifyCamera(c, configuration)
			})
			api.POST("/storage/verify", func(c *gin.Context) {
				VerifyStorage(c, configuration)
			})

			api.GET("/days", func(c *gin.Context) {
				GetMediaDays(c, configDirectory)
			})
			api.GET("/media/:day", func(c *gin.Context) {
				GetMediaOfDay(c, configDirectory)
			})

			api.POST("/restart", func(c *gin.Context) {
				communication.HandleBootstrap <- "restart"
				c.JSON(200, gin.H{
					"restarted": true,
				})
			})
			api.POST("/stop", func(c *gin.Context) {
				communication.HandleBootstrap <- "stop"
				c.JSON(200, gin.H{
					"stopped": true,
				})
			})
		}
	}
	return api
}
