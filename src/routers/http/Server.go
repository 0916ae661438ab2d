package http

import (
	"path/filepath"

	jwt "github.com/appleboy/gin-jwt/v2"
	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/contrib/static"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/kanikamera/agent/docs"
	"github.com/kanikamera/agent/src/log"
	"github.com/kanikamera/agent/src/models"
)

// @title Swagger Kanikamera Agent API
// @version 1.0
// @description This is the API for using and configuring the kanikamera agent.

// @contact.name API Support

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @BasePath /

// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization

func StartServer(configDirectory string, configuration *models.Configuration, communication *models.Communication) {

	// Initialize REST API
	r := gin.Default()

	// Profiling
	pprof.Register(r)

	// Setup CORS
	r.Use(CORS())

	// Add Swagger
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// The JWT middleware
	middleWare := JWTMiddleWare(configDirectory, configuration)
	authMiddleware, err := jwt.New(&middleWare)
	if err != nil {
		log.Log.Fatal("routers.http.Server.StartServer(): JWT error: " + err.Error())
	}

	// Add all routes
	AddRoutes(r, authMiddleware, configDirectory, configuration, communication)

	// Add static routes for the status page and the retained media
	r.Use(static.Serve("/", static.LocalFile("./www", true)))
	r.StaticFS("/file", gin.Dir(filepath.Join(configDirectory, "data", "media"), false))

	// Run the api on port
	err = r.Run(":" + configuration.Port)
	if err != nil {
		log.Log.Fatal("routers.http.Server.StartServer(): " + err.Error())
	}
}
