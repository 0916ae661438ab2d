package routers

import (
	"github.com/kanikamera/agent/src/models"
	"github.com/kanikamera/agent/src/routers/http"
)

func StartWebserver(configDirectory string, configuration *models.Configuration, communication *models.Communication) {
	http.StartServer(configDirectory, configuration, communication)
}
