package http

import (
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/kanikamera/agent/src/capture"
	"github.com/kanikamera/agent/src/cloud"
	"github.com/kanikamera/agent/src/components"
	"github.com/kanikamera/agent/src/config"
	"github.com/kanikamera/agent/src/models"
	"github.com/kanikamera/agent/src/utils"
)

// Login godoc
// @Router /api/login [post]
// @ID login
// @Tags authentication
// @Summary Get Authorization token.
// @Description Get Authorization token.
// @Param credentials body models.Authentication true "Credentials"
// @Success 200 {object} models.Authorization
func Login() {}

// GetConfig godoc
// @Router /api/config [get]
// @ID config-get
// @Security Bearer
// @Tags config
// @Summary Get the current configuration.
// @Description Get the current configuration, plus the latest snapshot as base64.
// @Success 200 {object} models.APIResponse
func GetConfig(c *gin.Context, configuration *models.Configuration) {
	c.JSON(200, gin.H{
		"config":   configuration.Config,
		"snapshot": components.GetSnapshot(),
	})
}

// UpdateConfig godoc
// @Router /api/config [post]
// @ID config-post
// @Security Bearer
// @Tags config
// @Param config body models.Config true "Configuration"
// @Summary Update the configuration.
// @Description Merge the posted configuration into the current one, persist it and restart the agent.
// @Success 200 {object} models.APIResponse
func UpdateConfig(c *gin.Context, configDirectory string, configuration *models.Configuration, communication *models.Communication) {
	var conf models.Config
	if err := c.ShouldBindJSON(&conf); err != nil {
		c.JSON(400, models.APIResponse{
			Message: "Something went wrong: " + err.Error(),
		})
		return
	}

	if err := config.SaveConfig(configDirectory, conf, configuration, communication); err != nil {
		c.JSON(400, models.APIResponse{
			Message: "Something went wrong: " + err.Error(),
		})
		return
	}

	c.JSON(200, models.APIResponse{
		Data: "Configuration updated, the agent is restarting.",
	})
}

// GetStatus godoc
// @Router /api/status [get]
// @ID status
// @Security Bearer
// @Tags status
// @Summary Get the runtime status of the agent.
// @Description Get uptime, disk usage, last capture times, queue depth and the recording flag.
// @Success 200 {object} models.Heartbeat
func GetStatus(c *gin.Context, configuration *models.Configuration, communication *models.Communication) {
	c.JSON(200, cloud.BuildHeartbeat(configuration, communication))
}

// MakeSnapshot godoc
// @Router /api/camera/snapshot [post]
// @ID camera-snapshot
// @Security Bearer
// @Tags camera
// @Summary Take a still on demand.
// @Description Ask the still task for an extra capture, it runs through the same camera gate as the scheduled ones.
// @Success 200 {object} models.APIResponse
func MakeSnapshot(c *gin.Context, communication *models.Communication) {
	select {
	case communication.HandleSnapshot <- "api":
		c.JSON(200, models.APIResponse{
			Message: "Snapshot requested.",
		})
	default:
		c.JSON(200, models.APIResponse{
			Message: "A snapshot is already pending.",
		})
	}
}

// VerifyCamera godoc
// @Router /api/camera/verify [post]
// @ID camera-verify
// @Security Bearer
// @Tags camera
// @Summary Verify the camera tooling.
// @Description Open and close the camera device to check it is present and usable.
// @Success 200 {object} models.APIResponse
func VerifyCamera(c *gin.Context, configuration *models.Configuration) {
	device := capture.NewRaspberry(configuration.Config.Capture)
	if err := capture.Verify(device); err != nil {
		c.JSON(400, models.APIResponse{
			Message: "Something went wrong: " + err.Error(),
		})
		return
	}
	c.JSON(200, models.APIResponse{
		Message: "The camera is working fine.",
	})
}

// VerifyStorage godoc
// @Router /api/storage/verify [post]
// @ID storage-verify
// @Security Bearer
// @Tags storage
// @Summary Verify the configured storage provider.
// @Description Upload a small test file to Dropbox or S3 with the current credentials.
// @Success 200 {object} models.APIResponse
func VerifyStorage(c *gin.Context, configuration *models.Configuration) {
	cloud.VerifyStorage(configuration, c)
}

// GetMediaDays godoc
// @Router /api/days [get]
// @ID media-days
// @Security Bearer
// @Tags media
// @Summary List the days with locally retained media.
// @Description List the days with locally retained media.
// @Success 200 {object} models.APIResponse
func GetMediaDays(c *gin.Context, configDirectory string) {
	c.JSON(200, models.APIResponse{
		Data: utils.GetDays(filepath.Join(configDirectory, "data", "media")),
	})
}

// GetMediaOfDay godoc
// @Router /api/media/{day} [get]
// @ID media-day
// @Security Bearer
// @Tags media
// @Param day path string true "Day formatted as YYYYMMDD"
// @Summary List the media captured on a specific day.
// @Description List the media captured on a specific day.
// @Success 200 {object} models.APIResponse
func GetMediaOfDay(c *gin.Context, configDirectory string) {
	day := c.Param("day")
	c.JSON(200, models.APIResponse{
		Data: utils.GetMediaFormatted(filepath.Join(configDirectory, "data", "media"), day),
	})
}
