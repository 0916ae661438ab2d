package config

import (
	"encoding/json"
	"errors"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/InVisionApp/conjungo"
	"github.com/gofrs/uuid"
	"github.com/kanikamera/agent/src/log"
	"github.com/kanikamera/agent/src/models"
)

// Defaults returns the configuration a fresh installation starts from:
// a still every 5 minutes at 1296x972, one minute of video per motion
// trigger after half an hour of silence, captures allowed Mon-Fri 09-17.
func Defaults() models.Config {
	return models.Config{
		Type:     "agent",
		Name:     "kanikamera",
		Timezone: "UTC",
		Offline:  "false",
		Capture: models.Capture{
			Resolution:    "1296x972",
			FrameRate:     30,
			Interval:      300,
			VideoDuration: 60,
			Quality:       85,
			Encoder:       "ffmpeg",
		},
		Motion: models.Motion{
			MotionlessPeriod: 1800,
		},
		Timetable: DefaultTimetable(9, 17),
		Cloud:     "dropbox",
		Dropbox: models.Dropbox{
			Directory: "Kanikuvat",
		},
		MaxDiskUsageMB: 500,
	}
}

// DefaultTimetable opens Monday to Friday between the given hours and
// keeps the weekend closed.
func DefaultTimetable(startHour int, endHour int) []*models.Timetable {
	week := make([]*models.Timetable, 7)
	for day := time.Monday; day <= time.Friday; day++ {
		week[int(day)] = &models.Timetable{
			Start1: startHour * 3600,
			End1:   endHour * 3600,
		}
	}
	return week
}

// ReadUserConfig reads the API credentials. When no user.json exists the
// environment (or the built-in default) is used instead, so the REST API
// always comes up.
func ReadUserConfig(configDirectory string) (userConfig models.User) {
	jsonFile, err := os.Open(configDirectory + "/data/config/user.json")
	if err == nil {
		defer jsonFile.Close()
		if err := json.NewDecoder(jsonFile).Decode(&userConfig); err != nil {
			log.Log.Error("config.main.ReadUserConfig(): user.json not valid: " + err.Error())
		}
	}
	if userConfig.Username == "" {
		userConfig.Username = os.Getenv("AGENT_USERNAME")
		userConfig.Password = os.Getenv("AGENT_PASSWORD")
		userConfig.Role = "admin"
	}
	if userConfig.Username == "" {
		log.Log.Warning("config.main.ReadUserConfig(): no user configured, using default credentials.")
		userConfig.Username = "root"
		userConfig.Password = "kanikamera"
		userConfig.Role = "admin"
	}
	return
}

// OpenConfig loads config.json from the configuration directory. A missing
// file is replaced with the defaults and persisted, so a first boot leaves
// a file to edit; an unreadable file is a ConfigError and fatal upstream.
func OpenConfig(configDirectory string, configuration *models.Configuration) error {
	configFile := configDirectory + "/data/config/config.json"
	byteValue, err := os.ReadFile(configFile)
	if err != nil {
		if !os.IsNotExist(err) {
			return &models.ConfigError{Reason: "cannot read " + configFile + ": " + err.Error()}
		}
		log.Log.Warning("config.main.OpenConfig(): no config.json found, writing defaults to " + configFile)
		configuration.Config = Defaults()
		if err := StoreConfig(configDirectory, configuration.Config); err != nil {
			log.Log.Error("config.main.OpenConfig(): could not persist defaults: " + err.Error())
		}
	} else {
		configuration.Config = Defaults()
		if err := json.Unmarshal(byteValue, &configuration.Config); err != nil {
			return &models.ConfigError{Reason: configFile + " not valid: " + err.Error()}
		}
		log.Log.Info("config.main.OpenConfig(): successfully opened " + configFile)
	}

	// Every agent gets a stable key on first boot.
	if configuration.Config.Key == "" {
		key, err := uuid.NewV4()
		if err == nil {
			configuration.Config.Key = key.String()
			if err := StoreConfig(configDirectory, configuration.Config); err != nil {
				log.Log.Error("config.main.OpenConfig(): could not persist agent key: " + err.Error())
			}
		}
	}
	return nil
}

// This function will override the configuration with environment variables.
func OverrideWithEnvironmentVariables(configuration *models.Configuration) {
	environmentVariables := os.Environ()
	for _, env := range environmentVariables {
		if strings.Contains(env, "AGENT_") {
			key := strings.Split(env, "=")[0]
			value := os.Getenv(key)
			switch key {

			/* General configuration */
			case "AGENT_KEY":
				configuration.Config.Key = value
				break
			case "AGENT_NAME":
				configuration.Config.Name = value
				break
			case "AGENT_TIMEZONE":
				configuration.Config.Timezone = value
				break
			case "AGENT_OFFLINE":
				configuration.Config.Offline = value
				break
			case "AGENT_TIME":
				configuration.Config.Time = value
				break
			case "AGENT_LOG_LEVEL":
				configuration.Config.LogLevel = value
				break
			case "AGENT_MAX_DISK_USAGE":
				size, err := strconv.ParseInt(value, 10, 64)
				if err == nil {
					configuration.Config.MaxDiskUsageMB = size
				}
				break

			/* Camera configuration */
			case "AGENT_CAPTURE_RESOLUTION":
				configuration.Config.Capture.Resolution = value
				break
			case "AGENT_CAPTURE_FRAMERATE":
				rate, err := strconv.Atoi(value)
				if err == nil {
					configuration.Config.Capture.FrameRate = rate
				}
				break
			case "AGENT_CAPTURE_INTERVAL":
				interval, err := strconv.ParseInt(value, 10, 64)
				if err == nil {
					configuration.Config.Capture.Interval = interval
				}
				break
			case "AGENT_CAPTURE_VIDEO_DURATION":
				duration, err := strconv.ParseInt(value, 10, 64)
				if err == nil {
					configuration.Config.Capture.VideoDuration = duration
				}
				break
			case "AGENT_CAPTURE_QUALITY":
				quality, err := strconv.Atoi(value)
				if err == nil {
					configuration.Config.Capture.Quality = quality
				}
				break
			case "AGENT_CAPTURE_ROTATION":
				rotation, err := strconv.Atoi(value)
				if err == nil {
					configuration.Config.Capture.Rotation = rotation
				}
				break
			case "AGENT_CAPTURE_DEVICE":
				configuration.Config.Capture.Device = value
				break
			case "AGENT_CAPTURE_ENCODER":
				configuration.Config.Capture.Encoder = value
				break

			/* Motion sensor */
			case "AGENT_MOTION_GPIO_PIN":
				configuration.Config.Motion.GPIOPin = value
				break
			case "AGENT_MOTION_MOTIONLESS_PERIOD":
				period, err := strconv.ParseInt(value, 10, 64)
				if err == nil {
					configuration.Config.Motion.MotionlessPeriod = period
				}
				break

			/* Policy window */
			case "AGENT_TIMETABLE_START":
				hour, err := strconv.Atoi(value)
				if err == nil {
					overrideTimetableHours(configuration, hour, -1)
				}
				break
			case "AGENT_TIMETABLE_END":
				hour, err := strconv.Atoi(value)
				if err == nil {
					overrideTimetableHours(configuration, -1, hour)
				}
				break

			/* Upload providers */
			case "AGENT_CLOUD":
				configuration.Config.Cloud = value
				break
			case "AGENT_DROPBOX_ACCESS_TOKEN":
				configuration.Config.Dropbox.AccessToken = value
				break
			case "AGENT_DROPBOX_DIRECTORY":
				configuration.Config.Dropbox.Directory = value
				break
			case "AGENT_S3_ENDPOINT":
				ensureS3(configuration).Endpoint = value
				break
			case "AGENT_S3_PUBLICKEY":
				ensureS3(configuration).Publickey = value
				break
			case "AGENT_S3_SECRETKEY":
				ensureS3(configuration).Secretkey = value
				break
			case "AGENT_S3_REGION":
				ensureS3(configuration).Region = value
				break
			case "AGENT_S3_BUCKET":
				ensureS3(configuration).Bucket = value
				break
			case "AGENT_S3_DIRECTORY":
				ensureS3(configuration).Directory = value
				break
			case "AGENT_S3_PROXYURI":
				ensureS3(configuration).ProxyURI = value
				break

			/* Integrations */
			case "AGENT_MQTT_URI":
				configuration.Config.MQTTURI = value
				break
			case "AGENT_MQTT_USERNAME":
				configuration.Config.MQTTUsername = value
				break
			case "AGENT_MQTT_PASSWORD":
				configuration.Config.MQTTPassword = value
				break
			case "AGENT_HEARTBEAT_URI":
				configuration.Config.HeartbeatURI = value
				break
			case "AGENT_CONDITION_URI":
				configuration.Config.ConditionURI = value
				break
			case "AGENT_JWT_SECRET":
				configuration.Config.JWTSecret = value
				break

			/* Encryption */
			case "AGENT_ENCRYPTION":
				if configuration.Config.Encryption == nil {
					configuration.Config.Encryption = &models.Encryption{}
				}
				configuration.Config.Encryption.Enabled = value
				break
			case "AGENT_ENCRYPTION_KEY":
				if configuration.Config.Encryption == nil {
					configuration.Config.Encryption = &models.Encryption{}
				}
				configuration.Config.Encryption.SymmetricKey = value
				break
			}
		}
	}
}

func ensureS3(configuration *models.Configuration) *models.S3 {
	if configuration.Config.S3 == nil {
		configuration.Config.S3 = &models.S3{}
	}
	return configuration.Config.S3
}

func overrideTimetableHours(configuration *models.Configuration, startHour int, endHour int) {
	if configuration.Config.Timetable == nil {
		configuration.Config.Timetable = DefaultTimetable(9, 17)
	}
	for _, timetable := range configuration.Config.Timetable {
		if timetable == nil {
			continue
		}
		if startHour >= 0 {
			timetable.Start1 = startHour * 3600
		}
		if endHour >= 0 {
			timetable.End1 = endHour * 3600
		}
	}
}

// ParseResolution splits a WIDTHxHEIGHT string.
func ParseResolution(resolution string) (width int, height int, err error) {
	parts := strings.Split(strings.ToLower(resolution), "x")
	if len(parts) != 2 {
		return 0, 0, errors.New("resolution must look like 1296x972")
	}
	width, errW := strconv.Atoi(strings.TrimSpace(parts[0]))
	height, errH := strconv.Atoi(strings.TrimSpace(parts[1]))
	if errW != nil || errH != nil || width <= 0 || height <= 0 {
		return 0, 0, errors.New("resolution must look like 1296x972")
	}
	return width, height, nil
}

// Validate enforces the startup invariants. A returned error is a
// ConfigError: the agent logs it and exits without entering the loop.
func Validate(config *models.Config) error {
	if config.Capture.Interval <= 0 {
		return &models.ConfigError{Reason: "capture interval must be a positive number of seconds"}
	}
	if config.Capture.VideoDuration <= 0 {
		return &models.ConfigError{Reason: "video duration must be a positive number of seconds"}
	}
	if config.Capture.FrameRate <= 0 {
		return &models.ConfigError{Reason: "framerate must be positive"}
	}
	if config.Motion.MotionlessPeriod < 0 {
		return &models.ConfigError{Reason: "motionless period cannot be negative"}
	}
	if _, _, err := ParseResolution(config.Capture.Resolution); err != nil {
		return &models.ConfigError{Reason: err.Error()}
	}
	if config.Timezone != "" {
		if _, err := time.LoadLocation(config.Timezone); err != nil {
			return &models.ConfigError{Reason: "unknown timezone " + config.Timezone}
		}
	}
	if config.Encryption != nil && config.Encryption.Enabled == "true" && config.Encryption.SymmetricKey == "" {
		return &models.ConfigError{Reason: "encryption enabled but no symmetric key set"}
	}

	// There must be somewhere for the media to go.
	if config.Offline == "true" {
		return nil
	}
	switch config.Cloud {
	case "dropbox", "":
		if config.Dropbox.AccessToken == "" {
			return &models.ConfigError{Reason: "no Dropbox access token configured (set dropbox.accesstoken or AGENT_DROPBOX_ACCESS_TOKEN, or run with offline=true)"}
		}
	case "s3":
		if config.S3 == nil || config.S3.Publickey == "" || config.S3.Secretkey == "" || config.S3.Bucket == "" {
			return &models.ConfigError{Reason: "incomplete S3 configuration, need publickey, secretkey and bucket"}
		}
	default:
		return &models.ConfigError{Reason: "unknown cloud provider " + config.Cloud}
	}
	return nil
}

// SaveConfig merges an updated config into the running one, persists it
// and asks the supervisor for a restart so the new values take effect.
func SaveConfig(configDirectory string, config models.Config, configuration *models.Configuration, communication *models.Communication) error {
	if !communication.IsConfiguring.IsSet() {
		communication.IsConfiguring.Set()
		defer communication.IsConfiguring.UnSet()

		// Zero values in the posted config mean "keep what we have", so
		// strings and numbers only merge when they are set.
		merged := configuration.Config
		opts := conjungo.NewOptions()
		opts.SetTypeMergeFunc(
			reflect.TypeOf(""),
			func(t, s reflect.Value, o *conjungo.Options) (reflect.Value, error) {
				targetStr, _ := t.Interface().(string)
				sourceStr, _ := s.Interface().(string)
				finalStr := targetStr
				if sourceStr != "" {
					finalStr = sourceStr
				}
				return reflect.ValueOf(finalStr), nil
			},
		)
		opts.SetTypeMergeFunc(
			reflect.TypeOf(int(0)),
			func(t, s reflect.Value, o *conjungo.Options) (reflect.Value, error) {
				if s.Int() != 0 {
					return s, nil
				}
				return t, nil
			},
		)
		opts.SetTypeMergeFunc(
			reflect.TypeOf(int64(0)),
			func(t, s reflect.Value, o *conjungo.Options) (reflect.Value, error) {
				if s.Int() != 0 {
					return s, nil
				}
				return t, nil
			},
		)
		if err := conjungo.Merge(&merged, config, opts); err != nil {
			return err
		}
		// Arrays and pointers do not merge, they are replaced when provided.
		if config.Timetable != nil {
			merged.Timetable = config.Timetable
		} else {
			merged.Timetable = configuration.Config.Timetable
		}
		if config.S3 == nil {
			merged.S3 = configuration.Config.S3
		}
		if config.Encryption == nil {
			merged.Encryption = configuration.Config.Encryption
		}

		if err := Validate(&merged); err != nil {
			return err
		}
		if err := StoreConfig(configDirectory, merged); err != nil {
			return err
		}
		configuration.Config = merged

		select {
		case communication.HandleBootstrap <- "restart":
			log.Log.Info("config.main.SaveConfig(): config updated, restarting agent.")
		case <-time.After(1 * time.Second):
			log.Log.Info("config.main.SaveConfig(): config updated, restart already pending.")
		}
		return nil
	}
	return errors.New("already reconfiguring")
}

// StoreConfig writes config.json atomically, so a power cut during an
// update cannot leave a half-written file behind.
func StoreConfig(configDirectory string, config models.Config) error {
	res, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(configDirectory+"/data/config", 0755); err != nil {
		return err
	}
	configFile := configDirectory + "/data/config/config.json"
	tmpFile := configFile + ".tmp"
	if err := os.WriteFile(tmpFile, res, 0644); err != nil {
		return err
	}
	return os.Rename(tmpFile, configFile)
}
