// Package cloud ships finished captures to remote storage and keeps a
// local copy for the media browser. Uploads are best effort: one
// attempt per job, failures are logged and never retried.
package cloud

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	carbon "github.com/dromara/carbon/v2"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	sysinfo "github.com/elastic/go-sysinfo"
	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/v4/disk"

	"github.com/kanikamera/agent/src/capture"
	"github.com/kanikamera/agent/src/encryption"
	"github.com/kanikamera/agent/src/log"
	"github.com/kanikamera/agent/src/models"
)

// testFile is a small payload used by the storage verification endpoints.
var testFile = []byte("kanikamera agent storage verification")

// Extension maps a capture kind to the file extension of its payload.
func Extension(kind string) string {
	if kind == models.KindVideo {
		return "mp4"
	}
	return "jpg"
}

// ContentTypeFor returns the MIME type matching an upload target.
func ContentTypeFor(target string) string {
	switch {
	case strings.HasSuffix(target, ".jpg"):
		return "image/jpeg"
	case strings.HasSuffix(target, ".mp4"):
		return "video/mp4"
	default:
		return "application/octet-stream"
	}
}

// UploadTarget builds the remote path for a capture job, in the form
// /<category>/<YYYYMMDD>/<HHMMSS>.<extension>. The date segments use the
// job's start time expressed in the configured timezone.
func UploadTarget(configuration *models.Configuration, job models.CaptureJob, location *time.Location) string {
	config := configuration.Config

	category := ""
	switch config.Cloud {
	case "s3":
		if config.S3 != nil {
			category = config.S3.Directory
		}
	default:
		category = config.Dropbox.Directory
	}
	if category == "" {
		category = "Kanikuvat"
	}
	category = strings.Trim(category, "/")

	stamp := carbon.CreateFromStdTime(job.StartedAt.In(location))
	return "/" + category + "/" + stamp.Format("Ymd") + "/" + stamp.Format("His") + "." + Extension(job.Kind)
}

// EncryptIfNeeded encrypts the payload with the configured symmetric key
// and marks the target with an .aes suffix. Without encryption enabled
// both come back unchanged.
func EncryptIfNeeded(config models.Config, payload []byte, target string) ([]byte, string, error) {
	if config.Encryption == nil || config.Encryption.Enabled != "true" {
		return payload, target, nil
	}
	encrypted, err := encryption.AesEncrypt(payload, config.Encryption.SymmetricKey)
	if err != nil {
		return nil, "", err
	}
	return encrypted, target + ".aes", nil
}

// StoreLocally writes the capture under root using the same day and time
// naming as the remote side, so the media API can serve it back.
func StoreLocally(root string, job models.CaptureJob, location *time.Location) (string, error) {
	stamp := carbon.CreateFromStdTime(job.StartedAt.In(location))
	directory := filepath.Join(root, stamp.Format("Ymd"))
	if err := os.MkdirAll(directory, 0755); err != nil {
		return "", err
	}
	path := filepath.Join(directory, stamp.Format("His")+"."+Extension(job.Kind))
	if err := os.WriteFile(path, job.Payload, 0644); err != nil {
		return "", err
	}
	return path, nil
}

// Upload sends a single capture job to the configured provider. In
// offline mode nothing leaves the device. An error return means the job
// is gone for good, jobs are never retried.
func Upload(configuration *models.Configuration, job models.CaptureJob) error {
	config := configuration.Config

	if config.Offline == "true" {
		log.Log.Debug("cloud.Cloud.Upload(): offline mode, keeping capture on device only.")
		return nil
	}

	location, err := time.LoadLocation(config.Timezone)
	if err != nil {
		location = time.UTC
	}
	target := UploadTarget(configuration, job, location)

	payload, target, err := EncryptIfNeeded(config, job.Payload, target)
	if err != nil {
		uploadErr := &models.UploadError{Provider: config.Cloud, Err: err}
		log.Log.Error("cloud.Cloud.Upload(): " + uploadErr.Error())
		return uploadErr
	}

	switch config.Cloud {
	case "s3":
		err = UploadS3(configuration, target, payload)
	case "dropbox", "":
		err = UploadDropbox(configuration, target, payload)
	default:
		err = errors.New("unknown storage provider " + config.Cloud)
	}
	if err != nil {
		provider := config.Cloud
		if provider == "" {
			provider = "dropbox"
		}
		uploadErr := &models.UploadError{Provider: provider, Err: err}
		log.Log.Error("cloud.Cloud.Upload(): " + uploadErr.Error())
		return uploadErr
	}
	return nil
}

// HandleUpload drains the upload queue until the context is cancelled.
// Every job is persisted locally first, then shipped. A failing upload
// never stops the worker, the capture tasks must not notice.
func HandleUpload(ctx context.Context, configDirectory string, configuration *models.Configuration, communication *models.Communication, mqttClient mqtt.Client) {
	log.Log.Debug("cloud.Cloud.HandleUpload(): started")

	location, err := time.LoadLocation(configuration.Config.Timezone)
	if err != nil {
		location = time.UTC
	}

loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case job := <-communication.HandleUpload:
			if path, err := StoreLocally(filepath.Join(configDirectory, "data", "media"), job, location); err != nil {
				log.Log.Error("cloud.Cloud.HandleUpload(): could not persist capture: " + err.Error())
			} else {
				log.Log.Debug("cloud.Cloud.HandleUpload(): persisted " + path)
				capture.CleanupMediaDirectory(configDirectory, configuration)
			}
			if err := Upload(configuration, job); err == nil && mqttClient != nil {
				target := UploadTarget(configuration, job, location)
				mqttClient.Publish("kanikamera/"+configuration.Config.Key+"/upload", 2, false, target)
			}
		}
	}

	log.Log.Debug("cloud.Cloud.HandleUpload(): finished")
}

// BuildHeartbeat collects the device vitals sent to the heartbeat
// endpoint and shown on the status page.
func BuildHeartbeat(configuration *models.Configuration, communication *models.Communication) models.Heartbeat {
	config := configuration.Config

	heartbeat := models.Heartbeat{
		Key:     config.Key,
		Name:    config.Name,
		Version: "1.0",
	}
	if communication != nil {
		if communication.HandleUpload != nil {
			heartbeat.QueueDepth = len(communication.HandleUpload)
		}
		if communication.IsRecording != nil {
			heartbeat.Recording = communication.IsRecording.IsSet()
		}
		if communication.LastStillAt != nil {
			if lastStill, ok := communication.LastStillAt.Load().(int64); ok {
				heartbeat.LastStill = lastStill
			}
		}
		if communication.LastVideoAt != nil {
			if lastVideo, ok := communication.LastVideoAt.Load().(int64); ok {
				heartbeat.LastVideo = lastVideo
			}
		}
	}

	if host, err := sysinfo.Host(); err == nil {
		info := host.Info()
		system := models.System{
			Hostname:      info.Hostname,
			Architecture:  info.Architecture,
			KernelVersion: info.KernelVersion,
			BootTime:      info.BootTime.Unix(),
		}
		if info.OS != nil {
			system.Release = strings.TrimSpace(info.OS.Name + " " + info.OS.Version)
		}
		if memory, err := host.Memory(); err == nil {
			system.TotalMemory = memory.Total
			system.UsedMemory = memory.Used
			system.FreeMemory = memory.Free
		}
		heartbeat.System = system
		heartbeat.Uptime = int64(time.Since(info.BootTime).Seconds())
	}
	if usage, err := disk.Usage("/"); err == nil {
		heartbeat.DiskTotal = usage.Total
		heartbeat.DiskFree = usage.Free
		heartbeat.DiskUsedPercent = int(usage.UsedPercent)
	}
	return heartbeat
}

// HandleHeartBeat posts the device vitals to the configured endpoint
// every 30 seconds. Without an endpoint the worker does not start.
func HandleHeartBeat(ctx context.Context, configuration *models.Configuration, communication *models.Communication) {
	uri := configuration.Config.HeartbeatURI
	if uri == "" {
		log.Log.Debug("cloud.Cloud.HandleHeartBeat(): no heartbeat endpoint configured.")
		return
	}
	log.Log.Debug("cloud.Cloud.HandleHeartBeat(): started")

loop:
	for {
		heartbeat := BuildHeartbeat(configuration, communication)
		data, err := json.Marshal(heartbeat)
		if err == nil {
			request, err := http.NewRequestWithContext(ctx, "POST", uri, bytes.NewBuffer(data))
			if err == nil {
				request.Header.Set("Content-Type", "application/json")
				client := &http.Client{Timeout: 10 * time.Second}
				response, err := client.Do(request)
				if response != nil {
					response.Body.Close()
				}
				if err == nil && response.StatusCode == 200 {
					log.Log.Debug("cloud.Cloud.HandleHeartBeat(): (200) heartbeat received.")
				} else {
					log.Log.Error("cloud.Cloud.HandleHeartBeat(): something went wrong while sending the heartbeat.")
				}
			}
		}

		select {
		case <-ctx.Done():
			break loop
		case <-time.After(30 * time.Second):
		}
	}

	log.Log.Debug("cloud.Cloud.HandleHeartBeat(): finished")
}

// VerifyStorage checks the configured provider with a test upload, used
// by the API so a broken token shows up before the first capture does.
func VerifyStorage(configuration *models.Configuration, c *gin.Context) {
	config := configuration.Config
	switch config.Cloud {
	case "s3":
		VerifyS3(config, c)
	case "dropbox", "":
		VerifyDropbox(config, c)
	default:
		c.JSON(400, models.APIResponse{
			Data: "unknown storage provider " + config.Cloud,
		})
	}
}
