// Arbitrating access to the camera and keeping the media directory in shape.
package capture

import (
	"context"
	"io"
	"os"
	"sync"
	"time"

	"github.com/kanikamera/agent/src/conditions"
	"github.com/kanikamera/agent/src/log"
	"github.com/kanikamera/agent/src/models"
	"github.com/kanikamera/agent/src/utils"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("github.com/kanikamera/agent/src/capture")

// Device is a camera the gate can hand out. Open prepares the hardware,
// Still grabs one frame as JPEG bytes, Record writes raw H264 to w for
// the given duration. Implementations do not need to be safe for
// concurrent use, the gate serializes all access.
type Device interface {
	Open() error
	Close() error
	Still(ctx context.Context) ([]byte, error)
	Record(ctx context.Context, w io.Writer, duration time.Duration) error
}

// Gate owns the camera. All capture paths go through WithCamera, which
// serializes hardware access with a mutex and applies the capture policy
// before anything touches the device.
type Gate struct {
	mu            sync.Mutex
	device        Device
	configuration *models.Configuration
	location      *time.Location
}

func NewGate(configuration *models.Configuration, location *time.Location, device Device) *Gate {
	return &Gate{
		device:        device,
		configuration: configuration,
		location:      location,
	}
}

// WithCamera runs fn with exclusive access to the live camera. It returns
// false without touching hardware when the policy window denies capture
// or the context is already cancelled. Device errors, including a panic
// inside fn, are logged and turned into false: no error ever escapes the
// gate. The device is closed and the lock released on every exit path.
func (g *Gate) WithCamera(ctx context.Context, fn func(device Device) error) (ok bool) {
	// The policy check is deliberately done before taking the lock, a
	// denied cycle must not queue behind a running capture.
	if valid, err := conditions.Validate(g.location, g.configuration); !valid {
		log.Log.Debug("capture.Gate.WithCamera(): conditions not met, skipping capture (" + err.Error() + ")")
		return false
	}

	select {
	case <-ctx.Done():
		return false
	default:
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	// We might have waited for a previous lease, so check again.
	select {
	case <-ctx.Done():
		return false
	default:
	}

	_, span := tracer.Start(ctx, "capture.Gate.WithCamera")
	defer span.End()

	if err := g.device.Open(); err != nil {
		hwErr := &models.HardwareError{Op: "open", Err: err}
		log.Log.Error("capture.Gate.WithCamera(): " + hwErr.Error())
		return false
	}
	defer func() {
		if err := g.device.Close(); err != nil {
			log.Log.Error("capture.Gate.WithCamera(): closing camera: " + err.Error())
		}
	}()
	defer func() {
		if r := recover(); r != nil {
			log.Log.Error("capture.Gate.WithCamera(): recovered from camera panic")
			ok = false
		}
	}()

	if err := fn(g.device); err != nil {
		hwErr := &models.HardwareError{Op: "capture", Err: err}
		log.Log.Error("capture.Gate.WithCamera(): " + hwErr.Error())
		return false
	}
	return true
}

// Verify opens and closes the device once, used by the API to tell a
// missing or busy camera apart from a broken configuration.
func Verify(device Device) error {
	if err := device.Open(); err != nil {
		return &models.HardwareError{Op: "open", Err: err}
	}
	return device.Close()
}

// CleanupMediaDirectory prunes the locally retained media, oldest file
// first, until the tree fits the configured budget again. Day
// directories left empty are removed along the way.
func CleanupMediaDirectory(configDirectory string, configuration *models.Configuration) {
	maxSize := configuration.Config.MaxDiskUsageMB
	if maxSize == 0 {
		maxSize = 500
	}
	mediaDirectory := configDirectory + "/data/media"
	for {
		size, err := utils.DirSize(mediaDirectory)
		if err != nil {
			log.Log.Debug("capture.CleanupMediaDirectory(): " + err.Error())
			return
		}
		sizeInMB := size / 1000 / 1000
		if sizeInMB < maxSize {
			return
		}
		oldestFile, err := utils.FindOldestFile(mediaDirectory)
		if err != nil {
			log.Log.Error("capture.CleanupMediaDirectory(): " + err.Error())
			return
		}
		if err := os.Remove(oldestFile); err != nil {
			log.Log.Error("capture.CleanupMediaDirectory(): could not remove " + oldestFile + ": " + err.Error())
			return
		}
		log.Log.Info("capture.CleanupMediaDirectory(): removed oldest file as part of cleanup - " + oldestFile)
		removeEmptyDays(mediaDirectory)
	}
}

func removeEmptyDays(mediaDirectory string) {
	days, _ := utils.ReadDirectory(mediaDirectory)
	for _, day := range days {
		if !day.IsDir() {
			continue
		}
		contents, _ := utils.ReadDirectory(mediaDirectory + "/" + day.Name())
		if len(contents) == 0 {
			os.Remove(mediaDirectory + "/" + day.Name())
		}
	}
}
