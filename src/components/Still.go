package components

import (
	"context"
	"encoding/base64"
	"sync/atomic"
	"time"

	"github.com/gofrs/uuid"

	"github.com/kanikamera/agent/src/capture"
	"github.com/kanikamera/agent/src/log"
	"github.com/kanikamera/agent/src/models"
)

// latestSnapshot holds the most recent still as base64, served on the
// config endpoint so the UI can show a preview without waiting for the
// next tick.
var latestSnapshot atomic.Value

// GetSnapshot returns the latest captured still as a base64 encoded JPEG,
// or an empty string when nothing was captured yet.
func GetSnapshot() string {
	if snapshot, ok := latestSnapshot.Load().(string); ok {
		return snapshot
	}
	return ""
}

// HandleStillCapture takes a still on a fixed schedule and hands it to
// the uploader. The schedule is driven by a time.Ticker: ticks that
// fire while a capture is still in flight are dropped by the runtime,
// so an overrunning cycle skips those ticks instead of bursting to
// catch up, and the schedule itself never drifts.
func HandleStillCapture(ctx context.Context, gate *capture.Gate, configuration *models.Configuration, communication *models.Communication) {
	log.Log.Debug("components.Still.HandleStillCapture(): started")
	config := configuration.Config

	interval := time.Duration(config.Capture.Interval) * time.Second
	if interval <= 0 {
		interval = 300 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Log.Debug("components.Still.HandleStillCapture(): finished")
			return
		case <-communication.HandleSnapshot:
			// On-demand snapshot from the API, same path as a tick.
			CaptureStill(ctx, gate, communication)
		case <-ticker.C:
			if communication.TickCounter != nil {
				ticks := communication.TickCounter.Load().(int64)
				communication.TickCounter.Store(ticks + 1)
			}
			CaptureStill(ctx, gate, communication)
		}
	}
}

// CaptureStill takes a single frame through the gate and enqueues it
// for upload. A denied or failed cycle returns false and leaves no
// trace beyond the log.
func CaptureStill(ctx context.Context, gate *capture.Gate, communication *models.Communication) bool {
	started := time.Now()

	var frame []byte
	ok := gate.WithCamera(ctx, func(device capture.Device) error {
		var err error
		frame, err = device.Still(ctx)
		return err
	})
	if !ok {
		return false
	}

	job := models.CaptureJob{
		Kind:      models.KindStill,
		StartedAt: started,
		Payload:   frame,
	}
	if id, err := uuid.NewV4(); err == nil {
		job.ID = id.String()
	}

	communication.LastStillAt.Store(started.Unix())
	latestSnapshot.Store(base64.StdEncoding.EncodeToString(frame))

	// Live viewers get the frame right away. When the previous frame
	// has not been picked up yet this one is skipped, nobody is watching.
	select {
	case communication.HandleLiveView <- models.LiveFrame{Timestamp: started.Unix(), Image: frame}:
	default:
	}

	select {
	case communication.HandleUpload <- job:
	default:
		log.Log.Warning("components.Still.CaptureStill(): upload queue is full, dropping still.")
	}

	log.Log.Info("components.Still.CaptureStill(): captured still of " + started.Format("15:04:05"))
	return true
}
