package components

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gofrs/uuid"

	"github.com/kanikamera/agent/src/capture"
	"github.com/kanikamera/agent/src/log"
	"github.com/kanikamera/agent/src/models"
	"github.com/kanikamera/agent/src/video"
)

// HandleVideoCapture turns motion events into video clips. A detected
// event starts a recording only when the sensor has been quiet for the
// configured motionless period, events inside that period just push the
// quiet-period bookkeeping forward. Falling edges are ignored entirely.
//
// The debounce compares event timestamps, not wall clock reads, so the
// decision is the same no matter how late an event is consumed. The
// last-motion mark is set to the triggering event's timestamp only
// after its recording finished: a recording longer than the motionless
// period can therefore be followed immediately by the next one.
func HandleVideoCapture(ctx context.Context, configDirectory string, gate *capture.Gate, transcoder *video.Transcoder, configuration *models.Configuration, communication *models.Communication) {
	log.Log.Debug("components.Video.HandleVideoCapture(): started")
	config := configuration.Config

	motionless := time.Duration(config.Motion.MotionlessPeriod) * time.Second
	if motionless < 0 {
		motionless = 0
	}

	var lastMotion time.Time

	for {
		select {
		case <-ctx.Done():
			log.Log.Debug("components.Video.HandleVideoCapture(): finished")
			return
		case event := <-communication.HandleMotion:
			if !event.Detected {
				continue
			}
			if !lastMotion.IsZero() && event.Timestamp.Sub(lastMotion) < motionless {
				log.Log.Debug("components.Video.HandleVideoCapture(): motion inside the quiet period, not recording.")
				lastMotion = event.Timestamp
				continue
			}

			RecordClip(ctx, configDirectory, gate, transcoder, configuration, communication, event)
			lastMotion = event.Timestamp
		}
	}
}

// RecordClip records a fixed-duration clip for a motion event and hands
// the finished MP4 to the uploader. The camera writes raw H264 into a
// pipe which the encoder drains concurrently, nothing raw ever touches
// the disk.
func RecordClip(ctx context.Context, configDirectory string, gate *capture.Gate, transcoder *video.Transcoder, configuration *models.Configuration, communication *models.Communication, event models.MotionEvent) bool {
	config := configuration.Config

	duration := time.Duration(config.Capture.VideoDuration) * time.Second
	if duration <= 0 {
		duration = 60 * time.Second
	}

	id, err := uuid.NewV4()
	if err != nil {
		log.Log.Error("components.Video.RecordClip(): " + err.Error())
		return false
	}
	scratch := filepath.Join(configDirectory, "data", "recordings")
	if err := os.MkdirAll(scratch, 0755); err != nil {
		log.Log.Error("components.Video.RecordClip(): " + err.Error())
		return false
	}
	output := filepath.Join(scratch, id.String()+".mp4")

	communication.IsRecording.Set()
	ok := gate.WithCamera(ctx, func(device capture.Device) error {
		pr, pw := io.Pipe()
		encodeDone := make(chan error, 1)
		go func() {
			err := transcoder.Encode(ctx, pr, config.Capture.FrameRate, output)
			if err != nil {
				// A dead encoder no longer drains the pipe. Close the read
				// end so the recorder's writes fail instead of blocking
				// with the camera lease held.
				pr.CloseWithError(err)
			}
			encodeDone <- err
		}()

		recordErr := device.Record(ctx, pw, duration)
		if recordErr != nil {
			// The encoder sees the failure as its input error and
			// discards whatever it wrote so far.
			pw.CloseWithError(recordErr)
		} else {
			pw.Close()
		}
		encodeErr := <-encodeDone

		if recordErr != nil {
			return recordErr
		}
		return encodeErr
	})
	communication.IsRecording.UnSet()
	if !ok {
		return false
	}

	// The probe result is informational, the encoder's exit status
	// already decided whether the clip is usable.
	if info, err := video.Probe(output); err == nil {
		log.Log.Debug("components.Video.RecordClip(): clip of " + info.Duration.String() + ", " + strconv.FormatInt(info.Size, 10) + " bytes")
	} else {
		log.Log.Warning("components.Video.RecordClip(): could not probe the clip: " + err.Error())
	}

	payload, err := os.ReadFile(output)
	os.Remove(output)
	if err != nil {
		log.Log.Error("components.Video.RecordClip(): could not read the finished clip: " + err.Error())
		return false
	}

	job := models.CaptureJob{
		ID:        id.String(),
		Kind:      models.KindVideo,
		StartedAt: event.Timestamp,
		Payload:   payload,
	}

	communication.LastVideoAt.Store(event.Timestamp.Unix())

	select {
	case communication.HandleUpload <- job:
	default:
		log.Log.Warning("components.Video.RecordClip(): upload queue is full, dropping clip.")
	}

	log.Log.Info("components.Video.RecordClip(): recorded clip for motion at " + event.Timestamp.Format("15:04:05"))
	return true
}
