package models

import "time"

const (
	KindStill = "still"
	KindVideo = "video"
)

// MotionEvent is what the motion sensor produces: a level change on the
// GPIO line with the moment it was observed. Timestamps carry Go's
// monotonic clock reading, so elapsed-time arithmetic is safe across
// wall-clock adjustments.
type MotionEvent struct {
	Detected  bool      `json:"detected"`
	Timestamp time.Time `json:"timestamp"`
}

// CaptureJob describes one finished capture on its way to the uploader.
// The payload is owned by the creating task until the job is enqueued,
// after that only the upload worker touches it.
type CaptureJob struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	StartedAt time.Time `json:"started_at"`
	Payload   []byte    `json:"-"`
}

// LiveFrame is the most recent still image, pushed to websocket viewers.
type LiveFrame struct {
	Timestamp int64  `json:"timestamp"`
	Image     []byte `json:"image"`
}
