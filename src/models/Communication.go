package models

import (
	"sync/atomic"

	"github.com/tevino/abool"
)

// The communication struct that is managing
// all the communication between the different goroutines.
type Communication struct {
	HandleBootstrap chan string
	HandleStop      chan string
	HandleMotion    chan MotionEvent
	HandleUpload    chan CaptureJob
	HandleSnapshot  chan string
	HandleLiveView  chan LiveFrame
	IsRunning       *abool.AtomicBool
	IsRecording     *abool.AtomicBool
	IsConfiguring   *abool.AtomicBool
	TickCounter     *atomic.Value
	LastStillAt     *atomic.Value
	LastVideoAt     *atomic.Value
}
