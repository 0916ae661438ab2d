package models

import "strconv"

// ConfigError makes the agent refuse to start. It is the only error class
// that is allowed to terminate the process, and only before the capture
// loops are running.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return "invalid configuration: " + e.Reason
}

// HardwareError covers camera open and capture failures. It is recovered
// at the gate boundary: the cycle yields no result and the loops carry on.
type HardwareError struct {
	Op  string
	Err error
}

func (e *HardwareError) Error() string {
	return "camera " + e.Op + ": " + e.Err.Error()
}

func (e *HardwareError) Unwrap() error { return e.Err }

// TranscodeError is returned when the external encoder exits non-zero or
// its output cannot be used. Partial output has already been discarded by
// the time this surfaces.
type TranscodeError struct {
	ExitCode int
	Stderr   string
	Err      error
}

func (e *TranscodeError) Error() string {
	msg := "transcode failed (exit " + strconv.Itoa(e.ExitCode) + ")"
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

func (e *TranscodeError) Unwrap() error { return e.Err }

// UploadError wraps a failed upload attempt. Uploads are best effort, a
// job is never retried, so this only ever reaches the log.
type UploadError struct {
	Provider string
	Err      error
}

func (e *UploadError) Error() string {
	return "upload to " + e.Provider + " failed: " + e.Err.Error()
}

func (e *UploadError) Unwrap() error { return e.Err }
