package models

type APIResponse struct {
	Data    interface{} `json:"data"`
	Message interface{} `json:"message,omitempty"`
}

// MediaFile describes one locally retained capture.
type MediaFile struct {
	Key       string `json:"key"`
	Day       string `json:"day"`
	Time      string `json:"time"`
	Size      int64  `json:"size"`
	Timestamp int64  `json:"timestamp"`
}
