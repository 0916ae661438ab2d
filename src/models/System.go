package models

type System struct {
	Hostname      string `json:"hostname"`
	Architecture  string `json:"architecture"`
	KernelVersion string `json:"kernel_version"`
	Release       string `json:"release"`
	BootTime      int64  `json:"boot_time"`
	UsedMemory    uint64 `json:"used_memory"`
	TotalMemory   uint64 `json:"total_memory"`
	FreeMemory    uint64 `json:"free_memory"`
}

// Heartbeat is the JSON document posted to the heartbeat endpoint.
type Heartbeat struct {
	Key             string `json:"key"`
	Name            string `json:"name"`
	Version         string `json:"version"`
	Uptime          int64  `json:"uptime"`
	System          System `json:"system"`
	DiskTotal       uint64 `json:"disk_total"`
	DiskFree        uint64 `json:"disk_free"`
	DiskUsedPercent int    `json:"disk_used_percent"`
	LastStill       int64  `json:"last_still"`
	LastVideo       int64  `json:"last_video"`
	QueueDepth      int    `json:"queue_depth"`
	Recording       bool   `json:"recording"`
}
