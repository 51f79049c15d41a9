package download

type Status string

const (
	StatusPending     Status = "pending"
	StatusDownloading Status = "downloading"
	StatusCompleted   Status = "completed"
	StatusFailed      Status = "failed"
)

// terminal reports whether no further transitions are allowed from s.
func (s Status) terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Task is the observable state of one provisioning attempt. Entries are never
// evicted: a download id stays queryable for the process lifetime.
type Task struct {
	DownloadID string  `json:"downloadId"`
	ModelID    string  `json:"modelId"`
	Status     Status  `json:"status"`
	Progress   float64 `json:"progress"`
	Message    string  `json:"message"`
	Error      string  `json:"error,omitempty"`
}
