package download

import (
	"sync"

	"github.com/google/uuid"
)

// Registry is the in-memory table of provisioning attempts plus the index of
// the single active attempt per model. All access goes through one mutex;
// the fetch I/O itself never runs under it.
//
// Entries are never evicted. This is a known resource-growth characteristic:
// a status poll must keep working for any id ever issued during the process
// lifetime, and no eviction policy is specified.
type Registry struct {
	mu            sync.Mutex
	tasks         map[string]*Task
	activeByModel map[string]string
}

func NewRegistry() *Registry {
	return &Registry{
		tasks:         make(map[string]*Task),
		activeByModel: make(map[string]string),
	}
}

// JoinOrCreate returns the active task for the model, creating a pending one
// when none is in flight. The second return reports whether a new task was
// created (and therefore a fetch should be launched by the caller).
func (r *Registry) JoinOrCreate(modelID string) (Task, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if activeID, ok := r.activeByModel[modelID]; ok {
		return *r.tasks[activeID], false
	}

	newTask := &Task{
		DownloadID: uuid.NewString(),
		ModelID:    modelID,
		Status:     StatusPending,
		Progress:   0.0,
		Message:    "Queued " + modelID,
	}
	r.tasks[newTask.DownloadID] = newTask
	r.activeByModel[modelID] = newTask.DownloadID
	return *newTask, true
}

// Get returns a snapshot of the task by download id.
func (r *Registry) Get(downloadID string) (Task, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	foundTask, ok := r.tasks[downloadID]
	if !ok {
		return Task{}, false
	}
	return *foundTask, true
}

// update mutates a task's observable state. Terminal statuses are sticky and
// progress never decreases while downloading.
func (r *Registry) update(downloadID string, status Status, progress float64, message, errMsg string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.tasks[downloadID]
	if !ok || entry.Status.terminal() {
		return
	}
	if status == StatusDownloading && entry.Status == StatusDownloading && progress < entry.Progress {
		progress = entry.Progress
	}
	entry.Status = status
	entry.Progress = progress
	entry.Message = message
	entry.Error = errMsg
}

// releaseActive drops the model's active-index entry so a later ensure call
// may start a fresh attempt. Called on every terminal transition.
func (r *Registry) releaseActive(modelID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.activeByModel, modelID)
}

// activeDownloadID is a test hook into the dedup index.
func (r *Registry) activeDownloadID(modelID string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	activeID, ok := r.activeByModel[modelID]
	return activeID, ok
}
