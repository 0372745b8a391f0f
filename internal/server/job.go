package server

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// JobStatus represents the current state of a download job
type JobStatus string

const (
	JobStatusQueued      JobStatus = "queued"
	JobStatusDownloading JobStatus = "downloading"
	JobStatusCompleted   JobStatus = "completed"
	JobStatusFailed      JobStatus = "failed"
	JobStatusCancelled   JobStatus = "cancelled"
)

// Job represents a download job
type Job struct {
	ID         string    `json:"id"`
	URL        string    `json:"url"`
	Filename   string    `json:"filename,omitempty"`
	Status     JobStatus `json:"status"`
	Progress   float64   `json:"progress"`
	Downloaded int64     `json:"downloaded"` // bytes downloaded
	Total      int64     `json:"total"`      // total bytes (-1 if unknown)
	File       string    `json:"file,omitempty"`
	Thumbnail  string    `json:"thumbnail,omitempty"`
	Error      string    `json:"error,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	// Internal fields (not serialized)
	cancel context.CancelFunc `json:"-"`
	ctx    context.Context    `json:"-"`
}

// DownloadFunc performs one download and returns the written file path.
type DownloadFunc func(ctx context.Context, url, filename string, progressFn func(downloaded, total int64)) (string, error)

// ThumbnailFunc generates a thumbnail for a downloaded file. It may be
// nil when thumbnailing is unavailable.
type ThumbnailFunc func(ctx context.Context, videoPath string) (string, error)

// JobQueue manages download jobs with a worker pool
type JobQueue struct {
	jobs          map[string]*Job
	mu            sync.RWMutex
	queue         chan *Job
	maxConcurrent int
	downloadFn    DownloadFunc
	thumbnailFn   ThumbnailFunc
	logger        *zap.Logger
	wg            sync.WaitGroup
	cleanupTicker *time.Ticker
	stopCleanup   chan struct{}
}

// NewJobQueue creates a new job queue with the specified concurrency
func NewJobQueue(maxConcurrent int, downloadFn DownloadFunc, thumbnailFn ThumbnailFunc, logger *zap.Logger) *JobQueue {
	if maxConcurrent <= 0 {
		maxConcurrent = 4
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &JobQueue{
		jobs:          make(map[string]*Job),
		queue:         make(chan *Job, 100),
		maxConcurrent: maxConcurrent,
		downloadFn:    downloadFn,
		thumbnailFn:   thumbnailFn,
		logger:        logger,
		stopCleanup:   make(chan struct{}),
	}
}

// Start begins the worker pool and cleanup routine
func (jq *JobQueue) Start() {
	for i := 0; i < jq.maxConcurrent; i++ {
		jq.wg.Add(1)
		go jq.worker()
	}

	// Every 10 minutes, remove finished jobs older than 1 hour
	jq.cleanupTicker = time.NewTicker(10 * time.Minute)
	go jq.cleanupLoop()
}

// Stop gracefully shuts down the job queue
func (jq *JobQueue) Stop() {
	close(jq.queue)
	close(jq.stopCleanup)
	if jq.cleanupTicker != nil {
		jq.cleanupTicker.Stop()
	}
	jq.wg.Wait()
}

func (jq *JobQueue) worker() {
	defer jq.wg.Done()

	for job := range jq.queue {
		jq.processJob(job)
	}
}

func (jq *JobQueue) processJob(job *Job) {
	jq.updateJobStatus(job.ID, JobStatusDownloading, "")

	progressFn := func(downloaded, total int64) {
		jq.updateJobProgress(job.ID, downloaded, total)
	}

	dest, err := jq.downloadFn(job.ctx, job.URL, job.Filename, progressFn)
	if err != nil {
		if job.ctx.Err() == context.Canceled {
			jq.updateJobStatus(job.ID, JobStatusCancelled, "cancelled by user")
		} else {
			jq.logger.Warn("download job failed",
				zap.String("job", job.ID),
				zap.String("url", job.URL),
				zap.Error(err))
			jq.updateJobStatus(job.ID, JobStatusFailed, err.Error())
		}
		return
	}

	var thumb string
	if jq.thumbnailFn != nil {
		if t, err := jq.thumbnailFn(job.ctx, dest); err == nil {
			thumb = t
		} else {
			jq.logger.Debug("thumbnail generation failed",
				zap.String("job", job.ID),
				zap.Error(err))
		}
	}

	jq.completeJob(job.ID, dest, thumb)
}

func (jq *JobQueue) cleanupLoop() {
	for {
		select {
		case <-jq.cleanupTicker.C:
			jq.cleanupOldJobs()
		case <-jq.stopCleanup:
			return
		}
	}
}

func isFinished(status JobStatus) bool {
	return status == JobStatusCompleted || status == JobStatusFailed || status == JobStatusCancelled
}

func (jq *JobQueue) cleanupOldJobs() {
	jq.mu.Lock()
	defer jq.mu.Unlock()

	cutoff := time.Now().Add(-1 * time.Hour)
	for id, job := range jq.jobs {
		if isFinished(job.Status) && job.UpdatedAt.Before(cutoff) {
			delete(jq.jobs, id)
		}
	}
}

// ClearHistory removes all finished jobs and returns how many were removed
func (jq *JobQueue) ClearHistory() int {
	jq.mu.Lock()
	defer jq.mu.Unlock()

	count := 0
	for id, job := range jq.jobs {
		if isFinished(job.Status) {
			delete(jq.jobs, id)
			count++
		}
	}
	return count
}

// RemoveJob removes a single finished job by ID
func (jq *JobQueue) RemoveJob(id string) bool {
	jq.mu.Lock()
	defer jq.mu.Unlock()

	job, ok := jq.jobs[id]
	if !ok || !isFinished(job.Status) {
		return false
	}

	delete(jq.jobs, id)
	return true
}

// AddJob creates and queues a new download job
func (jq *JobQueue) AddJob(url, filename string) *Job {
	ctx, cancel := context.WithCancel(context.Background())

	now := time.Now()
	job := &Job{
		ID:        uuid.NewString(),
		URL:       url,
		Filename:  filename,
		Status:    JobStatusQueued,
		Total:     -1,
		CreatedAt: now,
		UpdatedAt: now,
		ctx:       ctx,
		cancel:    cancel,
	}

	jq.mu.Lock()
	jq.jobs[job.ID] = job
	jq.mu.Unlock()

	jq.queue <- job
	return job
}

// GetJob returns a copy of the job with the given ID
func (jq *JobQueue) GetJob(id string) (*Job, bool) {
	jq.mu.RLock()
	defer jq.mu.RUnlock()

	job, ok := jq.jobs[id]
	if !ok {
		return nil, false
	}
	copied := *job
	return &copied, true
}

// ListJobs returns copies of all jobs, newest first
func (jq *JobQueue) ListJobs() []*Job {
	jq.mu.RLock()
	defer jq.mu.RUnlock()

	jobs := make([]*Job, 0, len(jq.jobs))
	for _, job := range jq.jobs {
		copied := *job
		jobs = append(jobs, &copied)
	}
	// Newest first for the UI
	sort.Slice(jobs, func(i, j int) bool {
		return jobs[i].CreatedAt.After(jobs[j].CreatedAt)
	})
	return jobs
}

// CancelJob cancels a queued or running job
func (jq *JobQueue) CancelJob(id string) bool {
	jq.mu.Lock()
	defer jq.mu.Unlock()

	job, ok := jq.jobs[id]
	if !ok || isFinished(job.Status) {
		return false
	}
	job.cancel()
	return true
}

func (jq *JobQueue) updateJobStatus(id string, status JobStatus, errMsg string) {
	jq.mu.Lock()
	defer jq.mu.Unlock()

	if job, ok := jq.jobs[id]; ok {
		job.Status = status
		job.Error = errMsg
		job.UpdatedAt = time.Now()
	}
}

func (jq *JobQueue) updateJobProgress(id string, downloaded, total int64) {
	jq.mu.Lock()
	defer jq.mu.Unlock()

	if job, ok := jq.jobs[id]; ok {
		job.Downloaded = downloaded
		job.Total = total
		if total > 0 {
			job.Progress = float64(downloaded) / float64(total) * 100
		}
		job.UpdatedAt = time.Now()
	}
}

func (jq *JobQueue) completeJob(id, file, thumbnail string) {
	jq.mu.Lock()
	defer jq.mu.Unlock()

	if job, ok := jq.jobs[id]; ok {
		job.Status = JobStatusCompleted
		job.Progress = 100
		job.File = file
		job.Thumbnail = thumbnail
		job.UpdatedAt = time.Now()
	}
}
