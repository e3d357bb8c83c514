// Package domain defines the durable job queue: jobs, attempts and retry policy.
package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a job.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// QueueDefault is the queue used when none is given.
const QueueDefault = "default"

// maxBackoff caps the delay between two attempts.
const maxBackoff = time.Hour

// Job is a unit of work delivered at least once to the handler registered for Type.
type Job struct {
	ID          uuid.UUID
	Queue       string
	Type        string
	Payload     []byte
	Status      Status
	Attempts    int
	MaxTries    int
	Timeout     time.Duration
	Backoff     time.Duration
	UniqueKey   *string
	AvailableAt time.Time
	ReservedAt  *time.Time
	LastError   *string
	CompletedAt *time.Time
	FailedAt    *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Attempt returns the attempt currently being executed. Attempts is incremented
// when the job is claimed; the redelivery of a lost final reservation reports the
// final attempt again.
func (j *Job) Attempt() Attempt {
	return Attempt{Number: min(j.Attempts, j.MaxTries), Max: j.MaxTries}
}

// RetryDelay is the exponential backoff applied after the current attempt fails.
func (j *Job) RetryDelay() time.Duration {
	if j.Backoff <= 0 {
		return 0
	}
	delay := j.Backoff
	for i := 1; i < j.Attempts; i++ {
		delay *= 2
		if delay >= maxBackoff {
			return maxBackoff
		}
	}
	return delay
}

// Attempt identifies one delivery of a job.
type Attempt struct {
	Number int
	Max    int
}

// IsFinal reports whether no further delivery will follow a failure of this attempt.
func (a Attempt) IsFinal() bool {
	return a.Number >= a.Max
}

// EnqueueRequest describes a job to add to the queue.
type EnqueueRequest struct {
	Queue    string
	Type     string
	Payload  any
	MaxTries int
	Timeout  time.Duration
	Backoff  time.Duration
	// UniqueKey allows a single pending or running job per key.
	UniqueKey string
	// Delay postpones the first attempt.
	Delay time.Duration
}

// NewJob builds a pending job from req.
func NewJob(req EnqueueRequest, now time.Time) (*Job, error) {
	payload, err := json.Marshal(req.Payload)
	if err != nil {
		return nil, err
	}

	queue := req.Queue
	if queue == "" {
		queue = QueueDefault
	}
	maxTries := req.MaxTries
	if maxTries <= 0 {
		maxTries = 1
	}

	job := &Job{
		ID:          uuid.Must(uuid.NewV7()),
		Queue:       queue,
		Type:        req.Type,
		Payload:     payload,
		Status:      StatusPending,
		MaxTries:    maxTries,
		Timeout:     req.Timeout,
		Backoff:     req.Backoff,
		AvailableAt: now.Add(req.Delay),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if req.UniqueKey != "" {
		key := req.UniqueKey
		job.UniqueKey = &key
	}
	return job, nil
}
