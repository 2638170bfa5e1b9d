// Package models defines the core domain types for jobreg.
package models

import (
	"strconv"
	"time"
)

// JobStatus is the batch system state of a registry entry.
type JobStatus int

// Status values follow the Condor job status numbering used by the registry.
const (
	JobStatusUnknown   JobStatus = 0
	JobStatusIdle      JobStatus = 1
	JobStatusRunning   JobStatus = 2
	JobStatusRemoved   JobStatus = 3
	JobStatusCompleted JobStatus = 4
	JobStatusHeld      JobStatus = 5
)

var statusNames = map[JobStatus]string{
	JobStatusUnknown:   "UNKNOWN",
	JobStatusIdle:      "IDLE",
	JobStatusRunning:   "RUNNING",
	JobStatusRemoved:   "REMOVED",
	JobStatusCompleted: "COMPLETED",
	JobStatusHeld:      "HELD",
}

// String returns the upper-case status name, or the number for unknown codes.
func (s JobStatus) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "STATUS_" + strconv.Itoa(int(s))
}

// Entry is one job registry record.
type Entry struct {
	RecNum      int64     `json:"recnum"`
	BatchID     string    `json:"batch_id"`
	BlahID      string    `json:"blah_id"`
	Status      JobStatus `json:"status"`
	ExitCode    int       `json:"exit_code"`
	ExitReason  string    `json:"exit_reason,omitempty"`
	WorkerNode  string    `json:"worker_node,omitempty"`
	UserPrefix  string    `json:"user_prefix,omitempty"`
	ProxyFile   string    `json:"proxy_file,omitempty"`
	SubjectHash string    `json:"subject_hash"`
	CreatedAt   time.Time `json:"created_at"`
	ModifiedAt  time.Time `json:"modified_at"`
	UserTime    time.Time `json:"user_time"`
}

// Subject maps a subject hash back to the proxy subject it was computed from.
type Subject struct {
	Hash    string `json:"hash"`
	Subject string `json:"subject"`
}
