// Package history records transactions in a BoltDB log so past operations
// can be inspected after the fact.
package history

import (
	"fmt"
	"strings"
	"time"
)

// Operation represents the kind of transaction recorded.
type Operation string

const (
	OpInstall Operation = "install"
	OpRemove  Operation = "remove"
	OpUpgrade Operation = "upgrade"
	OpUpdate  Operation = "update"
	OpRecover Operation = "recover"
)

// Entry represents one transaction in the history log.
type Entry struct {
	ID         string        `json:"id"`
	Timestamp  time.Time     `json:"timestamp"`
	Operation  Operation     `json:"operation"`
	Requested  []string      `json:"requested,omitempty"`
	Installed  []string      `json:"installed,omitempty"`
	Removed    []string      `json:"removed,omitempty"`
	Generation uint64        `json:"generation,omitempty"`
	Duration   time.Duration `json:"duration,omitempty"`
	Success    bool          `json:"success"`
	Error      string        `json:"error,omitempty"`
}

// NewEntry creates a new history entry for an operation on the given
// targets. Success is recorded once the transaction finishes.
func NewEntry(op Operation, requested []string) *Entry {
	return &Entry{
		ID:        time.Now().Format("20060102150405.000000"),
		Timestamp: time.Now(),
		Operation: op,
		Requested: requested,
	}
}

// MarkSuccess records the committed outcome.
func (e *Entry) MarkSuccess(generation uint64, installed, removed []string, took time.Duration) {
	e.Success = true
	e.Generation = generation
	e.Installed = installed
	e.Removed = removed
	e.Duration = took
}

// MarkFailed records the failure.
func (e *Entry) MarkFailed(err error) {
	e.Success = false
	if err != nil {
		e.Error = err.Error()
	}
}

// FormatTime returns a human-readable timestamp.
func (e *Entry) FormatTime() string {
	return e.Timestamp.Format("2006-01-02 15:04:05")
}

// Summary returns a brief one-line description of the transaction.
func (e *Entry) Summary() string {
	status := "success"
	if !e.Success {
		status = "failed"
	}

	targets := strings.Join(e.Requested, " ")
	if targets == "" {
		targets = fmt.Sprintf("%d installed, %d removed", len(e.Installed), len(e.Removed))
	}

	return fmt.Sprintf("%s %s %s (%s)", e.FormatTime(), e.Operation, targets, status)
}
