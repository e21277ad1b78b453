// Package schedule runs compositor work on dedicated execution
// contexts. Tasks are queued by priority, executed on a goroutine that
// owns its GPU device, retried with exponential backoff unless the
// failure is a deterministic rejection, and answered through callbacks
// correlated by task ID.
package schedule

import (
	"errors"
	"fmt"
)

// MsgType identifies the kind of work a task carries. The worker
// switches exhaustively on this enum.
type MsgType uint8

// Message type constants.
const (
	// MsgRender composites a document into pixels.
	MsgRender MsgType = iota

	// MsgFilter applies a single adjustment to supplied pixels on the
	// lazily created filter context.
	MsgFilter

	// MsgInitialize brings up the render context and its device.
	MsgInitialize

	// MsgResize revalidates and resizes the render target.
	MsgResize

	// MsgShaderPrepare registers and eagerly compiles shader
	// descriptors.
	MsgShaderPrepare

	// MsgShaderSyncRegistry replays every registered descriptor into
	// the context, typically after the context was recreated.
	MsgShaderSyncRegistry

	// MsgShaderContextLoss discards compiled programs so they rebuild
	// against a restored GPU context.
	MsgShaderContextLoss

	msgTypeCount
)

// String returns the wire name of the message type.
func (t MsgType) String() string {
	switch t {
	case MsgRender:
		return "render"
	case MsgFilter:
		return "filter"
	case MsgInitialize:
		return "initialize"
	case MsgResize:
		return "resize"
	case MsgShaderPrepare:
		return "shader:prepare"
	case MsgShaderSyncRegistry:
		return "shader:sync-registry"
	case MsgShaderContextLoss:
		return "shader:context-loss"
	default:
		return "unknown"
	}
}

// IsValid reports whether t is a known message type.
func (t MsgType) IsValid() bool {
	return t < msgTypeCount
}

// ErrorCode classifies a task failure for the host.
type ErrorCode string

// Error code constants.
const (
	// CodeFallbackUsed reports that the hardware device was
	// unavailable and the software fallback is rendering. The work
	// itself succeeded.
	CodeFallbackUsed ErrorCode = "FALLBACK_USED"

	// CodeGPUError reports a device-level failure: lost context,
	// failed compile, allocation failure. Retried before surfacing.
	CodeGPUError ErrorCode = "GPU_ERROR"

	// CodeRenderError reports a failure in the compositor itself:
	// invalid document, rejected dimensions, unknown shader.
	CodeRenderError ErrorCode = "RENDER_ERROR"
)

// TaskError is a classified task failure.
type TaskError struct {
	// Code is the failure classification.
	Code ErrorCode

	// Task is the ID of the failed task.
	Task uint64

	// Err is the underlying error.
	Err error
}

// Error implements error.
func (e *TaskError) Error() string {
	return fmt.Sprintf("task %d: %s: %v", e.Task, e.Code, e.Err)
}

// Unwrap returns the underlying error.
func (e *TaskError) Unwrap() error { return e.Err }

// Scheduler errors.
var (
	// ErrQueueClosed is returned when submitting to a stopped
	// scheduler.
	ErrQueueClosed = errors.New("schedule: scheduler is stopped")

	// ErrNotQueued is returned when cancelling a task that is no
	// longer in the queue. Running tasks cannot be cancelled.
	ErrNotQueued = errors.New("schedule: task is not queued")

	// ErrSurfaceTransferred is returned when transferring the output
	// surface a second time. The surface moves to the execution
	// context exactly once.
	ErrSurfaceTransferred = errors.New("schedule: surface already transferred")

	// ErrTimeout is returned when a context call exceeds the call
	// timeout.
	ErrTimeout = errors.New("schedule: call timed out")

	// ErrRejected marks failures that are deterministic for the given
	// request: malformed payloads, dimensions outside device limits.
	// Rejected tasks are never retried.
	ErrRejected = errors.New("schedule: request rejected")
)
