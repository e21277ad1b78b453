package schedule

import (
	"container/heap"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gogpu/compose"
	"github.com/gogpu/compose/gpu"
	"github.com/gogpu/compose/shader"
	"github.com/gogpu/compose/validate"
)

// Default scheduler tuning.
const (
	DefaultMaxWorkers  = 1
	DefaultMaxRetries  = 3
	DefaultCallTimeout = 30 * time.Second
	DefaultBackoffBase = 1000 * time.Millisecond
	DefaultBackoffCap  = 4000 * time.Millisecond
)

// Options tune a scheduler. The zero value takes every default.
type Options struct {
	// MaxWorkers is the number of queue workers. The execution
	// contexts themselves are single-goroutine regardless.
	MaxWorkers int

	// MaxRetries is how many times a failed task is retried before it
	// reaches the error callback. Deterministic rejections (ErrRejected)
	// are never retried.
	MaxRetries int

	// CallTimeout bounds each call into an execution context.
	CallTimeout time.Duration

	// BackoffBase and BackoffCap shape the retry delay: the n-th
	// retry waits min(BackoffBase * 2^(n-1), BackoffCap).
	BackoffBase time.Duration
	BackoffCap  time.Duration

	// Backend pins a device backend by name. Empty selects the best
	// available with software fallback.
	Backend string
}

func (o Options) withDefaults() Options {
	if o.MaxWorkers <= 0 {
		o.MaxWorkers = DefaultMaxWorkers
	}
	if o.MaxRetries <= 0 {
		o.MaxRetries = DefaultMaxRetries
	}
	if o.CallTimeout <= 0 {
		o.CallTimeout = DefaultCallTimeout
	}
	if o.BackoffBase <= 0 {
		o.BackoffBase = DefaultBackoffBase
	}
	if o.BackoffCap <= 0 {
		o.BackoffCap = DefaultBackoffCap
	}
	return o
}

// Request is the payload of a task; the fields a message type reads
// depend on the type.
type Request struct {
	// Doc is the document to composite (render).
	Doc *compose.Document

	// Pixels, Width and Height carry raw input pixels (filter) or the
	// requested dimensions (resize).
	Pixels []byte
	Width  int
	Height int

	// Adjustment and Params select the filter to apply (filter).
	Adjustment compose.AdjustmentKind
	Params     map[string]compose.Value

	// Descriptors are shaders to register and compile
	// (shader:prepare).
	Descriptors []*shader.Descriptor
}

// Result is a successful task response.
type Result struct {
	// Pixels is the rendered RGBA8 output, nil for tasks that produce
	// no pixels.
	Pixels []byte

	// Width and Height are the output dimensions.
	Width, Height int

	// Notices carry non-fatal reports (clamped parameters, fallback
	// device in use).
	Notices []string
}

// Task is one unit of queued work. Priority is ascending: lower values
// run first, equal values run in submission order.
type Task struct {
	// Type selects the operation.
	Type MsgType

	// Priority orders the queue; lower runs first.
	Priority int

	// Request is the operation payload.
	Request Request

	// OnProgress, OnSuccess and OnError deliver the task's lifecycle.
	// All three are optional and are called from a worker goroutine.
	OnProgress func(stage string)
	OnSuccess  func(Result)
	OnError    func(*TaskError)

	// ID is assigned by Submit.
	ID uint64

	seq      uint64
	index    int
	attempts int
}

// Event is one entry of the debug stream.
type Event struct {
	Seq   uint64
	Task  uint64
	Type  MsgType
	Stage string
	Code  ErrorCode
	Err   string
	At    time.Time
}

// Scheduler owns the task queue, the render execution context, and the
// lazily created filter context.
type Scheduler struct {
	opts Options

	mu      sync.Mutex
	cond    *sync.Cond
	queue   taskQueue
	stopped bool
	nextID  uint64
	nextSeq uint64

	wg sync.WaitGroup

	ctxMu     sync.Mutex
	renderCtx *execContext
	filterCtx *execContext

	surfaceMu          sync.Mutex
	surface            Surface
	surfaceTransferred atomic.Bool

	retryMu sync.Mutex
	retries map[uint64]*pendingRetry

	eventMu      sync.Mutex
	eventsClosed bool
	events       chan Event
	eventSeq     atomic.Uint64
}

// pendingRetry is a failed task waiting out its backoff delay on a
// timer, so the worker stays free for other queued work.
type pendingRetry struct {
	task  *Task
	timer *time.Timer
	cause error
}

// New creates a scheduler and starts its workers.
func New(opts Options) *Scheduler {
	s := &Scheduler{
		opts:    opts.withDefaults(),
		retries: make(map[uint64]*pendingRetry),
		events:  make(chan Event, 64),
	}
	s.cond = sync.NewCond(&s.mu)
	for i := 0; i < s.opts.MaxWorkers; i++ {
		s.wg.Add(1)
		go s.worker()
	}
	return s
}

// Submit queues a task and returns its ID.
func (s *Scheduler) Submit(t *Task) (uint64, error) {
	if !t.Type.IsValid() {
		return 0, fmt.Errorf("schedule: invalid message type %d", t.Type)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return 0, ErrQueueClosed
	}
	s.nextID++
	s.nextSeq++
	t.ID = s.nextID
	t.seq = s.nextSeq
	heap.Push(&s.queue, t)
	s.cond.Signal()
	s.emit(Event{Task: t.ID, Type: t.Type, Stage: "queued"})
	return t.ID, nil
}

// Cancel removes a queued task, including one waiting out a retry
// delay. A task that already started (or finished) cannot be
// cancelled; ErrNotQueued is returned.
func (s *Scheduler) Cancel(id uint64) error {
	s.mu.Lock()
	for _, t := range s.queue {
		if t.ID == id {
			s.queue.remove(t)
			s.mu.Unlock()
			s.emit(Event{Task: id, Type: t.Type, Stage: "cancelled"})
			return nil
		}
	}
	s.mu.Unlock()

	s.retryMu.Lock()
	p, ok := s.retries[id]
	if ok {
		p.timer.Stop()
		delete(s.retries, id)
	}
	s.retryMu.Unlock()
	if ok {
		s.emit(Event{Task: id, Type: p.task.Type, Stage: "cancelled"})
		return nil
	}
	return fmt.Errorf("%w: %d", ErrNotQueued, id)
}

// Pending returns the number of queued tasks.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.Len()
}

// TransferSurface hands the presentation surface to the render
// context. The transfer happens exactly once; repeated calls fail with
// ErrSurfaceTransferred and leave the original surface in place.
func (s *Scheduler) TransferSurface(surface Surface) error {
	if surface == nil {
		return fmt.Errorf("schedule: nil surface")
	}
	if !s.surfaceTransferred.CompareAndSwap(false, true) {
		return ErrSurfaceTransferred
	}
	s.surfaceMu.Lock()
	s.surface = surface
	s.surfaceMu.Unlock()
	s.emit(Event{Stage: "surface-transferred"})
	return nil
}

// SurfaceTransferred reports whether the surface handoff happened.
func (s *Scheduler) SurfaceTransferred() bool {
	return s.surfaceTransferred.Load()
}

// Events exposes the debug event stream. Events are dropped, not
// blocked on, when the consumer falls behind. The channel is closed
// by Stop.
func (s *Scheduler) Events() <-chan Event {
	return s.events
}

// Stop drains no further work: queued tasks are discarded, pending
// retries surface their last failure, workers exit, both execution
// contexts release their devices, and the event stream closes.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	s.queue = nil
	s.cond.Broadcast()
	s.mu.Unlock()

	s.wg.Wait()

	s.retryMu.Lock()
	pending := make([]*pendingRetry, 0, len(s.retries))
	for id, p := range s.retries {
		p.timer.Stop()
		pending = append(pending, p)
		delete(s.retries, id)
	}
	s.retryMu.Unlock()
	for _, p := range pending {
		s.fail(p.task, p.cause)
	}

	s.ctxMu.Lock()
	if s.renderCtx != nil {
		s.renderCtx.close()
		s.renderCtx = nil
	}
	if s.filterCtx != nil {
		s.filterCtx.close()
		s.filterCtx = nil
	}
	s.ctxMu.Unlock()

	s.eventMu.Lock()
	s.eventsClosed = true
	close(s.events)
	s.eventMu.Unlock()
}

func (s *Scheduler) emit(e Event) {
	e.Seq = s.eventSeq.Add(1)
	e.At = time.Now()
	s.eventMu.Lock()
	defer s.eventMu.Unlock()
	if s.eventsClosed {
		return
	}
	select {
	case s.events <- e:
	default:
	}
}

func (s *Scheduler) worker() {
	defer s.wg.Done()
	for {
		s.mu.Lock()
		for !s.stopped && s.queue.Len() == 0 {
			s.cond.Wait()
		}
		if s.stopped {
			s.mu.Unlock()
			return
		}
		t := heap.Pop(&s.queue).(*Task)
		s.mu.Unlock()

		s.execute(t)
	}
}

// execute runs one attempt of a task. Failures other than deterministic
// rejections are requeued with exponential backoff; the worker never
// sleeps, so other queued work proceeds during the delay.
func (s *Scheduler) execute(t *Task) {
	t.attempts++
	s.progress(t, "running")

	res, err := s.dispatch(t)
	if err == nil {
		s.emit(Event{Task: t.ID, Type: t.Type, Stage: "done"})
		if t.OnSuccess != nil {
			t.OnSuccess(res)
		}
		return
	}

	code := classify(err)
	s.emit(Event{Task: t.ID, Type: t.Type, Stage: "error", Code: code, Err: err.Error()})

	if t.attempts <= s.opts.MaxRetries && !errors.Is(err, ErrRejected) {
		delay := backoff(t.attempts, s.opts.BackoffBase, s.opts.BackoffCap)
		compose.Logger().Warn("task failed, retrying",
			"task", t.ID, "type", t.Type, "attempt", t.attempts, "delay", delay, "err", err)
		s.requeue(t, delay, err)
		return
	}

	if t.OnError != nil {
		t.OnError(&TaskError{Code: code, Task: t.ID, Err: err})
	}
}

// requeue schedules t back onto the queue after delay. If the
// scheduler stops first, the task's last failure is surfaced instead.
func (s *Scheduler) requeue(t *Task, delay time.Duration, cause error) {
	s.retryMu.Lock()
	defer s.retryMu.Unlock()
	p := &pendingRetry{task: t, cause: cause}
	p.timer = time.AfterFunc(delay, func() {
		s.retryMu.Lock()
		if _, ok := s.retries[t.ID]; !ok {
			s.retryMu.Unlock()
			return
		}
		delete(s.retries, t.ID)
		s.retryMu.Unlock()

		s.mu.Lock()
		if s.stopped {
			s.mu.Unlock()
			s.fail(t, cause)
			return
		}
		heap.Push(&s.queue, t)
		s.cond.Signal()
		s.mu.Unlock()
		s.emit(Event{Task: t.ID, Type: t.Type, Stage: "requeued"})
	})
	s.retries[t.ID] = p
}

// fail delivers a terminal failure to the task's error callback.
func (s *Scheduler) fail(t *Task, err error) {
	code := classify(err)
	s.emit(Event{Task: t.ID, Type: t.Type, Stage: "failed", Code: code, Err: err.Error()})
	if t.OnError != nil {
		t.OnError(&TaskError{Code: code, Task: t.ID, Err: err})
	}
}

func (s *Scheduler) progress(t *Task, stage string) {
	s.emit(Event{Task: t.ID, Type: t.Type, Stage: stage})
	if t.OnProgress != nil {
		t.OnProgress(stage)
	}
}

// backoff computes the delay before retry attempt n (1-based):
// min(base * 2^(n-1), limit).
func backoff(attempt int, base, limit time.Duration) time.Duration {
	d := base
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= limit {
			return limit
		}
	}
	if d > limit {
		return limit
	}
	return d
}

// classify maps an error onto its host-facing code. Device-level
// failures are retryable; compositor failures are not.
func classify(err error) ErrorCode {
	switch {
	case errors.Is(err, gpu.ErrDeviceClosed),
		errors.Is(err, gpu.ErrCompile),
		errors.Is(err, gpu.ErrNoTarget),
		errors.Is(err, ErrTimeout):
		return CodeGPUError
	default:
		return CodeRenderError
	}
}

// renderContext returns the render execution context, creating it on
// first use.
func (s *Scheduler) renderContext() (*execContext, error) {
	s.ctxMu.Lock()
	defer s.ctxMu.Unlock()
	if s.renderCtx == nil {
		c, err := newExecContext("render", s.opts.Backend)
		if err != nil {
			return nil, err
		}
		s.renderCtx = c
	}
	return s.renderCtx, nil
}

// filterContext returns the filter execution context. It is created
// lazily on the first filter task so hosts that never filter pay
// nothing for it.
func (s *Scheduler) filterContext() (*execContext, error) {
	s.ctxMu.Lock()
	defer s.ctxMu.Unlock()
	if s.filterCtx == nil {
		c, err := newExecContext("filter", s.opts.Backend)
		if err != nil {
			return nil, err
		}
		s.filterCtx = c
	}
	return s.filterCtx, nil
}

// dispatch routes a task to its operation.
func (s *Scheduler) dispatch(t *Task) (Result, error) {
	switch t.Type {
	case MsgInitialize:
		return s.doInitialize(t)
	case MsgRender:
		return s.doRender(t)
	case MsgFilter:
		return s.doFilter(t)
	case MsgResize:
		return s.doResize(t)
	case MsgShaderPrepare:
		return s.doShaderPrepare(t)
	case MsgShaderSyncRegistry:
		return s.doShaderSync(t)
	case MsgShaderContextLoss:
		return s.doContextLoss(t)
	default:
		return Result{}, fmt.Errorf("%w: unhandled message type %s", ErrRejected, t.Type)
	}
}

func (s *Scheduler) doInitialize(t *Task) (Result, error) {
	c, err := s.renderContext()
	if err != nil {
		return Result{}, err
	}
	var res Result
	if c.fallback {
		res.Notices = append(res.Notices, string(CodeFallbackUsed))
		s.emit(Event{Task: t.ID, Type: t.Type, Stage: "fallback", Code: CodeFallbackUsed})
	}
	return res, nil
}

func (s *Scheduler) doRender(t *Task) (Result, error) {
	if t.Request.Doc == nil {
		return Result{}, fmt.Errorf("%w: render without document", ErrRejected)
	}
	if err := t.Request.Doc.Validate(); err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrRejected, err)
	}
	c, err := s.renderContext()
	if err != nil {
		return Result{}, err
	}

	var res Result
	err = c.call(s.opts.CallTimeout, func() error {
		doc := t.Request.Doc
		report := validate.Dimensions(doc.Width, doc.Height, c.dev.Capabilities())
		if !report.OK {
			return fmt.Errorf("%w: dimensions %v (suggested %dx%d)",
				ErrRejected, report.Reasons, report.SuggestedWidth, report.SuggestedHeight)
		}

		s.progress(t, "compositing")
		if _, err := c.renderer.RenderFrame(doc); err != nil {
			return err
		}

		s.progress(t, "readback")
		pix, err := c.renderer.ReadResult()
		if err != nil {
			return err
		}
		res = Result{Pixels: pix, Width: doc.Width, Height: doc.Height}

		s.surfaceMu.Lock()
		surface := s.surface
		s.surfaceMu.Unlock()
		if surface != nil {
			surface(pix, doc.Width, doc.Height)
		}
		return nil
	})
	return res, err
}

// doFilter applies a single adjustment to raw pixels on the filter
// context, modeled as a two-layer document: the input image under the
// requested adjustment.
func (s *Scheduler) doFilter(t *Task) (Result, error) {
	req := t.Request
	if len(req.Pixels) != req.Width*req.Height*4 {
		return Result{}, fmt.Errorf("%w: filter input is %d bytes, want %d",
			ErrRejected, len(req.Pixels), req.Width*req.Height*4)
	}
	c, err := s.filterContext()
	if err != nil {
		return Result{}, err
	}

	params, notices := validate.FilterParams(req.Adjustment, req.Params)

	var res Result
	err = c.call(s.opts.CallTimeout, func() error {
		doc := &compose.Document{
			Width:  req.Width,
			Height: req.Height,
			Layers: []*compose.Layer{
				{
					ID: 2, Kind: compose.LayerAdjustment, Visible: true, Opacity: 100,
					Adjustment: req.Adjustment, Params: params,
				},
				{
					ID: 1, Kind: compose.LayerImage, Visible: true, Opacity: 100,
					Source: &compose.ImageSource{
						Pixels: req.Pixels, Width: req.Width, Height: req.Height,
						Signature: fmt.Sprintf("filter/%d", t.ID),
					},
				},
			},
		}
		if _, err := c.renderer.RenderFrame(doc); err != nil {
			return err
		}
		pix, err := c.renderer.ReadResult()
		if err != nil {
			return err
		}
		c.renderer.InvalidateSource(fmt.Sprintf("filter/%d", t.ID))
		res = Result{Pixels: pix, Width: req.Width, Height: req.Height, Notices: notices}
		return nil
	})
	return res, err
}

func (s *Scheduler) doResize(t *Task) (Result, error) {
	c, err := s.renderContext()
	if err != nil {
		return Result{}, err
	}
	var res Result
	err = c.call(s.opts.CallTimeout, func() error {
		report := validate.Dimensions(t.Request.Width, t.Request.Height, c.dev.Capabilities())
		if !report.OK {
			return fmt.Errorf("%w: resize %v (suggested %dx%d)",
				ErrRejected, report.Reasons, report.SuggestedWidth, report.SuggestedHeight)
		}
		res = Result{Width: t.Request.Width, Height: t.Request.Height}
		return nil
	})
	return res, err
}

func (s *Scheduler) doShaderPrepare(t *Task) (Result, error) {
	c, err := s.renderContext()
	if err != nil {
		return Result{}, err
	}
	return Result{}, c.call(s.opts.CallTimeout, func() error {
		for _, d := range t.Request.Descriptors {
			if err := c.reg.Register(d); err != nil {
				return err
			}
		}
		c.reg.Warm(t.Request.Descriptors)
		return nil
	})
}

func (s *Scheduler) doShaderSync(t *Task) (Result, error) {
	c, err := s.renderContext()
	if err != nil {
		return Result{}, err
	}
	return Result{}, c.call(s.opts.CallTimeout, func() error {
		c.reg.Warm(c.reg.Descriptors())
		return nil
	})
}

func (s *Scheduler) doContextLoss(t *Task) (Result, error) {
	c, err := s.renderContext()
	if err != nil {
		return Result{}, err
	}
	return Result{}, c.call(s.opts.CallTimeout, func() error {
		c.reg.Clear()
		c.reg.Warm(c.reg.Descriptors())
		return nil
	})
}
