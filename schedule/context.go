package schedule

import (
	"fmt"
	"time"

	"github.com/gogpu/compose"
	"github.com/gogpu/compose/anim"
	"github.com/gogpu/compose/backend"
	"github.com/gogpu/compose/gpu"
	"github.com/gogpu/compose/render"
	"github.com/gogpu/compose/shader"

	// Register the device backends.
	_ "github.com/gogpu/compose/backend/soft"
	_ "github.com/gogpu/compose/backend/wgpu"
)

// Surface receives presented frames. The host hands its surface to the
// scheduler once; after the transfer the execution context owns it and
// calls it with every rendered frame.
type Surface func(pix []byte, w, h int)

// samplerCapacity sizes the keyframe memo cache per context.
const samplerCapacity = 512

// execContext is a goroutine that exclusively owns one device and
// everything built on it. All GPU work happens by sending closures to
// the goroutine; replies are correlated by the per-call channel.
type execContext struct {
	name  string
	calls chan execCall
	done  chan struct{}

	// Owned by the context goroutine after start.
	dev      gpu.Device
	reg      *shader.Registry
	renderer *render.Renderer
	surface  Surface

	// fallback is true when the hardware backend was unavailable and
	// the software device is in use.
	fallback bool
}

type execCall struct {
	fn    func() error
	reply chan error
}

// newExecContext starts the context goroutine and brings up its
// device. backendName selects a specific backend; empty picks the best
// available with software fallback.
func newExecContext(name, backendName string) (*execContext, error) {
	c := &execContext{
		name:  name,
		calls: make(chan execCall),
		done:  make(chan struct{}),
	}

	ready := make(chan error, 1)
	go c.run(backendName, ready)
	if err := <-ready; err != nil {
		return nil, err
	}
	return c, nil
}

func (c *execContext) run(backendName string, ready chan<- error) {
	defer close(c.done)

	if err := c.bringUp(backendName); err != nil {
		ready <- err
		return
	}
	ready <- nil

	for call := range c.calls {
		call.reply <- call.fn()
	}

	c.renderer.Close()
	c.reg.Clear()
	c.dev.Close()
}

func (c *execContext) bringUp(backendName string) error {
	var (
		dev      gpu.Device
		hardware bool
		err      error
	)
	if backendName != "" {
		dev, err = backend.New(backendName)
		hardware = backendName != backend.BackendSoft
	} else {
		dev, hardware, err = backend.Default()
	}
	if err != nil {
		return fmt.Errorf("schedule: %s: no device: %w", c.name, err)
	}
	c.dev = dev
	c.fallback = !hardware && backendName == ""

	c.reg = shader.NewRegistry(dev)
	builtins := shader.Builtins()
	for _, d := range builtins {
		if err := c.reg.Register(d); err != nil {
			return err
		}
	}
	c.reg.Warm(builtins)

	c.renderer, err = render.NewRenderer(dev, c.reg, anim.NewSampler(samplerCapacity))
	if err != nil {
		dev.Close()
		return err
	}

	compose.Logger().Info("execution context ready",
		"context", c.name, "device", dev.Name(), "fallback", c.fallback)
	return nil
}

// call runs fn on the context goroutine and waits for its result, up
// to timeout. On timeout the closure keeps running to completion on
// the context; only the wait is abandoned.
func (c *execContext) call(timeout time.Duration, fn func() error) error {
	reply := make(chan error, 1)
	select {
	case c.calls <- execCall{fn: fn, reply: reply}:
	case <-c.done:
		return ErrQueueClosed
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case err := <-reply:
		return err
	case <-timer.C:
		return fmt.Errorf("%w: context %s after %s", ErrTimeout, c.name, timeout)
	}
}

// close stops the context goroutine and waits for it to release its
// device.
func (c *execContext) close() {
	close(c.calls)
	<-c.done
}
