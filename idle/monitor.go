package idle

import (
	"strings"
	"sync"
	"time"
)

const (
	DefaultWindow   = 30 * time.Minute
	DefaultThrottle = time.Second
)

// EventKind is a category of user interaction
type EventKind string

const (
	EventPointer EventKind = "pointer"
	EventKey     EventKind = "key"
	EventScroll  EventKind = "scroll"
	EventTouch   EventKind = "touch"
)

// ParseEventKind maps DOM event names onto the qualifying categories
func ParseEventKind(name string) (EventKind, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "pointer", "mousedown", "mousemove", "click", "pointerdown", "pointermove":
		return EventPointer, true
	case "key", "keydown", "keypress":
		return EventKey, true
	case "scroll", "wheel":
		return EventScroll, true
	case "touch", "touchstart", "touchmove":
		return EventTouch, true
	}
	return "", false
}

func (k EventKind) qualifies() bool {
	switch k {
	case EventPointer, EventKey, EventScroll, EventTouch:
		return true
	}
	return false
}

// Monitor signs a user out after a window without interaction. It holds a
// single pending timer; resets are throttled.
type Monitor struct {
	window   time.Duration
	throttle time.Duration
	onExpire func()
	nowTime  func() time.Time

	mu        sync.Mutex
	timer     *time.Timer
	running   bool
	gen       uint64
	lastReset time.Time
}

// Option defines a function type to modify the Monitor instance.
type Option func(*Monitor)

func WithWindow(window time.Duration) Option {
	return func(m *Monitor) {
		if window > 0 {
			m.window = window
		}
	}
}

func WithThrottle(throttle time.Duration) Option {
	return func(m *Monitor) {
		if throttle >= 0 {
			m.throttle = throttle
		}
	}
}

// WithNowTime sets the now time function used for throttling (primarily for testing)
func WithNowTime(nowFunc func() time.Time) Option {
	return func(m *Monitor) {
		m.nowTime = nowFunc
	}
}

func New(onExpire func(), options ...Option) *Monitor {
	m := &Monitor{
		window:   DefaultWindow,
		throttle: DefaultThrottle,
		onExpire: onExpire,
		nowTime:  time.Now,
	}
	for _, opt := range options {
		opt(m)
	}
	return m
}

// Start arms the timer. Call it only once a user is present; calling it again
// while running is a no-op.
func (m *Monitor) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return
	}
	m.running = true
	m.arm()
}

// Stop cancels the pending timer. Used when the user disappears for another
// reason so the monitor does not sign out a second time.
func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.running = false
	m.gen++
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}

// Touch resets the countdown for a qualifying event. It reports whether the
// timer was actually reset.
func (m *Monitor) Touch(kind EventKind) bool {
	if !kind.qualifies() {
		return false
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return false
	}
	now := m.nowTime()
	if now.Sub(m.lastReset) < m.throttle {
		return false
	}
	m.arm()
	return true
}

func (m *Monitor) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// arm must be called with mu held
func (m *Monitor) arm() {
	if m.timer != nil {
		m.timer.Stop()
	}
	m.gen++
	gen := m.gen
	m.lastReset = m.nowTime()
	m.timer = time.AfterFunc(m.window, func() { m.expire(gen) })
}

func (m *Monitor) expire(gen uint64) {
	m.mu.Lock()
	// A reset or stop raced with this timer firing
	if !m.running || gen != m.gen {
		m.mu.Unlock()
		return
	}
	m.running = false
	m.timer = nil
	m.mu.Unlock()

	if m.onExpire != nil {
		m.onExpire()
	}
}
