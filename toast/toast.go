package toast

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Toast is a short user-facing notification rendered by the dashboard shell
type Toast struct {
	ID      string    `json:"id"` // lets the shell skip a toast it already rendered
	Level   Level     `json:"level"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Notifier is implemented by anything that can surface a toast to the user
type Notifier interface {
	Info(message string)
	Success(message string)
	Error(message string)
}

const defaultCapacity = 32

// Outbox queues toasts for one session until the shell drains them.
// The oldest toast is dropped once capacity is reached.
type Outbox struct {
	mu       sync.Mutex
	items    []Toast
	capacity int
	nowTime  func() time.Time
}

var _ Notifier = (*Outbox)(nil)

func NewOutbox() *Outbox {
	return &Outbox{capacity: defaultCapacity, nowTime: time.Now}
}

func (o *Outbox) Info(message string)    { o.push(LevelInfo, message) }
func (o *Outbox) Success(message string) { o.push(LevelSuccess, message) }
func (o *Outbox) Error(message string)   { o.push(LevelError, message) }

func (o *Outbox) push(level Level, message string) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if len(o.items) >= o.capacity {
		o.items = o.items[1:]
	}
	o.items = append(o.items, Toast{ID: uuid.NewString(), Level: level, Message: message, At: o.nowTime()})
}

// Drain returns the queued toasts and empties the outbox
func (o *Outbox) Drain() []Toast {
	o.mu.Lock()
	defer o.mu.Unlock()

	items := o.items
	o.items = nil
	if items == nil {
		return []Toast{}
	}
	return items
}

// Len reports how many toasts are waiting
func (o *Outbox) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.items)
}
