// Package notice carries user-visible messages from the reconciler to
// whatever displays them. Delivery is fire-and-forget and never affects
// reconciliation results.
package notice

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Level classifies how a notice should be rendered.
type Level string

const (
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notice is one message for the visitor.
type Notice struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	// DurationMs is how long the notice stays visible. Zero with
	// Persistent set means it stays until dismissed.
	DurationMs int64     `json:"duration_ms"`
	Level      Level     `json:"level"`
	Persistent bool      `json:"persistent"`
	CreatedAt  time.Time `json:"created_at"`
}

// Notifier displays notices.
type Notifier interface {
	Notify(n Notice)
}

// Nop discards every notice.
type Nop struct{}

func (Nop) Notify(Notice) {}

// Multi fans a notice out to several notifiers.
type Multi []Notifier

func (m Multi) Notify(n Notice) {
	for _, target := range m {
		target.Notify(n)
	}
}

// LogNotifier writes notices to a zap logger.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a notifier that logs at info level.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (l *LogNotifier) Notify(n Notice) {
	l.logger.Info("Notice",
		zap.String("title", n.Title),
		zap.String("level", string(n.Level)),
		zap.Bool("persistent", n.Persistent),
	)
}

// DefaultInboxSize bounds how many undelivered notices an Inbox keeps.
const DefaultInboxSize = 32

// Inbox buffers notices until the browser polls for them.
type Inbox struct {
	mu    sync.Mutex
	items []Notice
	max   int
}

// NewInbox creates an inbox keeping at most max notices; older ones are
// dropped first.
func NewInbox(max int) *Inbox {
	if max <= 0 {
		max = DefaultInboxSize
	}
	return &Inbox{max: max}
}

func (i *Inbox) Notify(n Notice) {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	i.items = append(i.items, n)
	if over := len(i.items) - i.max; over > 0 {
		i.items = append([]Notice(nil), i.items[over:]...)
	}
}

// Drain returns and clears the buffered notices.
func (i *Inbox) Drain() []Notice {
	i.mu.Lock()
	defer i.mu.Unlock()
	out := i.items
	i.items = nil
	if out == nil {
		out = []Notice{}
	}
	return out
}

// Len returns the number of buffered notices.
func (i *Inbox) Len() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return len(i.items)
}
