// Package bus is a typed in-process publish/subscribe channel. Delivery is
// synchronous and in registration order: Publish returns only after every
// subscriber has run.
package bus

import (
	"sync"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-portal-sync/internal/models"
)

// Topic delivers values of one type to its subscribers.
type Topic[T any] struct {
	name   string
	logger *zap.Logger

	mu     sync.Mutex
	nextID uint64
	subs   []subscription[T]
}

type subscription[T any] struct {
	id      uint64
	handler func(T)
}

// NewTopic creates a named topic.
func NewTopic[T any](name string, logger *zap.Logger) *Topic[T] {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Topic[T]{name: name, logger: logger}
}

// Name returns the channel name.
func (t *Topic[T]) Name() string {
	return t.name
}

// Subscribe registers handler and returns a function that removes it.
func (t *Topic[T]) Subscribe(handler func(T)) (unsubscribe func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.nextID++
	id := t.nextID
	t.subs = append(t.subs, subscription[T]{id: id, handler: handler})
	return func() { t.remove(id) }
}

func (t *Topic[T]) remove(id uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i, s := range t.subs {
		if s.id == id {
			// Copy so in-flight Publish calls keep their snapshot intact.
			next := make([]subscription[T], 0, len(t.subs)-1)
			next = append(next, t.subs[:i]...)
			t.subs = append(next, t.subs[i+1:]...)
			return
		}
	}
}

// Publish hands value to every subscriber in registration order. The list is
// snapshotted under lock and dispatched after release, so handlers may
// subscribe or unsubscribe without deadlocking.
func (t *Topic[T]) Publish(value T) {
	t.mu.Lock()
	subs := t.subs
	t.mu.Unlock()

	t.logger.Debug("bus publish", zap.String("channel", t.name), zap.Int("subscribers", len(subs)))
	for _, s := range subs {
		s.handler(value)
	}
}

// Len returns the number of subscribers.
func (t *Topic[T]) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.subs)
}

// Unauthorized is the signal raised when the remote API rejects the session.
type Unauthorized struct {
	Status int
	Reason string
}

// Write is raised after a container's inputs were written to the remote API.
type Write struct {
	Container string
	Selection models.Selection
}

// Channels are the broadcast channels of one role. Roles never share them.
type Channels struct {
	Role         models.Role
	Selection    *Topic[models.Selection]
	Unauthorized *Topic[Unauthorized]
	Writes       *Topic[Write]
}

// NewChannels creates role-scoped channels named "<role>:selection",
// "<role>:unauthorized" and "<role>:writes".
func NewChannels(role models.Role, logger *zap.Logger) *Channels {
	return &Channels{
		Role:         role,
		Selection:    NewTopic[models.Selection](string(role)+":selection", logger),
		Unauthorized: NewTopic[Unauthorized](string(role)+":unauthorized", logger),
		Writes:       NewTopic[Write](string(role)+":writes", logger),
	}
}
