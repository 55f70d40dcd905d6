package sync

import (
	"log/slog"
	"sync"
	"time"

	"github.com/jwhitfield/ottarr/internal/models"
	"github.com/oklog/ulid/v2"
)

// effectBuffer is the per-subscriber effect channel capacity. Emit blocks
// rather than drops when a subscriber falls this far behind.
const effectBuffer = 64

type stateSub struct {
	id string
	ch chan State
}

type effectSub struct {
	id   string
	ch   chan Effect
	done chan struct{}
}

// Bus carries sync state and effects to observers. Per content type it
// keeps a conflated state stream (subscribers get the current value on
// subscribe and only ever the newest value afterwards) and a non-conflated
// effect stream (at-least-once per active subscriber, no replay).
type Bus struct {
	mu         sync.RWMutex
	states     map[models.ContentType]State
	stateSubs  map[models.ContentType]map[string]*stateSub
	effectSubs map[string]*effectSub
	logger     *slog.Logger
}

// NewBus creates a Bus with every content type in the idle phase.
func NewBus(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	b := &Bus{
		states:     make(map[models.ContentType]State),
		stateSubs:  make(map[models.ContentType]map[string]*stateSub),
		effectSubs: make(map[string]*effectSub),
		logger:     logger.With(slog.String("component", "statebus")),
	}
	for _, ct := range models.AllContentTypes {
		b.states[ct] = State{ContentType: ct, Phase: PhaseIdle, UpdatedAt: time.Now()}
	}
	return b
}

// State returns the current state for one content type.
func (b *Bus) State(contentType models.ContentType) State {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.states[contentType]
}

// States returns the current state of every content type.
func (b *Bus) States() map[models.ContentType]State {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make(map[models.ContentType]State, len(b.states))
	for ct, s := range b.states {
		out[ct] = s
	}
	return out
}

// Publish replaces the current state for the state's content type and
// notifies subscribers. Slow subscribers only ever observe the newest value.
func (b *Bus) Publish(state State) {
	if state.UpdatedAt.IsZero() {
		state.UpdatedAt = time.Now()
	}

	b.mu.Lock()
	b.states[state.ContentType] = state
	subs := make([]*stateSub, 0, len(b.stateSubs[state.ContentType]))
	for _, sub := range b.stateSubs[state.ContentType] {
		subs = append(subs, sub)
	}
	b.mu.Unlock()

	for _, sub := range subs {
		conflatedSend(sub.ch, state)
	}
}

// conflatedSend delivers the newest value on a capacity-1 channel,
// displacing any undelivered older value.
func conflatedSend(ch chan State, s State) {
	for {
		select {
		case ch <- s:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

// SubscribeState registers a conflated state subscription for one content
// type. The current value is delivered immediately. The returned cancel
// function removes the subscription.
func (b *Bus) SubscribeState(contentType models.ContentType) (<-chan State, func()) {
	sub := &stateSub{
		id: ulid.Make().String(),
		ch: make(chan State, 1),
	}

	b.mu.Lock()
	if b.stateSubs[contentType] == nil {
		b.stateSubs[contentType] = make(map[string]*stateSub)
	}
	b.stateSubs[contentType][sub.id] = sub
	// The initial delivery happens under the lock: the channel is empty
	// and has capacity 1, so the send cannot block, and no Publish can
	// interleave between registration and delivery. A Publish racing
	// with this call lands strictly after and conflates over the
	// snapshot, so subscribers never observe a stale value after a
	// newer one.
	sub.ch <- b.states[contentType]
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		delete(b.stateSubs[contentType], sub.id)
		b.mu.Unlock()
	}
	return sub.ch, cancel
}

// Emit delivers an effect to every active subscriber. Delivery is
// at-least-once: Emit blocks on a full subscriber buffer until the
// subscriber reads or cancels, and never coalesces.
func (b *Bus) Emit(effect Effect) {
	if effect.At.IsZero() {
		effect.At = time.Now()
	}

	b.mu.RLock()
	subs := make([]*effectSub, 0, len(b.effectSubs))
	for _, sub := range b.effectSubs {
		subs = append(subs, sub)
	}
	b.mu.RUnlock()

	for _, sub := range subs {
		select {
		case sub.ch <- effect:
		case <-sub.done:
		}
	}

	b.logger.Debug("effect emitted",
		slog.String("content_type", string(effect.ContentType)),
		slog.String("kind", string(effect.Kind)),
	)
}

// SubscribeEffects registers an effect subscription across all content
// types. No history is replayed. The returned cancel function removes the
// subscription and unblocks any pending delivery.
func (b *Bus) SubscribeEffects() (<-chan Effect, func()) {
	sub := &effectSub{
		id:   ulid.Make().String(),
		ch:   make(chan Effect, effectBuffer),
		done: make(chan struct{}),
	}

	b.mu.Lock()
	b.effectSubs[sub.id] = sub
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.effectSubs, sub.id)
			b.mu.Unlock()
			close(sub.done)
		})
	}
	return sub.ch, cancel
}
