package entity

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Logger is the logging interface used by the host.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// StateListener receives the new state of an entity after it changes.
type StateListener func(State)

type registered struct {
	entity  Entity
	unwatch func()
}

// Host keeps the registered entities and dispatches service calls to them.
//
// Each Call runs on the caller's goroutine, so concurrent requests reach
// entities concurrently. All methods are safe for concurrent use.
type Host struct {
	entities map[string]registered
	mu       sync.RWMutex

	listeners  map[int]StateListener
	nextID     int
	listenerMu sync.RWMutex

	logger Logger
}

// NewHost creates an empty host.
func NewHost() *Host {
	return &Host{
		entities:  make(map[string]registered),
		listeners: make(map[int]StateListener),
		logger:    noopLogger{},
	}
}

// SetLogger sets the logger for the host.
func (h *Host) SetLogger(logger Logger) {
	h.logger = logger
}

// AddEntities registers a batch of entities.
//
// Entities whose id is already taken are skipped and reported in the
// returned error; the rest of the batch is still added.
//
// Parameters:
//   - entities: The batch; entities implementing Watcher are watched for
//     state changes
//
// Returns:
//   - error: ErrDuplicateEntity per taken id, joined; nil if all were added
func (h *Host) AddEntities(entities []Entity) error {
	var errs []error

	h.mu.Lock()
	added := make([]Entity, 0, len(entities))
	for _, e := range entities {
		id := e.UniqueID()
		if _, exists := h.entities[id]; exists {
			errs = append(errs, fmt.Errorf("%w: %s", ErrDuplicateEntity, id))
			continue
		}
		h.entities[id] = registered{entity: e}
		added = append(added, e)
	}
	h.mu.Unlock()

	// Watch outside the lock: a watcher may fire immediately.
	for _, e := range added {
		w, ok := e.(Watcher)
		if !ok {
			continue
		}
		ent := e
		unwatch := w.Watch(func() { h.publish(ent.State()) })

		h.mu.Lock()
		if reg, ok := h.entities[ent.UniqueID()]; ok && reg.entity == ent {
			reg.unwatch = unwatch
			h.entities[ent.UniqueID()] = reg
			unwatch = nil
		}
		h.mu.Unlock()
		if unwatch != nil {
			unwatch()
		}
	}

	h.logger.Info("entities added", "count", len(added))
	return errors.Join(errs...)
}

// RemoveEntities unregisters the given ids. Unknown ids are ignored.
func (h *Host) RemoveEntities(ids ...string) {
	var unwatch []func()

	h.mu.Lock()
	for _, id := range ids {
		reg, ok := h.entities[id]
		if !ok {
			continue
		}
		if reg.unwatch != nil {
			unwatch = append(unwatch, reg.unwatch)
		}
		delete(h.entities, id)
	}
	h.mu.Unlock()

	for _, fn := range unwatch {
		fn()
	}
}

// Get returns the entity registered as id.
func (h *Host) Get(id string) (Entity, error) {
	h.mu.RLock()
	reg, ok := h.entities[id]
	h.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrEntityNotFound, id)
	}
	return reg.entity, nil
}

// Entities returns all registered entities sorted by id.
func (h *Host) Entities() []Entity {
	h.mu.RLock()
	out := make([]Entity, 0, len(h.entities))
	for _, reg := range h.entities {
		out = append(out, reg.entity)
	}
	h.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].UniqueID() < out[j].UniqueID()
	})
	return out
}

// State returns the current state of entity id.
func (h *Host) State(id string) (State, error) {
	e, err := h.Get(id)
	if err != nil {
		return State{}, err
	}
	return e.State(), nil
}

// States returns the state of every entity, sorted by id.
func (h *Host) States() []State {
	entities := h.Entities()
	out := make([]State, 0, len(entities))
	for _, e := range entities {
		out = append(out, e.State())
	}
	return out
}

// Call invokes a service on entity id. Errors from the entity are returned
// unchanged.
func (h *Host) Call(ctx context.Context, id string, call ServiceCall) error {
	e, err := h.Get(id)
	if err != nil {
		return err
	}

	feature, known := serviceFeature[call.Service]
	if !known || !e.SupportedFeatures().Has(feature) {
		return fmt.Errorf("%w: %s on %s", ErrUnsupportedService, call.Service, id)
	}

	h.logger.Debug("service call", "entity_id", id, "service", call.Service)
	return e.HandleService(ctx, call)
}

// Subscribe registers l for state changes of watchable entities.
func (h *Host) Subscribe(l StateListener) (remove func()) {
	h.listenerMu.Lock()
	id := h.nextID
	h.nextID++
	h.listeners[id] = l
	h.listenerMu.Unlock()

	return func() {
		h.listenerMu.Lock()
		delete(h.listeners, id)
		h.listenerMu.Unlock()
	}
}

func (h *Host) publish(s State) {
	h.listenerMu.RLock()
	listeners := make([]StateListener, 0, len(h.listeners))
	for _, l := range h.listeners {
		listeners = append(listeners, l)
	}
	h.listenerMu.RUnlock()

	for _, l := range listeners {
		l(s)
	}
}
