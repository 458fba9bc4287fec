package discord

import (
	"fmt"
	"sync"

	"github.com/bwmarrin/discordgo"

	"github.com/PancyStudios/ApexieGo/pkg/errors"
	"github.com/PancyStudios/ApexieGo/pkg/logger"
)

// Subscriber is the gateway's subscription mechanism. *discordgo.Session implements it.
type Subscriber interface {
	AddHandler(handler interface{}) func()
}

// EventRegistry maps event types to their handlers in discovery order
type EventRegistry struct {
	mu          sync.RWMutex
	handlers    map[string][]*Event
	names       map[string]*Event
	types       []string
	removers    []func()
	bound       bool
	diagnostics []error
}

// NewEventRegistry creates an empty registry
func NewEventRegistry() *EventRegistry {
	return &EventRegistry{
		handlers: make(map[string][]*Event),
		names:    make(map[string]*Event),
	}
}

// Register appends ev to the handlers of its event type
func (r *EventRegistry) Register(ev *Event) error {
	if err := ev.Validate(); err != nil {
		return &errors.LoadError{Kind: KindEvent.String(), Source: ev.Source, Err: err}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.names[ev.Name]; ok {
		err := &errors.DuplicateNameError{Kind: "event", Name: ev.Name, Source: ev.Source, Existing: existing.Name}
		r.diagnostics = append(r.diagnostics, err)
		logger.Warn(err.Error(), "EventRegistry")
		return err
	}

	if _, ok := r.handlers[ev.Event]; !ok {
		r.types = append(r.types, ev.Event)
	}
	r.handlers[ev.Event] = append(r.handlers[ev.Event], ev)
	r.names[ev.Name] = ev

	logger.Debug(fmt.Sprintf("Evento registrado: %s (%s)", ev.Name, ev.Event), "EventRegistry")
	return nil
}

// Handlers returns the handlers bound to eventType in discovery order
func (r *EventRegistry) Handlers(eventType string) []*Event {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*Event(nil), r.handlers[eventType]...)
}

// Types returns the registered event types in first-seen order
func (r *EventRegistry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.types...)
}

// Size returns the number of registered handlers
func (r *EventRegistry) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.names)
}

// Diagnostics returns the duplicates rejected so far
func (r *EventRegistry) Diagnostics() []error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]error(nil), r.diagnostics...)
}

// Bind subscribes one gateway handler per event type. Binding twice without
// Unbind would double every invocation, so it fails with ErrAlreadyBound.
func (r *EventRegistry) Bind(sub Subscriber, newContext func(*discordgo.Session) *EventContext) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.bound {
		return errors.ErrAlreadyBound
	}

	for _, eventType := range r.types {
		eventType := eventType
		remove := sub.AddHandler(func(s *discordgo.Session, payload interface{}) {
			if EventName(payload) != eventType {
				return
			}
			r.Dispatch(newContext(s), eventType, payload)
		})
		r.removers = append(r.removers, remove)
	}
	r.bound = true
	return nil
}

// Unbind removes every subscription made by Bind
func (r *EventRegistry) Unbind() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, remove := range r.removers {
		remove()
	}
	r.removers = nil
	r.bound = false
}

// Bound reports whether the registry is subscribed to a gateway
func (r *EventRegistry) Bound() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.bound
}

// Dispatch runs every handler of eventType in order. A failing handler is
// logged and counted, and the remaining handlers still run.
func (r *EventRegistry) Dispatch(ctx *EventContext, eventType string, payload interface{}) []error {
	var failures []error
	for _, ev := range r.Handlers(eventType) {
		if err := runEvent(ctx, ev, payload); err != nil {
			logger.Error(err.Error(), "EventRegistry")
			errors.Record(err)
			failures = append(failures, err)
		}
	}
	return failures
}

func runEvent(ctx *EventContext, ev *Event, payload interface{}) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = &errors.HandlerExecutionError{Kind: KindEvent.String(), Name: ev.Name, Panic: rec}
		}
	}()

	if runErr := ev.Run(ctx, payload); runErr != nil {
		return &errors.HandlerExecutionError{Kind: KindEvent.String(), Name: ev.Name, Err: runErr}
	}
	return nil
}
