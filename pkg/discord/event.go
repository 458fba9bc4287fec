package discord

import (
	"fmt"
	"reflect"

	"github.com/bwmarrin/discordgo"

	"github.com/PancyStudios/ApexieGo/pkg/config"
	"github.com/PancyStudios/ApexieGo/pkg/errors"
)

// EventContext is the dispatch context handed to every event handler
type EventContext struct {
	Session *discordgo.Session
	Client  *ExtendedClient
}

// Config returns the configuration of the owning client
func (ctx *EventContext) Config() *config.Config {
	if ctx.Client != nil && ctx.Client.Config != nil {
		return ctx.Client.Config
	}
	return config.Get()
}

// EventRunFunc handles one gateway event occurrence
type EventRunFunc func(ctx *EventContext, payload interface{}) error

// Event binds a handler to a gateway event type
type Event struct {
	// Name identifies the module
	Name string
	// Event is the payload type name, "MessageCreate" for *discordgo.MessageCreate
	Event  string
	Source string
	Run    EventRunFunc
}

// ModuleName implements Module
func (e *Event) ModuleName() string {
	if e == nil {
		return ""
	}
	return e.Name
}

// ModuleKind implements Module
func (e *Event) ModuleKind() Kind { return KindEvent }

// Validate checks the exported shape of the event
func (e *Event) Validate() error {
	switch {
	case e == nil:
		return errors.ErrMissingDescriptor
	case e.Name == "":
		return errors.ErrMissingName
	case e.Event == "":
		return errors.ErrMissingEvent
	case e.Run == nil:
		return errors.ErrMissingRun
	}
	return nil
}

// On builds an event handler for payloads of type T
func On[T any](name string, run func(ctx *EventContext, e T) error) *Event {
	var zero T
	return &Event{
		Name:  name,
		Event: EventName(zero),
		Run: func(ctx *EventContext, payload interface{}) error {
			e, ok := payload.(T)
			if !ok {
				return fmt.Errorf("unexpected payload %T", payload)
			}
			return run(ctx, e)
		},
	}
}

// EventName returns the event type identifier of a gateway payload
func EventName(payload interface{}) string {
	t := reflect.TypeOf(payload)
	if t == nil {
		return ""
	}
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}
