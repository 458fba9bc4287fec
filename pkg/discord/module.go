package discord

import (
	"fmt"

	"github.com/PancyStudios/ApexieGo/pkg/errors"
)

// Kind distinguishes user-invoked commands from platform-invoked events
type Kind int

const (
	KindCommand Kind = iota
	KindEvent
)

func (k Kind) String() string {
	switch k {
	case KindCommand:
		return "command"
	case KindEvent:
		return "event"
	default:
		return "unknown"
	}
}

// Scope controls where a command is registered and resolvable
type Scope int

const (
	// ScopeGlobal commands are published everywhere
	ScopeGlobal Scope = iota
	// ScopeGuild commands only exist inside the configured guild
	ScopeGuild
)

func (s Scope) String() string {
	if s == ScopeGuild {
		return "guild"
	}
	return "global"
}

// Module is a discovered handler, either a *Command or an *Event
type Module interface {
	ModuleName() string
	ModuleKind() Kind
	Validate() error
}

// Result is the outcome of discovering one module file
type Result struct {
	Module Module
	Source string
	Err    error
}

// ModuleSource discovers the modules of one kind. Each call starts from scratch.
type ModuleSource interface {
	Discover(kind Kind) []Result
}

// Accept validates m and turns it into a Result, wrapping failures in a LoadError
func Accept(kind Kind, source string, m Module) Result {
	if m == nil {
		return Reject(kind, source, errors.ErrMissingDescriptor)
	}
	if m.ModuleKind() != kind {
		return Reject(kind, source, fmt.Errorf("exported a %s descriptor", m.ModuleKind()))
	}
	if err := m.Validate(); err != nil {
		return Reject(kind, source, err)
	}
	return Result{Module: m, Source: source}
}

// Reject builds a failed Result for source
func Reject(kind Kind, source string, err error) Result {
	return Result{Source: source, Err: &errors.LoadError{Kind: kind.String(), Source: source, Err: err}}
}

// StaticSource serves a compiled-in list of modules
type StaticSource struct {
	Name     string
	Commands []*Command
	Events   []*Event
}

// Discover implements ModuleSource
func (s *StaticSource) Discover(kind Kind) []Result {
	var results []Result
	switch kind {
	case KindCommand:
		for _, cmd := range s.Commands {
			source := fmt.Sprintf("%s:%s/%s", s.Name, cmd.Category, cmd.Name)
			if cmd.Source == "" {
				cmd.Source = source
			}
			results = append(results, Accept(kind, source, cmd))
		}
	case KindEvent:
		for _, ev := range s.Events {
			source := fmt.Sprintf("%s:%s", s.Name, ev.Name)
			if ev.Source == "" {
				ev.Source = source
			}
			results = append(results, Accept(kind, source, ev))
		}
	}
	return results
}
