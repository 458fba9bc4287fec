package discord

import (
	"sync"

	"github.com/PancyStudios/ApexieGo/pkg/errors"
	"github.com/PancyStudios/ApexieGo/pkg/logger"
)

// CommandRegistry maps command names and aliases to their modules.
// Global and guild-restricted commands live in disjoint maps, and every
// name or alias resolves to exactly one command across both.
type CommandRegistry struct {
	mu             sync.RWMutex
	names          map[string]*Command
	aliases        map[string]*Command
	private        map[string]*Command
	privateAliases map[string]*Command
	order          []*Command
	diagnostics    []error
}

// NewCommandRegistry creates an empty registry
func NewCommandRegistry() *CommandRegistry {
	return &CommandRegistry{
		names:          make(map[string]*Command),
		aliases:        make(map[string]*Command),
		private:        make(map[string]*Command),
		privateAliases: make(map[string]*Command),
	}
}

// Register adds cmd. A collision on its name or any alias rejects the whole
// module, keeps the first registration and records a DuplicateNameError.
func (r *CommandRegistry) Register(cmd *Command) error {
	if err := cmd.Validate(); err != nil {
		return &errors.LoadError{Kind: KindCommand.String(), Source: cmd.Source, Err: err}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.collision(cmd); err != nil {
		r.diagnostics = append(r.diagnostics, err)
		logger.Warn(err.Error(), "CommandRegistry")
		return err
	}

	names, aliases := r.names, r.aliases
	if cmd.Scope == ScopeGuild {
		names, aliases = r.private, r.privateAliases
	}
	names[cmd.Name] = cmd
	for _, alias := range cmd.Aliases {
		if alias != cmd.Name {
			aliases[alias] = cmd
		}
	}
	r.order = append(r.order, cmd)

	logger.Debug("Comando registrado: "+cmd.Name, "CommandRegistry")
	return nil
}

func (r *CommandRegistry) collision(cmd *Command) error {
	if existing := r.lookup(cmd.Name); existing != nil {
		return &errors.DuplicateNameError{Kind: "command", Name: cmd.Name, Source: cmd.Source, Existing: existing.Name}
	}

	seen := make(map[string]bool, len(cmd.Aliases))
	for _, alias := range cmd.Aliases {
		if alias == cmd.Name {
			continue
		}
		if seen[alias] {
			return &errors.DuplicateNameError{Kind: "alias", Name: alias, Source: cmd.Source, Existing: cmd.Name}
		}
		seen[alias] = true
		if existing := r.lookup(alias); existing != nil {
			return &errors.DuplicateNameError{Kind: "alias", Name: alias, Source: cmd.Source, Existing: existing.Name}
		}
	}
	return nil
}

// lookup searches every map. Callers hold the lock.
func (r *CommandRegistry) lookup(name string) *Command {
	for _, m := range []map[string]*Command{r.names, r.aliases, r.private, r.privateAliases} {
		if cmd, ok := m[name]; ok {
			return cmd
		}
	}
	return nil
}

// Resolve finds a command of the given scope by canonical name, then by alias
func (r *CommandRegistry) Resolve(nameOrAlias string, scope Scope) (*Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names, aliases := r.names, r.aliases
	if scope == ScopeGuild {
		names, aliases = r.private, r.privateAliases
	}
	if cmd, ok := names[nameOrAlias]; ok {
		return cmd, true
	}
	cmd, ok := aliases[nameOrAlias]
	return cmd, ok
}

// Commands returns the commands of one scope in discovery order
func (r *CommandRegistry) Commands(scope Scope) []*Command {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var cmds []*Command
	for _, cmd := range r.order {
		if cmd.Scope == scope {
			cmds = append(cmds, cmd)
		}
	}
	return cmds
}

// All returns every registered command in discovery order
func (r *CommandRegistry) All() []*Command {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*Command(nil), r.order...)
}

// Size returns the number of registered commands
func (r *CommandRegistry) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Diagnostics returns the duplicates rejected so far
func (r *CommandRegistry) Diagnostics() []error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]error(nil), r.diagnostics...)
}
