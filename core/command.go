package core

import (
	"errors"
	"sort"
	"sync"

	"pulselab/protocol"
)

// ErrUnknownCommand is matched by errors returned for unregistered operations
var ErrUnknownCommand = errors.New("unknown command")

// UnknownCommandError carries the offending command byte
type UnknownCommandError struct {
	Code byte
}

// Error implements error.
func (e *UnknownCommandError) Error() string {
	return "unknown command: 0x" + hex2(e.Code)
}

// Is reports whether target is ErrUnknownCommand.
func (e *UnknownCommandError) Is(target error) bool {
	return target == ErrUnknownCommand
}

// CommandHandler handles one decoded command frame
type CommandHandler func(cmd protocol.Command) error

// Command represents a registered operation
type Command struct {
	Op      protocol.Op
	Name    string
	Handler CommandHandler
}

// CommandRegistry maps operation families to their handlers
type CommandRegistry struct {
	mu       sync.RWMutex
	commands map[protocol.Op]*Command
}

// NewCommandRegistry creates a new command registry
func NewCommandRegistry() *CommandRegistry {
	return &CommandRegistry{
		commands: make(map[protocol.Op]*Command),
	}
}

// Register adds or replaces the handler of an operation
func (r *CommandRegistry) Register(op protocol.Op, name string, handler CommandHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.commands[op] = &Command{
		Op:      op,
		Name:    name,
		Handler: handler,
	}
}

// GetCommand retrieves a command by operation
func (r *CommandRegistry) GetCommand(op protocol.Op) (*Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cmd, ok := r.commands[op]
	return cmd, ok
}

// Count returns the number of registered commands
func (r *CommandRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.commands)
}

// Names returns the registered command names ordered by operation
func (r *CommandRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ops := make([]protocol.Op, 0, len(r.commands))
	for op := range r.commands {
		ops = append(ops, op)
	}
	sort.Slice(ops, func(i, j int) bool { return ops[i] < ops[j] })

	names := make([]string, len(ops))
	for i, op := range ops {
		names[i] = r.commands[op].Name
	}
	return names
}

// Dispatch calls the handler registered for the command's operation
func (r *CommandRegistry) Dispatch(cmd protocol.Command) error {
	c, ok := r.GetCommand(cmd.Op)
	if !ok || c.Handler == nil {
		return &UnknownCommandError{Code: cmd.Raw}
	}
	return c.Handler(cmd)
}
