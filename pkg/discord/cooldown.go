package discord

import (
	"sync"
	"time"
)

// ExecutionCooldown holds the keys of entities running a rate-limited command.
// A key expires when its window elapses, whether or not the handler finished.
type ExecutionCooldown struct {
	mu     sync.Mutex
	window time.Duration
	keys   map[string]*time.Timer
}

// NewExecutionCooldown creates a cooldown set with a fixed window
func NewExecutionCooldown(window time.Duration) *ExecutionCooldown {
	return &ExecutionCooldown{
		window: window,
		keys:   make(map[string]*time.Timer),
	}
}

// CooldownKey builds the key of a user running a command
func CooldownKey(userID, command string) string {
	return userID + ":" + command
}

// TryAcquire inserts key unless it is already present
func (c *ExecutionCooldown) TryAcquire(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.keys[key]; ok {
		return false
	}

	var timer *time.Timer
	timer = time.AfterFunc(c.window, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.keys[key] == timer {
			delete(c.keys, key)
		}
	})
	c.keys[key] = timer
	return true
}

// Release drops key before its window ends
func (c *ExecutionCooldown) Release(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if timer, ok := c.keys[key]; ok {
		timer.Stop()
		delete(c.keys, key)
	}
}

// Active reports whether key is cooling down
func (c *ExecutionCooldown) Active(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.keys[key]
	return ok
}

// Len returns the number of keys cooling down
func (c *ExecutionCooldown) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.keys)
}

// Reset drops every key and stops their timers
func (c *ExecutionCooldown) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, timer := range c.keys {
		timer.Stop()
		delete(c.keys, key)
	}
}
