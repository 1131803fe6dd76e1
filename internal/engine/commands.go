package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/talgya/planeforge/internal/board"
	"github.com/talgya/planeforge/internal/economy"
)

// CommandType enumerates the player and admin actions that can be queued.
type CommandType string

const (
	CommandConnect     CommandType = "connect"
	CommandPower       CommandType = "power"
	CommandSelect      CommandType = "select"
	CommandDeselect    CommandType = "deselect"
	CommandCraft       CommandType = "craft"
	CommandDiscard     CommandType = "discard"
	CommandSpawnPortal CommandType = "spawn_portal"
	CommandInvest      CommandType = "invest"
	CommandSetBonus    CommandType = "set_bonus"
)

// CommandQueueLimit caps commands waiting for the next step.
const CommandQueueLimit = 256

var (
	ErrQueueFull      = errors.New("command queue full")
	ErrUnknownCommand = errors.New("unknown command type")
	ErrBadCommand     = errors.New("malformed command")
)

// Command is an intent captured for processing at the start of the next
// step. Only the fields relevant to Type are read.
type Command struct {
	Type     CommandType  `json:"type"`
	Node     board.NodeID `json:"node,omitempty"`
	Target   board.NodeID `json:"target,omitempty"`
	On       *bool        `json:"on,omitempty"`       // power: nil toggles
	Resource string       `json:"resource,omitempty"` // spawn_portal tier, invest kind
	Machine  string       `json:"machine,omitempty"`  // craft type tag
	Tool     string       `json:"tool,omitempty"`     // craft tool kind
	Amount   string       `json:"amount,omitempty"`   // invest amount, decimal string
	Bonus    int          `json:"bonus,omitempty"`
}

// Validate checks the fields a command type needs without touching state.
func (c Command) Validate() error {
	switch c.Type {
	case CommandConnect, CommandDiscard:
		if c.Node == 0 || c.Target == 0 {
			return fmt.Errorf("%s needs node and target: %w", c.Type, ErrBadCommand)
		}
	case CommandPower, CommandSelect:
		if c.Node == 0 {
			return fmt.Errorf("%s needs node: %w", c.Type, ErrBadCommand)
		}
	case CommandDeselect, CommandSetBonus:
	case CommandCraft:
		tag, ok := board.TypeTagFromString(c.Machine)
		if !ok {
			return fmt.Errorf("craft %q: %w", c.Machine, ErrBadCommand)
		}
		if tag == board.TypeTool {
			if _, ok := board.ToolKindFromString(c.Tool); !ok {
				return fmt.Errorf("craft tool %q: %w", c.Tool, ErrBadCommand)
			}
		}
	case CommandSpawnPortal:
		if _, ok := economy.ResourceKindFromString(c.Resource); !ok {
			return fmt.Errorf("spawn portal %q: %w", c.Resource, ErrBadCommand)
		}
	case CommandInvest:
		if c.Node == 0 {
			return fmt.Errorf("invest needs node: %w", ErrBadCommand)
		}
		if _, ok := economy.ResourceKindFromString(c.Resource); !ok {
			return fmt.Errorf("invest %q: %w", c.Resource, ErrBadCommand)
		}
		if _, err := decimal.NewFromString(c.Amount); err != nil {
			return fmt.Errorf("invest amount %q: %w", c.Amount, ErrBadCommand)
		}
	default:
		return fmt.Errorf("%q: %w", c.Type, ErrUnknownCommand)
	}
	return nil
}

// commandQueue is a mutex-guarded FIFO shared between producers and the
// step loop.
type commandQueue struct {
	mu      sync.Mutex
	pending []Command
}

func (q *commandQueue) push(c Command) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.pending) >= CommandQueueLimit {
		return ErrQueueFull
	}
	q.pending = append(q.pending, c)
	return nil
}

func (q *commandQueue) drain() []Command {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.pending
	q.pending = nil
	return out
}

func (q *commandQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Enqueue validates c and queues it for the next step. Safe to call from
// any goroutine.
func (s *Simulation) Enqueue(c Command) error {
	if err := c.Validate(); err != nil {
		return err
	}
	return s.queue.push(c)
}

// Pending returns the number of queued commands.
func (s *Simulation) Pending() int {
	return s.queue.len()
}

// drainCommands applies queued commands in arrival order. Failures are
// logged and skipped.
func (s *Simulation) drainCommands() {
	for _, c := range s.queue.drain() {
		if err := s.Apply(c); err != nil {
			slog.Warn("command rejected", "type", c.Type, "node", c.Node, "error", err)
			continue
		}
		slog.Debug("command applied", "type", c.Type, "node", c.Node)
	}
}

// Apply executes one command immediately.
func (s *Simulation) Apply(c Command) error {
	if err := c.Validate(); err != nil {
		return err
	}
	switch c.Type {
	case CommandConnect:
		out, err := s.Connect(c.Node, c.Target)
		if err != nil {
			return err
		}
		if out == board.OutcomeRejected {
			slog.Debug("connection rejected at capacity", "node", c.Node, "target", c.Target)
		}
		return nil
	case CommandPower:
		if c.On == nil {
			_, err := s.TogglePower(c.Node)
			return err
		}
		return s.SetPowered(c.Node, *c.On)
	case CommandSelect:
		return s.Select(c.Node)
	case CommandDeselect:
		s.Deselect()
		return nil
	case CommandCraft:
		tag, _ := board.TypeTagFromString(c.Machine)
		tool, _ := board.ToolKindFromString(c.Tool)
		_, err := s.Craft(tag, tool)
		return err
	case CommandDiscard:
		return s.Discard(c.Node, c.Target)
	case CommandSpawnPortal:
		tier, _ := economy.ResourceKindFromString(c.Resource)
		_, _, err := s.SpawnPortal(tier)
		return err
	case CommandInvest:
		kind, _ := economy.ResourceKindFromString(c.Resource)
		amount, _ := decimal.NewFromString(c.Amount)
		return s.Invest(c.Node, kind, amount)
	case CommandSetBonus:
		s.SetBaseBonus(c.Bonus)
		return nil
	}
	return fmt.Errorf("%q: %w", c.Type, ErrUnknownCommand)
}
