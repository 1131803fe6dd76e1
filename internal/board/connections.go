package board

import (
	"fmt"
	"slices"

	"github.com/talgya/planeforge/internal/economy"
)

// LinkClass says what a Link identifies.
type LinkClass uint8

const (
	ClassResource LinkClass = iota + 1
	ClassTool
	ClassRegion
)

func (c LinkClass) String() string {
	switch c {
	case ClassResource:
		return "resource"
	case ClassTool:
		return "tool"
	case ClassRegion:
		return "region"
	default:
		return fmt.Sprintf("class(%d)", uint8(c))
	}
}

// Link is the identity of something a machine can be connected to: a
// resource kind, a tool kind, or a region id.
type Link struct {
	Class LinkClass `json:"class"`
	Key   string    `json:"key"`
}

func (l Link) String() string {
	return l.Class.String() + ":" + l.Key
}

// ResourceLink identifies a resource kind.
func ResourceLink(k economy.ResourceKind) Link {
	return Link{Class: ClassResource, Key: k.String()}
}

// ToolLink identifies a tool kind.
func ToolLink(k ToolKind) Link {
	return Link{Class: ClassTool, Key: k.String()}
}

// RegionLink identifies a region.
func RegionLink(id string) Link {
	return Link{Class: ClassRegion, Key: id}
}

// Outcome is the result of a connection toggle.
type Outcome uint8

const (
	OutcomeAdded Outcome = iota + 1
	OutcomeRemoved
	OutcomeRejected
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAdded:
		return "added"
	case OutcomeRemoved:
		return "removed"
	case OutcomeRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// EffectiveCapacity is the base capacity plus the dynamic bonus, floored at 0.
// The bonus may be negative.
func EffectiveCapacity(base, bonus int) int {
	return max(0, base+bonus)
}

// Enforce truncates links to capacity, keeping the earliest entries.
// Within capacity the input is returned unchanged; otherwise the result is a
// fresh slice and the input is left untouched. Idempotent.
func Enforce(links []Link, capacity int) []Link {
	capacity = max(0, capacity)
	if len(links) <= capacity {
		return links
	}
	return slices.Clone(links[:capacity])
}

// Toggle removes link when present (always allowed) and otherwise adds it if
// there is spare capacity. A full list rejects the add without change.
func Toggle(links []Link, link Link, capacity int) ([]Link, Outcome) {
	if out, removed := Without(links, link); removed {
		return out, OutcomeRemoved
	}
	if len(links) >= capacity {
		return links, OutcomeRejected
	}
	out := make([]Link, len(links), len(links)+1)
	copy(out, links)
	return append(out, link), OutcomeAdded
}

// Without returns links minus link, as a fresh slice, and whether it was found.
func Without(links []Link, link Link) ([]Link, bool) {
	i := slices.Index(links, link)
	if i < 0 {
		return links, false
	}
	out := make([]Link, 0, len(links)-1)
	out = append(out, links[:i]...)
	return append(out, links[i+1:]...), true
}
