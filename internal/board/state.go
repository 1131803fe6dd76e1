// Package board holds the placed machine nodes, their typed state, and the
// capacity-limited connections between them.
package board

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/talgya/planeforge/internal/economy"
)

// TypeTag identifies the kind of a node and selects its State variant.
type TypeTag uint8

const (
	TypeCore TypeTag = iota // The single start node; drives production
	TypeResource
	TypeTool
	TypePortal
	TypeTrash

	// Connection-bearing machines.
	TypeDowsing
	TypeQuarry
	TypeEmpowerer
	TypeBooster
	TypeUpgrader
	TypeAutomator
	TypeInvestments

	typeCount
)

var typeNames = [typeCount]string{
	TypeCore:        "core",
	TypeResource:    "resource",
	TypeTool:        "tool",
	TypePortal:      "portal",
	TypeTrash:       "trash",
	TypeDowsing:     "dowsing",
	TypeQuarry:      "quarry",
	TypeEmpowerer:   "empowerer",
	TypeBooster:     "booster",
	TypeUpgrader:    "upgrader",
	TypeAutomator:   "automator",
	TypeInvestments: "investments",
}

func (t TypeTag) String() string {
	if t >= typeCount {
		return fmt.Sprintf("type(%d)", uint8(t))
	}
	return typeNames[t]
}

// TypeTagFromString parses a tag name.
func TypeTagFromString(s string) (TypeTag, bool) {
	for i, name := range typeNames {
		if name == s {
			return TypeTag(i), true
		}
	}
	return 0, false
}

// ToolKind enumerates craftable tools.
type ToolKind uint8

const (
	ToolPickaxe ToolKind = iota
	ToolDrill
	ToolSieve
	ToolLens
	ToolMagnet
	ToolLantern

	toolCount
)

var toolNames = [toolCount]string{"pickaxe", "drill", "sieve", "lens", "magnet", "lantern"}

// Valid reports whether k names a real tool.
func (k ToolKind) Valid() bool { return k < toolCount }

func (k ToolKind) String() string {
	if k >= toolCount {
		return fmt.Sprintf("tool(%d)", uint8(k))
	}
	return toolNames[k]
}

// ToolKindFromString parses a tool name.
func ToolKindFromString(s string) (ToolKind, bool) {
	for i, name := range toolNames {
		if name == s {
			return ToolKind(i), true
		}
	}
	return 0, false
}

// State is the per-type payload of a node. The set of variants is closed.
type State interface {
	Tag() TypeTag
	sealed()
}

// Power is the powered flag shared by production and connection nodes.
type Power struct {
	Powered bool `json:"powered"`
}

// IsPowered reports the flag.
func (p Power) IsPowered() bool { return p.Powered }

// Switchable is a state with a powered flag.
type Switchable interface {
	State
	IsPowered() bool
	withPowered(bool) State
}

// Linkage is the connection list and base capacity of a machine.
type Linkage struct {
	Links        []Link `json:"links"`
	CapacityBase int    `json:"capacity_base"`
}

func (l Linkage) linkage() Linkage { return l }

// Connector is a connection-bearing state.
type Connector interface {
	Switchable
	linkage() Linkage
	withLinkage(Linkage) Connector
}

// LinkageOf returns the connection list of s, if it has one.
func LinkageOf(s State) (Linkage, bool) {
	c, ok := s.(Connector)
	if !ok {
		return Linkage{}, false
	}
	return c.linkage(), true
}

type (
	CoreState struct {
		Power
	}
	ResourceState struct {
		Kind economy.ResourceKind `json:"kind"`
	}
	ToolState struct {
		Kind ToolKind `json:"kind"`
	}
	PortalState struct {
		Power
		RegionID string `json:"region_id"`
	}
	TrashState struct{}

	DowsingState struct {
		Power
		Linkage
	}
	QuarryState struct {
		Power
		Linkage
	}
	EmpowererState struct {
		Power
		Linkage
	}
	BoosterState struct {
		Power
		Linkage
	}
	UpgraderState struct {
		Power
		Linkage
	}
	AutomatorState struct {
		Power
		Linkage
	}
	InvestmentsState struct {
		Power
		Linkage
		Spent decimal.Decimal `json:"spent"`
	}
)

func (CoreState) Tag() TypeTag        { return TypeCore }
func (ResourceState) Tag() TypeTag    { return TypeResource }
func (ToolState) Tag() TypeTag        { return TypeTool }
func (PortalState) Tag() TypeTag      { return TypePortal }
func (TrashState) Tag() TypeTag       { return TypeTrash }
func (DowsingState) Tag() TypeTag     { return TypeDowsing }
func (QuarryState) Tag() TypeTag      { return TypeQuarry }
func (EmpowererState) Tag() TypeTag   { return TypeEmpowerer }
func (BoosterState) Tag() TypeTag     { return TypeBooster }
func (UpgraderState) Tag() TypeTag    { return TypeUpgrader }
func (AutomatorState) Tag() TypeTag   { return TypeAutomator }
func (InvestmentsState) Tag() TypeTag { return TypeInvestments }

func (CoreState) sealed()        {}
func (ResourceState) sealed()    {}
func (ToolState) sealed()        {}
func (PortalState) sealed()      {}
func (TrashState) sealed()       {}
func (DowsingState) sealed()     {}
func (QuarryState) sealed()      {}
func (EmpowererState) sealed()   {}
func (BoosterState) sealed()     {}
func (UpgraderState) sealed()    {}
func (AutomatorState) sealed()   {}
func (InvestmentsState) sealed() {}

// Value receivers: every edit returns a fresh state, never mutates in place.

func (s CoreState) withPowered(p bool) State        { s.Powered = p; return s }
func (s PortalState) withPowered(p bool) State      { s.Powered = p; return s }
func (s DowsingState) withPowered(p bool) State     { s.Powered = p; return s }
func (s QuarryState) withPowered(p bool) State      { s.Powered = p; return s }
func (s EmpowererState) withPowered(p bool) State   { s.Powered = p; return s }
func (s BoosterState) withPowered(p bool) State     { s.Powered = p; return s }
func (s UpgraderState) withPowered(p bool) State    { s.Powered = p; return s }
func (s AutomatorState) withPowered(p bool) State   { s.Powered = p; return s }
func (s InvestmentsState) withPowered(p bool) State { s.Powered = p; return s }

func (s DowsingState) withLinkage(l Linkage) Connector     { s.Linkage = l; return s }
func (s QuarryState) withLinkage(l Linkage) Connector      { s.Linkage = l; return s }
func (s EmpowererState) withLinkage(l Linkage) Connector   { s.Linkage = l; return s }
func (s BoosterState) withLinkage(l Linkage) Connector     { s.Linkage = l; return s }
func (s UpgraderState) withLinkage(l Linkage) Connector    { s.Linkage = l; return s }
func (s AutomatorState) withLinkage(l Linkage) Connector   { s.Linkage = l; return s }
func (s InvestmentsState) withLinkage(l Linkage) Connector { s.Linkage = l; return s }

// NewConnector returns an empty, powered machine state of the given tag.
func NewConnector(tag TypeTag, capacityBase int) (Connector, error) {
	l := Linkage{CapacityBase: capacityBase}
	on := Power{Powered: true}
	switch tag {
	case TypeDowsing:
		return DowsingState{Power: on, Linkage: l}, nil
	case TypeQuarry:
		return QuarryState{Power: on, Linkage: l}, nil
	case TypeEmpowerer:
		return EmpowererState{Power: on, Linkage: l}, nil
	case TypeBooster:
		return BoosterState{Power: on, Linkage: l}, nil
	case TypeUpgrader:
		return UpgraderState{Power: on, Linkage: l}, nil
	case TypeAutomator:
		return AutomatorState{Power: on, Linkage: l}, nil
	case TypeInvestments:
		return InvestmentsState{Power: on, Linkage: l}, nil
	}
	return nil, fmt.Errorf("%s: %w", tag, ErrNotConnector)
}

// IsConnector reports whether tag is a connection-bearing machine.
func IsConnector(tag TypeTag) bool {
	return tag >= TypeDowsing && tag < typeCount
}
