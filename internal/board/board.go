package board

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/talgya/planeforge/internal/economy"
)

var (
	ErrNodeNotFound = errors.New("node not found")
	ErrNotConnector = errors.New("node does not take connections")
	ErrNotAccepted  = errors.New("connection not accepted by this machine")
	ErrNotTrash     = errors.New("target is not a trash node")
	ErrUndeletable  = errors.New("node cannot be deleted")
	ErrNotSwitch    = errors.New("node has no power switch")
	ErrDuplicateID  = errors.New("node id already on board")
)

// NodeID uniquely identifies a node. IDs ascend and are never reused.
type NodeID uint64

// Node is one placed entity.
type Node struct {
	ID       NodeID
	Position Position
	State    State
}

// Tag returns the node's type.
func (n *Node) Tag() TypeTag {
	return n.State.Tag()
}

// MarshalJSON flattens the node for observers.
func (n *Node) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID       NodeID   `json:"id"`
		Tag      string   `json:"tag"`
		Position Position `json:"position"`
		State    State    `json:"state"`
	}{n.ID, n.Tag().String(), n.Position, n.State})
}

// UnmarshalJSON reverses MarshalJSON, dispatching the state on its tag.
func (n *Node) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID       NodeID          `json:"id"`
		Tag      string          `json:"tag"`
		Position Position        `json:"position"`
		State    json.RawMessage `json:"state"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	tag, ok := TypeTagFromString(raw.Tag)
	if !ok {
		return fmt.Errorf("node %d: unknown tag %q", raw.ID, raw.Tag)
	}
	s, err := UnmarshalState(tag, raw.State)
	if err != nil {
		return fmt.Errorf("node %d: %w", raw.ID, err)
	}
	*n = Node{ID: raw.ID, Position: raw.Position, State: s}
	return nil
}

// LinkOf returns the identity a node presents to machines connecting to it.
func LinkOf(n *Node) (Link, bool) {
	switch s := n.State.(type) {
	case ResourceState:
		return ResourceLink(s.Kind), true
	case ToolState:
		return ToolLink(s.Kind), true
	case PortalState:
		return RegionLink(s.RegionID), true
	}
	return Link{}, false
}

// Board is the ordered node collection.
type Board struct {
	nodes    []*Node
	index    map[NodeID]*Node
	nextID   NodeID
	selected NodeID // 0 = nothing selected

	registry Registry
	placer   *Placer
}

// New creates an empty board.
func New(reg Registry, placer *Placer) *Board {
	return &Board{
		index:    make(map[NodeID]*Node),
		nextID:   1,
		registry: reg,
		placer:   placer,
	}
}

// Registry returns the machine table the board was built with.
func (b *Board) Registry() Registry {
	return b.registry
}

// Len is the number of nodes.
func (b *Board) Len() int {
	return len(b.nodes)
}

// Nodes returns the nodes in insertion order. The slice is a copy.
func (b *Board) Nodes() []*Node {
	out := make([]*Node, len(b.nodes))
	copy(out, b.nodes)
	return out
}

// Get looks up a node.
func (b *Board) Get(id NodeID) (*Node, bool) {
	n, ok := b.index[id]
	return n, ok
}

// NextID is the id the next Add will assign.
func (b *Board) NextID() NodeID {
	return b.nextID
}

// SetNextID raises the id counter (used when restoring from a save).
func (b *Board) SetNextID(id NodeID) {
	if id > b.nextID {
		b.nextID = id
	}
}

func (b *Board) positions() []Position {
	out := make([]Position, len(b.nodes))
	for i, n := range b.nodes {
		out[i] = n.Position
	}
	return out
}

// Add places a new node at the free spot nearest to near.
func (b *Board) Add(s State, near Position) *Node {
	n := &Node{
		ID:       b.nextID,
		Position: b.placer.Place(near, b.positions()),
		State:    s,
	}
	b.nextID++
	b.nodes = append(b.nodes, n)
	b.index[n.ID] = n
	return n
}

// Insert puts a node back at its saved id and position.
func (b *Board) Insert(n *Node) error {
	if _, ok := b.index[n.ID]; ok {
		return fmt.Errorf("insert %d: %w", n.ID, ErrDuplicateID)
	}
	b.nodes = append(b.nodes, n)
	b.index[n.ID] = n
	b.SetNextID(n.ID + 1)
	return nil
}

// Remove deletes a node and purges its identity from every machine's
// connection list, unless another node still presents the same identity.
func (b *Board) Remove(id NodeID) (*Node, error) {
	n, ok := b.index[id]
	if !ok {
		return nil, fmt.Errorf("remove %d: %w", id, ErrNodeNotFound)
	}

	for i, cur := range b.nodes {
		if cur.ID == id {
			b.nodes = append(b.nodes[:i:i], b.nodes[i+1:]...)
			break
		}
	}
	delete(b.index, id)
	if b.selected == id {
		b.selected = 0
	}

	if link, ok := LinkOf(n); ok && !b.presents(link) {
		b.purge(link)
	}
	return n, nil
}

func (b *Board) presents(link Link) bool {
	for _, n := range b.nodes {
		if l, ok := LinkOf(n); ok && l == link {
			return true
		}
	}
	return false
}

func (b *Board) purge(link Link) {
	for _, n := range b.nodes {
		c, ok := n.State.(Connector)
		if !ok {
			continue
		}
		l := c.linkage()
		if out, removed := Without(l.Links, link); removed {
			l.Links = out
			n.State = c.withLinkage(l)
		}
	}
}

// Discard deletes the node that was dropped onto a trash node.
func (b *Board) Discard(id, trashID NodeID) (*Node, error) {
	trash, ok := b.index[trashID]
	if !ok {
		return nil, fmt.Errorf("discard onto %d: %w", trashID, ErrNodeNotFound)
	}
	if trash.Tag() != TypeTrash {
		return nil, fmt.Errorf("discard onto %s %d: %w", trash.Tag(), trashID, ErrNotTrash)
	}
	n, ok := b.index[id]
	if !ok {
		return nil, fmt.Errorf("discard %d: %w", id, ErrNodeNotFound)
	}
	switch n.Tag() {
	case TypeCore, TypeTrash, TypeResource:
		return nil, fmt.Errorf("discard %s %d: %w", n.Tag(), id, ErrUndeletable)
	}
	return b.Remove(id)
}

// SetPowered sets the powered flag of a switchable node.
func (b *Board) SetPowered(id NodeID, on bool) error {
	n, ok := b.index[id]
	if !ok {
		return fmt.Errorf("power %d: %w", id, ErrNodeNotFound)
	}
	s, ok := n.State.(Switchable)
	if !ok {
		return fmt.Errorf("power %s %d: %w", n.Tag(), id, ErrNotSwitch)
	}
	n.State = s.withPowered(on)
	return nil
}

// TogglePowered flips the powered flag and returns the new value.
func (b *Board) TogglePowered(id NodeID) (bool, error) {
	n, ok := b.index[id]
	if !ok {
		return false, fmt.Errorf("power %d: %w", id, ErrNodeNotFound)
	}
	s, ok := n.State.(Switchable)
	if !ok {
		return false, fmt.Errorf("power %s %d: %w", n.Tag(), id, ErrNotSwitch)
	}
	on := !s.IsPowered()
	n.State = s.withPowered(on)
	return on, nil
}

// Select makes id the user-selected node.
func (b *Board) Select(id NodeID) error {
	if _, ok := b.index[id]; !ok {
		return fmt.Errorf("select %d: %w", id, ErrNodeNotFound)
	}
	b.selected = id
	return nil
}

// ClearSelection deselects.
func (b *Board) ClearSelection() {
	b.selected = 0
}

// Selected returns the selected node id, if any.
func (b *Board) Selected() (NodeID, bool) {
	return b.selected, b.selected != 0
}

// Active reports whether a node's effects apply: it is powered or selected.
func (b *Board) Active(id NodeID) bool {
	if id != 0 && id == b.selected {
		return true
	}
	n, ok := b.index[id]
	if !ok {
		return false
	}
	s, ok := n.State.(Switchable)
	return ok && s.IsPowered()
}

// Connect toggles the connection from machine id to the node target at the
// given capacity bonus. Adding beyond capacity is a silent reject.
func (b *Board) Connect(id, target NodeID, bonus int) (Outcome, error) {
	n, ok := b.index[id]
	if !ok {
		return 0, fmt.Errorf("connect %d: %w", id, ErrNodeNotFound)
	}
	c, ok := n.State.(Connector)
	if !ok {
		return 0, fmt.Errorf("connect from %s %d: %w", n.Tag(), id, ErrNotConnector)
	}
	remote, ok := b.index[target]
	if !ok {
		return 0, fmt.Errorf("connect to %d: %w", target, ErrNodeNotFound)
	}
	link, ok := LinkOf(remote)
	if !ok || !b.registry.Accepts(n.Tag(), remote.Tag()) {
		return 0, fmt.Errorf("connect %s to %s: %w", n.Tag(), remote.Tag(), ErrNotAccepted)
	}

	l := c.linkage()
	out, outcome := Toggle(l.Links, link, EffectiveCapacity(l.CapacityBase, bonus))
	if outcome != OutcomeRejected {
		l.Links = out
		n.State = c.withLinkage(l)
	}
	return outcome, nil
}

// EnforceAll truncates every machine to its effective capacity under bonus
// and returns the ids that lost connections.
func (b *Board) EnforceAll(bonus int) []NodeID {
	var trimmed []NodeID
	for _, n := range b.nodes {
		c, ok := n.State.(Connector)
		if !ok {
			continue
		}
		l := c.linkage()
		out := Enforce(l.Links, EffectiveCapacity(l.CapacityBase, bonus))
		if len(out) != len(l.Links) {
			l.Links = out
			n.State = c.withLinkage(l)
			trimmed = append(trimmed, n.ID)
		}
	}
	return trimmed
}

// FindResource returns the node for a resource kind.
func (b *Board) FindResource(k economy.ResourceKind) (*Node, bool) {
	for _, n := range b.nodes {
		if s, ok := n.State.(ResourceState); ok && s.Kind == k {
			return n, true
		}
	}
	return nil, false
}

// FindPortal returns the portal node for a region.
func (b *Board) FindPortal(regionID string) (*Node, bool) {
	for _, n := range b.nodes {
		if s, ok := n.State.(PortalState); ok && s.RegionID == regionID {
			return n, true
		}
	}
	return nil, false
}

// Core returns the start node.
func (b *Board) Core() (*Node, bool) {
	for _, n := range b.nodes {
		if n.Tag() == TypeCore {
			return n, true
		}
	}
	return nil, false
}

// Replace swaps a node's state wholesale.
func (b *Board) Replace(id NodeID, s State) error {
	n, ok := b.index[id]
	if !ok {
		return fmt.Errorf("replace %d: %w", id, ErrNodeNotFound)
	}
	n.State = s
	return nil
}
