package board

// Spec describes a connection-bearing machine type: which node types it can
// be connected to, and its base capacity.
type Spec struct {
	Label        string
	Accepts      func(remote TypeTag) bool
	CapacityBase int
}

// Registry maps machine types to their specs.
type Registry map[TypeTag]Spec

func accepts(tags ...TypeTag) func(TypeTag) bool {
	return func(remote TypeTag) bool {
		for _, t := range tags {
			if t == remote {
				return true
			}
		}
		return false
	}
}

// DefaultRegistry returns the stock machine table.
func DefaultRegistry() Registry {
	return Registry{
		TypeDowsing:     {Label: "Dowsing Rod", Accepts: accepts(TypeResource), CapacityBase: 1},
		TypeQuarry:      {Label: "Quarry", Accepts: accepts(TypeTool), CapacityBase: 2},
		TypeEmpowerer:   {Label: "Empowerer", Accepts: accepts(TypePortal), CapacityBase: 1},
		TypeBooster:     {Label: "Booster", Accepts: accepts(TypeResource), CapacityBase: 2},
		TypeUpgrader:    {Label: "Upgrader", Accepts: accepts(TypeTool), CapacityBase: 1},
		TypeAutomator:   {Label: "Automator", Accepts: accepts(TypeResource, TypeTool), CapacityBase: 3},
		TypeInvestments: {Label: "Investments", Accepts: accepts(TypePortal), CapacityBase: 1},
	}
}

// WithCapacities returns a copy of r with base capacities overridden.
func (r Registry) WithCapacities(bases map[TypeTag]int) Registry {
	out := make(Registry, len(r))
	for tag, spec := range r {
		if base, ok := bases[tag]; ok {
			spec.CapacityBase = base
		}
		out[tag] = spec
	}
	return out
}

// Accepts reports whether a machine of type local can connect to remote.
func (r Registry) Accepts(local, remote TypeTag) bool {
	spec, ok := r[local]
	if !ok || spec.Accepts == nil {
		return false
	}
	return spec.Accepts(remote)
}

// NewMachine returns a fresh, empty, powered state for a machine type.
func (r Registry) NewMachine(tag TypeTag) (Connector, error) {
	spec, ok := r[tag]
	if !ok {
		return nil, ErrNotConnector
	}
	return NewConnector(tag, spec.CapacityBase)
}
