package board

import (
	"encoding/json"
	"fmt"
)

// MarshalState encodes a state's payload. The tag travels separately.
func MarshalState(s State) ([]byte, error) {
	return json.Marshal(s)
}

// UnmarshalState decodes a payload written by MarshalState for tag.
func UnmarshalState(tag TypeTag, data []byte) (State, error) {
	var (
		s   State
		err error
	)
	switch tag {
	case TypeCore:
		s, err = decode[CoreState](data)
	case TypeResource:
		s, err = decode[ResourceState](data)
	case TypeTool:
		s, err = decode[ToolState](data)
	case TypePortal:
		s, err = decode[PortalState](data)
	case TypeTrash:
		s, err = decode[TrashState](data)
	case TypeDowsing:
		s, err = decode[DowsingState](data)
	case TypeQuarry:
		s, err = decode[QuarryState](data)
	case TypeEmpowerer:
		s, err = decode[EmpowererState](data)
	case TypeBooster:
		s, err = decode[BoosterState](data)
	case TypeUpgrader:
		s, err = decode[UpgraderState](data)
	case TypeAutomator:
		s, err = decode[AutomatorState](data)
	case TypeInvestments:
		s, err = decode[InvestmentsState](data)
	default:
		return nil, fmt.Errorf("unknown node type %d", uint8(tag))
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s state: %w", tag, err)
	}
	return s, nil
}

func decode[T State](data []byte) (State, error) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}
