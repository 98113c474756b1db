package highlight

import "github.com/specialistvlad/nbflow/internal/protocol"

// Classification is the outcome of one analysis round.
type Classification struct {
	Waiting []string
	Ready   []string
	// WaiterLinks maps a cell to the cells that wait on it.
	WaiterLinks map[string][]string
	// ReadyMakerLinks maps a cell to the cells its execution would make ready.
	ReadyMakerLinks map[string][]string
}

// FromMessage extracts the classification carried by a
// compute_exec_schedule response.
func FromMessage(msg *protocol.Inbound) Classification {
	return Classification{
		Waiting:         msg.WaitingCells,
		Ready:           msg.ReadyCells,
		WaiterLinks:     msg.WaiterLinks,
		ReadyMakerLinks: msg.ReadyMakerLinks,
	}
}

func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
