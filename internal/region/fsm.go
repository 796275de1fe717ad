package region

import "github.com/zhangjie0303/zj-dingo-store/internal/errkind"

// transitions enumerates every allowed State -> State edge in the region
// FSM. A region never bypasses this table: UpdateState checks it before a
// transition is committed.
var transitions = map[State]map[State]bool{
	StateNew: {
		StateNormal:  true,
		StateStandby: true,
		StateOrphan:  true,
	},
	StateNormal: {
		StateSplitting: true,
		StateMerging:   true,
		StateDeleting:  true,
		StateOrphan:    true,
		StateNormal:    true, // change-peer / transfer-leader / snapshot: no state change
	},
	StateStandby: {
		StateNormal: true,
		StateOrphan: true,
	},
	StateSplitting: {
		StateNormal: true,
		StateOrphan: true,
	},
	StateMerging: {
		StateDeleted: true,
		StateOrphan:  true,
	},
	StateDeleting: {
		StateDeleted: true,
	},
	StateDeleted: {
		// terminal until Purge removes the record entirely.
	},
	StateOrphan: {
		StateOrphan: true, // Stop leaves state retained
	},
}

// ValidateTransition reports an error unless from -> to is an allowed edge.
func ValidateTransition(from, to State) error {
	if from == to && from != StateNormal && from != StateOrphan {
		// idempotent re-application of the same non-steady state is not a
		// transition at all; callers that want a no-op should not call
		// UpdateState in the first place.
		return errkind.New(errkind.RegionState, "region already in state %s", from)
	}
	allowed, ok := transitions[from]
	if !ok || !allowed[to] {
		return errkind.New(errkind.RegionState, "illegal transition %s -> %s", from, to)
	}
	return nil
}
