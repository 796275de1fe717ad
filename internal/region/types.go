// Package region defines the region record data model and the persistent
// Region Meta Store (component A of the region control plane).
package region

import "time"

// Type distinguishes a plain key-value region from a vector-index region.
type Type int

const (
	TypeStore Type = iota
	TypeIndex
)

func (t Type) String() string {
	if t == TypeIndex {
		return "INDEX"
	}
	return "STORE"
}

// State is a region's lifecycle state. Transitions are validated by the FSM
// in fsm.go.
type State int

const (
	StateNew State = iota
	StateNormal
	StateStandby
	StateSplitting
	StateMerging
	StateDeleting
	StateDeleted
	StateOrphan
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "NEW"
	case StateNormal:
		return "NORMAL"
	case StateStandby:
		return "STANDBY"
	case StateSplitting:
		return "SPLITTING"
	case StateMerging:
		return "MERGING"
	case StateDeleting:
		return "DELETING"
	case StateDeleted:
		return "DELETED"
	case StateOrphan:
		return "ORPHAN"
	default:
		return "UNKNOWN"
	}
}

// PeerRole distinguishes a quorum-contributing replica from a non-voting one.
type PeerRole int

const (
	RoleVoter PeerRole = iota
	RoleLearner
)

func (r PeerRole) String() string {
	if r == RoleLearner {
		return "LEARNER"
	}
	return "VOTER"
}

// Peer is one replica participant of a region's raft group.
type Peer struct {
	StoreID uint64   `json:"store_id"`
	Host    string   `json:"host"`
	Port    int      `json:"port"`
	Role    PeerRole `json:"role"`
}

// Epoch fences stale clients: Version bumps on range change (split/merge),
// ConfVersion bumps on peer change. Comparison is lexicographic.
type Epoch struct {
	Version     uint64 `json:"version"`
	ConfVersion uint64 `json:"conf_version"`
}

// Less reports whether e is strictly behind other, lexicographically on
// (Version, ConfVersion).
func (e Epoch) Less(other Epoch) bool {
	if e.Version != other.Version {
		return e.Version < other.Version
	}
	return e.ConfVersion < other.ConfVersion
}

// IndexParameter carries the vector-index-specific parameters of a region's
// definition. Only meaningful when the owning Region's Type == TypeIndex.
type IndexParameter struct {
	Dimension      int    `json:"dimension"`
	DistanceMetric string `json:"distance_metric"`
	MaxElements    int    `json:"max_elements"`
}

// Definition is the coordinator-assigned shape of a region: everything that
// describes what the region is, as opposed to what state it is currently in.
type Definition struct {
	Name       string         `json:"name"`
	Replicas   int            `json:"replicas"`
	StartKey   []byte         `json:"start_key"`
	EndKey     []byte         `json:"end_key"`
	Peers      []Peer         `json:"peers"`
	SchemaID   uint64         `json:"schema_id"`
	TableID    uint64         `json:"table_id"`
	IndexID    uint64         `json:"index_id"`
	PartID     uint64         `json:"part_id"`
	IndexParam IndexParameter `json:"index_param,omitempty"`
}

// RaftMeta is the raft-specific sibling record for a region, persisted
// separately under the "RM/"+region_id key. It is excluded from Region's own
// JSON encoding (see the "-" tag on Region.RaftMeta below) so the two
// records never collide in the same blob.
type RaftMeta struct {
	Term          uint64 `json:"term"`
	AppliedIndex  uint64 `json:"applied_index"`
	SnapshotLogID uint64 `json:"snapshot_log_id"`
}

// historyCap bounds the retained prior-state history so records stay small.
// See DESIGN.md Open Question decisions.
const historyCap = 16

// Region is the full persistent record for one region, owned exclusively by
// the Region Meta Store: all mutation happens through Store methods so that
// every transition is validated and persisted atomically.
type Region struct {
	ID                     uint64     `json:"id"`
	Type                   Type       `json:"type"`
	Definition             Definition `json:"definition"`
	State                  State      `json:"state"`
	History                []State    `json:"history"`
	Epoch                  Epoch      `json:"epoch"`
	LeaderStoreID          uint64     `json:"leader_store_id"`
	ParentID               uint64     `json:"parent_id"`
	ChildIDs               []uint64   `json:"child_ids"`
	LastSplitTimestamp     time.Time  `json:"last_split_timestamp,omitempty"`
	DisableSplit           bool       `json:"disable_split"`
	TemporaryDisableSplit  bool       `json:"temporary_disable_split"`
	IsHoldVectorIndex      bool       `json:"is_hold_vector_index"`
	RaftMeta               RaftMeta   `json:"-"`
}

// Clone returns a deep-enough copy for callers that must not mutate the
// Store's internal record directly.
func (r *Region) Clone() *Region {
	if r == nil {
		return nil
	}
	c := *r
	c.Definition.StartKey = append([]byte(nil), r.Definition.StartKey...)
	c.Definition.EndKey = append([]byte(nil), r.Definition.EndKey...)
	c.Definition.Peers = append([]Peer(nil), r.Definition.Peers...)
	c.History = append([]State(nil), r.History...)
	c.ChildIDs = append([]uint64(nil), r.ChildIDs...)
	return &c
}

func (r *Region) pushHistory(s State) {
	r.History = append(r.History, s)
	if len(r.History) > historyCap {
		r.History = r.History[len(r.History)-historyCap:]
	}
}

// VoterPeers returns only the peers with Role == RoleVoter.
func (d Definition) VoterPeers() []Peer {
	out := make([]Peer, 0, len(d.Peers))
	for _, p := range d.Peers {
		if p.Role == RoleVoter {
			out = append(out, p)
		}
	}
	return out
}
