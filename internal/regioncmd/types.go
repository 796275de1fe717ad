// Package regioncmd defines the command record data model and the
// persistent Command Log (component B of the region control plane).
package regioncmd

import "time"

// Kind is the stable, wire-visible command kind enum.
type Kind int

const (
	KindNone Kind = 0
	KindCreate Kind = 1
	KindDelete Kind = 2
	KindSplit Kind = 3
	KindMerge Kind = 4
	KindChangePeer Kind = 5
	KindTransferLeader Kind = 6
	KindSnapshot Kind = 7
	KindPurge Kind = 8
	KindSnapshotVectorIndex Kind = 9
	KindUpdateDefinition Kind = 10
	KindSwitchSplit Kind = 11
	KindHoldVectorIndex Kind = 12
	KindStop Kind = 30
	KindDestroyExecutor Kind = 31
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "NONE"
	case KindCreate:
		return "CREATE"
	case KindDelete:
		return "DELETE"
	case KindSplit:
		return "SPLIT"
	case KindMerge:
		return "MERGE"
	case KindChangePeer:
		return "CHANGE_PEER"
	case KindTransferLeader:
		return "TRANSFER_LEADER"
	case KindSnapshot:
		return "SNAPSHOT"
	case KindPurge:
		return "PURGE"
	case KindSnapshotVectorIndex:
		return "SNAPSHOT_VECTOR_INDEX"
	case KindUpdateDefinition:
		return "UPDATE_DEFINITION"
	case KindSwitchSplit:
		return "SWITCH_SPLIT"
	case KindHoldVectorIndex:
		return "HOLD_VECTOR_INDEX"
	case KindStop:
		return "STOP"
	case KindDestroyExecutor:
		return "DESTROY_EXECUTOR"
	default:
		return "UNKNOWN"
	}
}

// RegionAgnostic reports whether a command kind runs on the shared executor
// rather than a per-region one.
func (k Kind) RegionAgnostic() bool {
	return k == KindPurge || k == KindDestroyExecutor
}

// Status is the terminal-status enum.
type Status int

const (
	StatusNone Status = 0
	StatusDone Status = 1
	StatusFail Status = 2
)

func (s Status) String() string {
	switch s {
	case StatusDone:
		return "DONE"
	case StatusFail:
		return "FAIL"
	default:
		return "NONE"
	}
}

// Payload is the tagged-variant command payload, keyed by Kind. Exactly one
// field is populated, matching the kind of the enclosing Command, expressed
// as a plain Go struct of optional pointers rather than a wire union.
type Payload struct {
	Create             *CreatePayload             `json:"create,omitempty"`
	Delete             *DeletePayload             `json:"delete,omitempty"`
	Split              *SplitPayload              `json:"split,omitempty"`
	ChangePeer         *ChangePeerPayload         `json:"change_peer,omitempty"`
	TransferLeader     *TransferLeaderPayload     `json:"transfer_leader,omitempty"`
	SnapshotVectorIndex *SnapshotVectorIndexPayload `json:"snapshot_vector_index,omitempty"`
	UpdateDefinition   *UpdateDefinitionPayload   `json:"update_definition,omitempty"`
	SwitchSplit        *SwitchSplitPayload        `json:"switch_split,omitempty"`
	HoldVectorIndex    *HoldVectorIndexPayload    `json:"hold_vector_index,omitempty"`
}

// CreatePayload carries the full region definition and, if this region is a
// split-off child, the parent's id (0 means "no parent").
type CreatePayload struct {
	RegionID   uint64        `json:"region_id"`
	Type       int           `json:"type"`
	Definition DefinitionDTO `json:"definition"`
	ParentID   uint64        `json:"parent_id"`
}

// DefinitionDTO mirrors region.Definition without importing the region
// package, keeping the wire-visible payload independent of the internal
// record shape (same rationale as PeerDTO below).
type DefinitionDTO struct {
	Name       string            `json:"name"`
	Replicas   int               `json:"replicas"`
	StartKey   []byte            `json:"start_key"`
	EndKey     []byte            `json:"end_key"`
	Peers      []PeerDTO         `json:"peers"`
	SchemaID   uint64            `json:"schema_id"`
	TableID    uint64            `json:"table_id"`
	IndexID    uint64            `json:"index_id"`
	PartID     uint64            `json:"part_id"`
	IndexParam IndexParameterDTO `json:"index_param,omitempty"`
}

// IndexParameterDTO mirrors region.IndexParameter.
type IndexParameterDTO struct {
	Dimension      int    `json:"dimension"`
	DistanceMetric string `json:"distance_metric"`
	MaxElements    int    `json:"max_elements"`
}

type DeletePayload struct{}

// SplitPayload names the parent, the pre-created child, and the watershed
// key partitioning the parent's range between the two.
type SplitPayload struct {
	SplitFromRegionID uint64 `json:"split_from_region_id"`
	SplitToRegionID   uint64 `json:"split_to_region_id"`
	SplitWatershedKey []byte `json:"split_watershed_key"`
}

type ChangePeerPayload struct {
	NewDefinitionPeers []PeerDTO `json:"new_definition_peers"`
}

// PeerDTO mirrors region.Peer without importing the region package, keeping
// the wire-visible payload independent of the internal record shape.
type PeerDTO struct {
	StoreID uint64 `json:"store_id"`
	Host    string `json:"host"`
	Port    int    `json:"port"`
	Role    int    `json:"role"`
}

type TransferLeaderPayload struct {
	TargetPeer PeerDTO `json:"target_peer"`
}

type SnapshotVectorIndexPayload struct{}

type UpdateDefinitionPayload struct {
	NewMaxElements int `json:"new_max_elements"`
}

type SwitchSplitPayload struct {
	DisableSplit bool `json:"disable_split"`
}

type HoldVectorIndexPayload struct {
	IsHold bool `json:"is_hold"`
}

// Command is the full persistent record for one coordinator command.
type Command struct {
	ID               uint64    `json:"id"`
	RegionID         uint64    `json:"region_id"`
	Kind             Kind      `json:"kind"`
	CreateTimestamp  time.Time `json:"create_timestamp"`
	Payload          Payload   `json:"payload"`
	IsNotify         bool      `json:"is_notify"`
	Status           Status    `json:"status"`
}
