package region

import (
	"encoding/json"
	"fmt"
)

// SplitBatch is the wire payload a split proposes through the engine's
// AsyncWrite. SplitApplier decodes and applies it once the engine reports
// the write committed.
type SplitBatch struct {
	SplitFromRegionID uint64 `json:"split_from_region_id"`
	SplitToRegionID   uint64 `json:"split_to_region_id"`
	SplitWatershedKey []byte `json:"split_watershed_key"`
}

// SplitApplier performs the region-state side effects of a committed split:
// the parent's NORMAL->SPLITTING->NORMAL transition with its range narrowed
// to [start, watershed), the pre-created child's STANDBY->NORMAL transition
// with [watershed, parent's old end), and the parent's epoch.Version bump.
// It is handed to the engine as an Applier, so it runs once per replica
// inside the engine's own apply path rather than only on the proposer.
type SplitApplier struct {
	Store Store
}

// Apply implements engine.Applier structurally, without this package
// importing the engine package.
func (a *SplitApplier) Apply(regionID uint64, batch []byte) error {
	var b SplitBatch
	if err := json.Unmarshal(batch, &b); err != nil {
		return fmt.Errorf("unmarshal split batch for region %d: %w", regionID, err)
	}
	if b.SplitFromRegionID != regionID {
		return fmt.Errorf("split batch names parent %d, applied to region %d", b.SplitFromRegionID, regionID)
	}

	parent, err := a.Store.Get(b.SplitFromRegionID)
	if err != nil {
		return err
	}
	if parent == nil {
		return fmt.Errorf("split parent region %d not found", b.SplitFromRegionID)
	}
	child, err := a.Store.Get(b.SplitToRegionID)
	if err != nil {
		return err
	}
	if child == nil {
		return fmt.Errorf("split child region %d not found", b.SplitToRegionID)
	}

	if string(parent.Definition.EndKey) == string(b.SplitWatershedKey) && child.State == StateNormal {
		// Already applied by a prior delivery of this entry; Apply must be
		// safe to run more than once for the same commit.
		return nil
	}

	oldParentEnd := parent.Definition.EndKey

	if parent.State == StateNormal {
		updated, err := a.Store.UpdateState(parent.ID, StateSplitting)
		if err != nil {
			return err
		}
		parent = updated
	}
	parent.Definition.EndKey = b.SplitWatershedKey
	parent.Epoch.Version++
	parent.ChildIDs = append(parent.ChildIDs, child.ID)
	if err := a.Store.UpdateRegion(parent); err != nil {
		return err
	}
	if _, err := a.Store.UpdateState(parent.ID, StateNormal); err != nil {
		return err
	}

	if child.State == StateStandby {
		child.Definition.StartKey = b.SplitWatershedKey
		child.Definition.EndKey = oldParentEnd
		child.ParentID = parent.ID
		if err := a.Store.UpdateRegion(child); err != nil {
			return err
		}
		if _, err := a.Store.UpdateState(child.ID, StateNormal); err != nil {
			return err
		}
	}
	return nil
}
