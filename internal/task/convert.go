package task

import (
	"github.com/zhangjie0303/zj-dingo-store/internal/region"
	"github.com/zhangjie0303/zj-dingo-store/internal/regioncmd"
)

func peerFromDTO(p regioncmd.PeerDTO) region.Peer {
	return region.Peer{StoreID: p.StoreID, Host: p.Host, Port: p.Port, Role: region.PeerRole(p.Role)}
}

func peersFromDTO(ps []regioncmd.PeerDTO) []region.Peer {
	out := make([]region.Peer, 0, len(ps))
	for _, p := range ps {
		out = append(out, peerFromDTO(p))
	}
	return out
}

func definitionFromDTO(d regioncmd.DefinitionDTO) region.Definition {
	return region.Definition{
		Name:     d.Name,
		Replicas: d.Replicas,
		StartKey: d.StartKey,
		EndKey:   d.EndKey,
		Peers:    peersFromDTO(d.Peers),
		SchemaID: d.SchemaID,
		TableID:  d.TableID,
		IndexID:  d.IndexID,
		PartID:   d.PartID,
		IndexParam: region.IndexParameter{
			Dimension:      d.IndexParam.Dimension,
			DistanceMetric: d.IndexParam.DistanceMetric,
			MaxElements:    d.IndexParam.MaxElements,
		},
	}
}
