package operations

import (
	"fmt"

	"github.com/dd0wney/cluso-waternet/pkg/hydraulic"
)

// ReverseLinkInput names the link to flip
type ReverseLinkInput struct {
	LinkID hydraulic.AssetID `validate:"required"`
}

// ReverseLink swaps a link's connections and reverses its polyline
func ReverseLink(m *hydraulic.HydraulicModel, in ReverseLinkInput) (hydraulic.Diff, error) {
	if err := validateInput(OpReverseLink, &in); err != nil {
		return hydraulic.Diff{}, err
	}
	link := m.Assets.GetLink(in.LinkID)
	if link == nil {
		return hydraulic.Diff{}, hydraulic.NewError(OpReverseLink).Asset(in.LinkID).
			Cause(fmt.Errorf("%w: link with id %d not found", hydraulic.ErrAssetNotFound, in.LinkID)).Err()
	}
	cp := copyLink(link)
	cp.Reverse()
	return hydraulic.Diff{
		Note:      fmt.Sprintf("Reverse %s", link.Type()),
		PutAssets: []hydraulic.Asset{cp},
	}, nil
}
