package operations

import (
	"github.com/dd0wney/cluso-waternet/pkg/hydraulic"
	"github.com/dd0wney/cluso-waternet/pkg/validation"
)

// ChangePropertyInput sets one named property on a batch of assets
type ChangePropertyInput struct {
	AssetIDs []hydraulic.AssetID
	Property string `validate:"required"`
	Value    any
}

// ChangeProperty copies each asset that declares Property and sets Value on
// the copy. Assets without the property, or that reject the value, are
// skipped. isActive is never changed here; see ActivateAssets.
func ChangeProperty(m *hydraulic.HydraulicModel, in ChangePropertyInput) (hydraulic.Diff, error) {
	if err := validateInput(OpChangeProperty, &in); err != nil {
		return hydraulic.Diff{}, err
	}
	if in.Property == "isActive" {
		return hydraulic.Diff{Note: "Change isActive"}, nil
	}
	if err := validation.ValidatePropertyName(in.Property); err != nil {
		return hydraulic.Diff{}, invalidInput(OpChangeProperty, "%v", err)
	}

	put := make([]hydraulic.Asset, 0, len(in.AssetIDs))
	for _, id := range in.AssetIDs {
		a, ok := m.Assets.Get(id)
		if !ok {
			return hydraulic.Diff{}, hydraulic.AssetNotFoundError(OpChangeProperty, id)
		}
		if !a.HasProperty(in.Property) {
			continue
		}
		cp := a.Copy()
		if !cp.SetProperty(in.Property, in.Value) {
			continue
		}
		put = append(put, cp)
	}
	return hydraulic.Diff{Note: "Change " + in.Property, PutAssets: put}, nil
}
