package operations

import (
	"fmt"

	"github.com/dd0wney/cluso-waternet/pkg/attachment"
	"github.com/dd0wney/cluso-waternet/pkg/geometry"
	"github.com/dd0wney/cluso-waternet/pkg/hydraulic"
)

// ConnectCustomerPointsInput attaches points to a pipe. SnapPoints[i] is the
// snap point of CustomerPointIDs[i].
type ConnectCustomerPointsInput struct {
	CustomerPointIDs []hydraulic.CustomerPointID `validate:"min=1"`
	PipeID           hydraulic.AssetID           `validate:"required"`
	SnapPoints       []geometry.Position         `validate:"dive,finite"`
}

// ConnectCustomerPoints connects each point to PipeID at its snap point and
// the nearer endpoint junction. A point for which no junction qualifies
// fails the whole batch.
func ConnectCustomerPoints(m *hydraulic.HydraulicModel, in ConnectCustomerPointsInput) (hydraulic.Diff, error) {
	if err := validateInput(OpConnectCustomers, &in); err != nil {
		return hydraulic.Diff{}, err
	}
	if len(in.CustomerPointIDs) != len(in.SnapPoints) {
		return hydraulic.Diff{}, invalidInput(OpConnectCustomers,
			"%d customer points but %d snap points", len(in.CustomerPointIDs), len(in.SnapPoints))
	}
	pipe := m.Assets.GetLink(in.PipeID)
	if pipe == nil {
		return hydraulic.Diff{}, hydraulic.InvalidPipeError(OpConnectCustomers, in.PipeID)
	}
	start, end := m.Assets.LinkNodes(pipe)
	if start == nil || end == nil {
		return hydraulic.Diff{}, hydraulic.NewError(OpConnectCustomers).Pipe(pipe.ID()).
			Cause(fmt.Errorf("%w: pipe endpoint missing", hydraulic.ErrAssetNotFound)).Err()
	}

	out := make([]*hydraulic.CustomerPoint, 0, len(in.CustomerPointIDs))
	for i, id := range in.CustomerPointIDs {
		cp, ok := m.CustomerPoints.Get(id)
		if !ok {
			return hydraulic.Diff{}, customerPointNotFound(OpConnectCustomers, id)
		}
		snap := in.SnapPoints[i]
		junction := attachment.FindJunctionForCustomerPoint(start, end, snap)
		if junction == hydraulic.NoAssetID {
			return hydraulic.Diff{}, hydraulic.NewError(OpConnectCustomers).CustomerPoint(id).
				Cause(hydraulic.ErrJunctionNotFound).Err()
		}
		next := cp.CopyDisconnected()
		next.Connect(hydraulic.Connection{PipeID: pipe.ID(), SnapPoint: snap, JunctionID: junction})
		out = append(out, next)
	}
	return hydraulic.Diff{Note: "Connect customers", PutCustomerPoints: out}, nil
}

// DisconnectCustomerPointsInput names the points to detach
type DisconnectCustomerPointsInput struct {
	CustomerPointIDs []hydraulic.CustomerPointID `validate:"min=1"`
}

// DisconnectCustomerPoints returns disconnected copies of the points,
// including those already disconnected.
func DisconnectCustomerPoints(m *hydraulic.HydraulicModel, in DisconnectCustomerPointsInput) (hydraulic.Diff, error) {
	if err := validateInput(OpDisconnect, &in); err != nil {
		return hydraulic.Diff{}, err
	}
	points := make([]*hydraulic.CustomerPoint, 0, len(in.CustomerPointIDs))
	for _, id := range in.CustomerPointIDs {
		cp, ok := m.CustomerPoints.Get(id)
		if !ok {
			return hydraulic.Diff{}, customerPointNotFound(OpDisconnect, id)
		}
		points = append(points, cp)
	}
	return hydraulic.Diff{Note: "Disconnect customers", PutCustomerPoints: attachment.Disconnect(points)}, nil
}

func customerPointNotFound(op string, id hydraulic.CustomerPointID) error {
	return hydraulic.NewError(op).CustomerPoint(id).
		Cause(fmt.Errorf("%w: customer point with id %d not found", hydraulic.ErrCustomerPointNotFound, id)).Err()
}
