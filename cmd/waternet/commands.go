package main

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	dto "github.com/prometheus/client_model/go"

	"github.com/dd0wney/cluso-waternet/pkg/areaquery"
	"github.com/dd0wney/cluso-waternet/pkg/geometry"
	"github.com/dd0wney/cluso-waternet/pkg/hydraulic"
	"github.com/dd0wney/cluso-waternet/pkg/logging"
	"github.com/dd0wney/cluso-waternet/pkg/netfile"
	"github.com/dd0wney/cluso-waternet/pkg/operations"
)

func (cli *CLI) executeCommand(input string) {
	parts := strings.Fields(input)
	command, args := strings.ToLower(parts[0]), parts[1:]

	var err error
	switch command {
	case "help":
		cli.showHelp()
	case "stats", "status":
		cli.showStats()
	case "list", "ls":
		cli.listAssets(args)
	case "show":
		err = cli.showAsset(args)
	case "area":
		err = cli.areaQuery(args)
	case "move":
		err = cli.move(args)
	case "split":
		err = cli.split(args)
	case "merge":
		err = cli.merge(args)
	case "connect":
		err = cli.connect(args)
	case "disconnect":
		err = cli.disconnect(args)
	case "activate", "deactivate":
		err = cli.toggle(command, args)
	case "reverse":
		err = cli.reverse(args)
	case "replace-node", "replace-link":
		err = cli.replace(command, args)
	case "add-node":
		err = cli.addNode(args)
	case "add-link":
		err = cli.addLink(args)
	case "delete", "rm":
		err = cli.remove(args)
	case "set":
		err = cli.set(args)
	case "pump-curve":
		err = cli.pumpCurve(args)
	case "save":
		err = cli.save(args)
	case "metrics":
		err = cli.showMetrics()
	default:
		fmt.Printf("❌ Unknown command: %s (type 'help' for available commands)\n", command)
	}
	if err != nil {
		fmt.Printf("❌ %v\n", err)
	}
}

func (cli *CLI) showHelp() {
	help := `
📖 Available Commands:

🔍 Inspection:
  stats                              Show network statistics
  list [type]                        List assets, optionally of one type
  show <id>                          Show one asset
  area <x1> <y1> <x2> <y2>           Select assets inside a rectangle
  metrics                            Show collected metrics

🛠️  Editing:
  move <node> <x> <y> [elev] [pipe]  Move a node, optionally onto a pipe
  split <pipe> <x> <y>               Split a pipe with a new junction
  merge <source> <target>            Merge two nodes
  connect <pipe> <cp...>             Connect customer points to a pipe
  disconnect <cp...>                 Disconnect customer points
  activate <id...>                   Activate links and their nodes
  deactivate <id...>                 Deactivate links and orphaned nodes
  reverse <link>                     Reverse a link
  replace-node <node> <type>         Replace a node with another type
  replace-link <link> <type>         Replace a link with another type
  add-node <type> <x> <y> [elev]     Add a node
  add-link <type> <start> <end>      Add a straight link between nodes
  delete <id...>                     Delete assets
  set <property> <value> <id...>     Change a property
  pump-curve <pump> power <kw>
  pump-curve <pump> design-point <flow> <head>
  pump-curve <pump> standard <flow> <head> ...

💾 Other:
  save <path>                        Write the network document
  help                               Show this help
  exit/quit                          Exit the CLI
`
	fmt.Println(help)
}

func (cli *CLI) showStats() {
	byType := map[hydraulic.AssetType]int{}
	for _, a := range cli.model.Assets.All() {
		byType[a.Type()]++
	}
	connected := 0
	for _, cp := range cli.model.CustomerPoints.All() {
		if cp.IsConnected() {
			connected++
		}
	}

	fmt.Println("📊 Network Statistics:")
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	for _, t := range []hydraulic.AssetType{
		hydraulic.TypeJunction, hydraulic.TypeReservoir, hydraulic.TypeTank,
		hydraulic.TypePipe, hydraulic.TypePump, hydraulic.TypeValve,
	} {
		fmt.Printf("  %-16s %d\n", t+":", byType[t])
	}
	fmt.Printf("  %-16s %d (%d connected)\n", "customer points:", cli.model.CustomerPoints.Len(), connected)
	fmt.Printf("  %-16s %s\n", "version:", cli.model.Version)
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━")
}

func (cli *CLI) listAssets(args []string) {
	n := 0
	for _, a := range cli.model.Assets.All() {
		if len(args) > 0 && string(a.Type()) != args[0] {
			continue
		}
		printAsset(a)
		n++
	}
	fmt.Printf("\n%d assets\n", n)
}

func printAsset(a hydraulic.Asset) {
	state := "active"
	if !a.IsActive() {
		state = "inactive"
	}
	switch a := a.(type) {
	case hydraulic.Node:
		fmt.Printf("  %-6d %-10s %-12s %-8s (%g, %g) elev %g\n",
			a.ID(), a.Type(), a.Label(), state, a.Coordinates()[0], a.Coordinates()[1], a.Elevation())
	case hydraulic.Link:
		c := a.Connections()
		fmt.Printf("  %-6d %-10s %-12s %-8s %d -> %d, %.1f long\n",
			a.ID(), a.Type(), a.Label(), state, c[0], c[1], a.Length())
	}
}

func (cli *CLI) showAsset(args []string) error {
	ids, err := parseIDs(args, 1)
	if err != nil {
		return err
	}
	a, ok := cli.model.Assets.Get(ids[0])
	if !ok {
		return fmt.Errorf("asset %d not found", ids[0])
	}
	printAsset(a)
	for _, name := range a.ListProperties() {
		v, _ := a.GetProperty(name)
		fmt.Printf("    %-16s %v\n", name, v)
	}
	return nil
}

func (cli *CLI) areaQuery(args []string) error {
	v, err := parseFloats(args, 4)
	if err != nil {
		return err
	}
	x1, y1, x2, y2 := v[0], v[1], v[2], v[3]
	polygon := []geometry.Position{{x1, y1}, {x2, y1}, {x2, y2}, {x1, y2}, {x1, y1}}

	ctx := context.Background()
	if t := cli.cfg.Query.Timeout; t > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t)
		defer cancel()
	}
	start := time.Now()
	ids, err := cli.runner.Run(ctx, cli.model, polygon, areaquery.Options{
		BufferKind:            cli.cfg.Query.CarrierKind(),
		UseBackgroundExecutor: cli.cfg.Query.Background,
		Compress:              cli.cfg.Query.Compress,
	})
	if areaquery.IsCancelled(err) {
		fmt.Println("⏹️  Query cancelled")
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Printf("✅ %d assets selected in %v\n", len(ids), time.Since(start))
	for _, id := range ids {
		if a, ok := cli.model.Assets.Get(id); ok {
			printAsset(a)
		}
	}
	return nil
}

// apply runs an instrumented operation and moves the CLI to the resulting
// snapshot
func apply[I any](cli *CLI, name string, op operations.Func[I], in I) error {
	timer := logging.StartTimer(cli.logger, "operation applied", logging.Operation(name))
	diff, err := operations.Instrument(cli.metrics, name, op)(cli.model, in)
	if err != nil {
		timer.EndError(err)
		return err
	}
	cli.model = hydraulic.ApplyDiff(cli.model, diff)
	cli.refreshMetrics()
	timer.End(logging.Note(diff.Note), logging.Count(len(diff.PutAssets)+len(diff.DeleteAssets)))
	fmt.Printf("✅ %s: %d put, %d deleted, %d customer points\n",
		diff.Note, len(diff.PutAssets), len(diff.DeleteAssets), len(diff.PutCustomerPoints))
	return nil
}

func (cli *CLI) move(args []string) error {
	if len(args) < 3 {
		return fmt.Errorf("usage: move <node> <x> <y> [elevation] [pipe]")
	}
	ids, err := parseIDs(args[:1], 1)
	if err != nil {
		return err
	}
	xy, err := parseFloats(args[1:3], 2)
	if err != nil {
		return err
	}
	in := operations.MoveNodeInput{
		NodeID:                     ids[0],
		NewCoordinates:             geometry.Position{xy[0], xy[1]},
		ShouldUpdateCustomerPoints: true,
	}
	if node := cli.model.Assets.GetNode(ids[0]); node != nil {
		in.NewElevation = node.Elevation()
	}
	if len(args) > 3 {
		if in.NewElevation, err = strconv.ParseFloat(args[3], 64); err != nil {
			return fmt.Errorf("invalid elevation %q", args[3])
		}
	}
	if len(args) > 4 {
		pipe, err := parseIDs(args[4:5], 1)
		if err != nil {
			return err
		}
		in.PipeIDToSplit = pipe[0]
	}
	return apply(cli, operations.OpMoveNode, operations.MoveNode, in)
}

func (cli *CLI) split(args []string) error {
	if len(args) != 3 {
		return fmt.Errorf("usage: split <pipe> <x> <y>")
	}
	ids, err := parseIDs(args[:1], 1)
	if err != nil {
		return err
	}
	xy, err := parseFloats(args[1:], 2)
	if err != nil {
		return err
	}
	return apply(cli, operations.OpAddNode, operations.AddNode, operations.AddNodeInput{
		NodeType:      hydraulic.TypeJunction,
		Coordinates:   geometry.Position{xy[0], xy[1]},
		PipeIDToSplit: ids[0],
	})
}

func (cli *CLI) merge(args []string) error {
	ids, err := parseIDs(args, 2)
	if err != nil {
		return err
	}
	return apply(cli, operations.OpMergeNodes, operations.MergeNodes, operations.MergeNodesInput{
		SourceNodeID: ids[0], TargetNodeID: ids[1],
	})
}

// connect snaps every point to its nearest position on the pipe
func (cli *CLI) connect(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: connect <pipe> <cp...>")
	}
	ids, err := parseIDs(args, len(args))
	if err != nil {
		return err
	}
	pipe := cli.model.Assets.GetLink(ids[0])
	if pipe == nil {
		return fmt.Errorf("link %d not found", ids[0])
	}
	in := operations.ConnectCustomerPointsInput{PipeID: ids[0], CustomerPointIDs: ids[1:]}
	for _, id := range ids[1:] {
		cp, ok := cli.model.CustomerPoints.Get(id)
		if !ok {
			return fmt.Errorf("customer point %d not found", id)
		}
		in.SnapPoints = append(in.SnapPoints, geometry.FindNearestPointOnLine(pipe.Coordinates(), cp.Coordinates).Point)
	}
	return apply(cli, operations.OpConnectCustomers, operations.ConnectCustomerPoints, in)
}

func (cli *CLI) disconnect(args []string) error {
	ids, err := parseIDs(args, len(args))
	if err != nil {
		return err
	}
	return apply(cli, operations.OpDisconnect, operations.DisconnectCustomerPoints,
		operations.DisconnectCustomerPointsInput{CustomerPointIDs: ids})
}

func (cli *CLI) toggle(command string, args []string) error {
	ids, err := parseIDs(args, len(args))
	if err != nil {
		return err
	}
	if command == "activate" {
		return apply(cli, operations.OpActivate, operations.ActivateAssets, operations.AssetIDsInput{AssetIDs: ids})
	}
	return apply(cli, operations.OpDeactivate, operations.DeactivateAssets, operations.AssetIDsInput{AssetIDs: ids})
}

func (cli *CLI) reverse(args []string) error {
	ids, err := parseIDs(args, 1)
	if err != nil {
		return err
	}
	return apply(cli, operations.OpReverseLink, operations.ReverseLink, operations.ReverseLinkInput{LinkID: ids[0]})
}

func (cli *CLI) replace(command string, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: %s <id> <type>", command)
	}
	ids, err := parseIDs(args[:1], 1)
	if err != nil {
		return err
	}
	typ := hydraulic.AssetType(args[1])
	if command == "replace-node" {
		return apply(cli, operations.OpReplaceNode, operations.ReplaceNode,
			operations.ReplaceNodeInput{OldNodeID: ids[0], NewNodeType: typ})
	}
	return apply(cli, operations.OpReplaceLink, operations.ReplaceLink,
		operations.ReplaceLinkInput{LinkID: ids[0], NewLinkType: typ})
}

func (cli *CLI) addNode(args []string) error {
	if len(args) < 3 {
		return fmt.Errorf("usage: add-node <type> <x> <y> [elevation]")
	}
	v, err := parseFloats(args[1:], len(args)-1)
	if err != nil {
		return err
	}
	in := operations.AddNodeInput{NodeType: hydraulic.AssetType(args[0]), Coordinates: geometry.Position{v[0], v[1]}}
	if len(v) > 2 {
		in.Elevation = v[2]
	}
	return apply(cli, operations.OpAddNode, operations.AddNode, in)
}

func (cli *CLI) addLink(args []string) error {
	if len(args) != 3 {
		return fmt.Errorf("usage: add-link <type> <start> <end>")
	}
	ids, err := parseIDs(args[1:], 2)
	if err != nil {
		return err
	}
	start, end := cli.model.Assets.GetNode(ids[0]), cli.model.Assets.GetNode(ids[1])
	if start == nil || end == nil {
		return fmt.Errorf("both ends must be nodes")
	}
	return apply(cli, operations.OpAddLink, operations.AddLink, operations.AddLinkInput{
		LinkType:    hydraulic.AssetType(args[0]),
		Coordinates: []geometry.Position{start.Coordinates(), end.Coordinates()},
		StartNodeID: ids[0],
		EndNodeID:   ids[1],
	})
}

func (cli *CLI) remove(args []string) error {
	ids, err := parseIDs(args, len(args))
	if err != nil {
		return err
	}
	return apply(cli, operations.OpDeleteAssets, operations.DeleteAssets,
		operations.DeleteAssetsInput{AssetIDs: ids, ShouldUpdateCustomerPoints: true})
}

func (cli *CLI) set(args []string) error {
	if len(args) < 3 {
		return fmt.Errorf("usage: set <property> <value> <id...>")
	}
	ids, err := parseIDs(args[2:], len(args)-2)
	if err != nil {
		return err
	}
	var value any = args[1]
	if f, err := strconv.ParseFloat(args[1], 64); err == nil {
		value = f
	} else if b, err := strconv.ParseBool(args[1]); err == nil {
		value = b
	}
	return apply(cli, operations.OpChangeProperty, operations.ChangeProperty, operations.ChangePropertyInput{
		AssetIDs: ids, Property: args[0], Value: value,
	})
}

func (cli *CLI) pumpCurve(args []string) error {
	if len(args) < 3 {
		return fmt.Errorf("usage: pump-curve <pump> power|design-point|standard <values...>")
	}
	ids, err := parseIDs(args[:1], 1)
	if err != nil {
		return err
	}
	v, err := parseFloats(args[2:], len(args)-2)
	if err != nil {
		return err
	}
	in := operations.ChangePumpCurveInput{PumpID: ids[0], DefinitionType: hydraulic.PumpDefinition(args[1])}
	if in.DefinitionType == hydraulic.PumpPower {
		in.Power = v[0]
	} else {
		if len(v)%2 != 0 {
			return fmt.Errorf("curve points come in flow/head pairs")
		}
		for i := 0; i < len(v); i += 2 {
			in.Points = append(in.Points, hydraulic.CurvePoint{X: v[i], Y: v[i+1]})
		}
	}
	return apply(cli, operations.OpChangePumpCurve, operations.ChangePumpCurve, in)
}

func (cli *CLI) save(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: save <path>")
	}
	f := netfile.FromModel(cli.model, cli.cfg.Units)
	if err := netfile.SaveDocument(args[0], f); err != nil {
		return err
	}
	fmt.Printf("💾 Saved %d assets to %s\n", cli.model.Assets.Len(), args[0])
	return nil
}

func (cli *CLI) showMetrics() error {
	families, err := cli.metrics.GetPrometheusRegistry().Gather()
	if err != nil {
		return err
	}
	sort.Slice(families, func(i, j int) bool { return families[i].GetName() < families[j].GetName() })
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			fmt.Printf("  %-48s %s %s\n", mf.GetName(), labels(m), sample(mf.GetType(), m))
		}
	}
	return nil
}

func labels(m *dto.Metric) string {
	parts := make([]string, 0, len(m.GetLabel()))
	for _, l := range m.GetLabel() {
		parts = append(parts, l.GetName()+"="+l.GetValue())
	}
	return "{" + strings.Join(parts, ",") + "}"
}

func sample(t dto.MetricType, m *dto.Metric) string {
	switch t {
	case dto.MetricType_COUNTER:
		return strconv.FormatFloat(m.GetCounter().GetValue(), 'g', -1, 64)
	case dto.MetricType_GAUGE:
		return strconv.FormatFloat(m.GetGauge().GetValue(), 'g', -1, 64)
	case dto.MetricType_HISTOGRAM:
		h := m.GetHistogram()
		return fmt.Sprintf("count=%d sum=%g", h.GetSampleCount(), h.GetSampleSum())
	default:
		return ""
	}
}

func parseIDs(args []string, n int) ([]hydraulic.AssetID, error) {
	if len(args) != n || n == 0 {
		return nil, fmt.Errorf("expected %d ids, got %d", n, len(args))
	}
	out := make([]hydraulic.AssetID, n)
	for i, a := range args {
		v, err := strconv.ParseUint(a, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid id %q", a)
		}
		out[i] = hydraulic.AssetID(v)
	}
	return out, nil
}

func parseFloats(args []string, n int) ([]float64, error) {
	if len(args) != n || n == 0 {
		return nil, fmt.Errorf("expected %d numbers, got %d", n, len(args))
	}
	out := make([]float64, n)
	for i, a := range args {
		v, err := strconv.ParseFloat(a, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", a)
		}
		out[i] = v
	}
	return out, nil
}
