package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/dd0wney/cluso-waternet/pkg/areaquery"
	"github.com/dd0wney/cluso-waternet/pkg/config"
	"github.com/dd0wney/cluso-waternet/pkg/hydraulic"
	"github.com/dd0wney/cluso-waternet/pkg/logging"
	"github.com/dd0wney/cluso-waternet/pkg/metrics"
	"github.com/dd0wney/cluso-waternet/pkg/netfile"
)

type CLI struct {
	cfg     config.Config
	model   *hydraulic.HydraulicModel
	runner  *areaquery.Runner
	metrics *metrics.Registry
	logger  logging.Logger
	scanner *bufio.Scanner
}

func main() {
	configPath := flag.String("config", "", "Configuration file (YAML)")
	networkPath := flag.String("network", "", "Network document to load")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Printf("❌ Invalid configuration: %v\n", err)
		os.Exit(1)
	}
	logger := logging.NewJSONLogger(os.Stderr, cfg.Log.ParsedLevel())
	logging.SetDefaultLogger(logger)

	model := hydraulic.InitializeHydraulicModel(cfg.ModelConfig())
	if *networkPath != "" {
		fmt.Printf("📂 Loading network from %s...\n", *networkPath)
		timer := logging.StartTimer(logger, "network loaded", logging.String("path", *networkPath))
		model, err = netfile.Load(*networkPath)
		if err != nil {
			timer.EndError(err)
			fmt.Printf("❌ Failed to load network: %v\n", err)
			os.Exit(1)
		}
		timer.EndInfo(logging.Count(model.Assets.Len()))
	}

	reg := metrics.NewRegistry()
	background, err := areaquery.NewExecutor(cfg.Query.Executor, cfg.Query.Workers, reg, logger.Named("executor"))
	if err != nil {
		fmt.Printf("❌ Failed to start area query executor: %v\n", err)
		os.Exit(1)
	}
	runner := areaquery.NewRunner(
		areaquery.WithBackground(background),
		areaquery.WithLogger(logger.Named("areaquery")),
		areaquery.WithMetrics(reg),
	)
	defer runner.Close()

	cli := &CLI{
		cfg:     cfg,
		model:   model,
		runner:  runner,
		metrics: reg,
		logger:  logger,
		scanner: bufio.NewScanner(os.Stdin),
	}
	cli.refreshMetrics()
	cli.showStats()

	fmt.Println("Type 'help' for available commands, 'exit' to quit")
	fmt.Println()
	cli.run()
}

func (cli *CLI) run() {
	for {
		fmt.Print("waternet> ")

		if !cli.scanner.Scan() {
			break
		}

		input := strings.TrimSpace(cli.scanner.Text())
		if input == "" {
			continue
		}

		if input == "exit" || input == "quit" {
			fmt.Println("👋 Goodbye!")
			break
		}

		cli.executeCommand(input)
		fmt.Println()
	}
}

func (cli *CLI) refreshMetrics() {
	byType := map[string]int{}
	for _, a := range cli.model.Assets.All() {
		byType[string(a.Type())]++
	}
	cli.metrics.UpdateModelMetrics(byType, cli.model.CustomerPoints.Len())
	cli.metrics.UpdateSystemMetrics()
}
