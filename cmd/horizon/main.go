package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/copyleftdev/HORIZON/internal/optimization"
	"github.com/copyleftdev/HORIZON/internal/optimization/energy"
	"github.com/copyleftdev/HORIZON/internal/optimization/solver"
)

var (
	scenarioFile string
	alpha        float64
	beta         float64
	gamma        float64
	horizon      float64
	steps        int
	maxIter      int
	plot         bool
	verbose      bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "horizon",
		Short: "finite-horizon dispatch optimization lab",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a dispatch scenario",
		RunE:  runDispatch,
	}
	runCmd.Flags().StringVar(&scenarioFile, "scenario", "", "scenario file path (yaml); built-in 3-node network when omitted")
	runCmd.Flags().Float64Var(&alpha, "alpha", 0, "efficiency weight override")
	runCmd.Flags().Float64Var(&beta, "beta", 0, "adaptability weight override")
	runCmd.Flags().Float64Var(&gamma, "gamma", 0, "collective weight override")
	runCmd.Flags().Float64Var(&horizon, "horizon", 0, "time horizon override")
	runCmd.Flags().IntVar(&steps, "steps", 0, "discretization steps override")
	runCmd.Flags().IntVar(&maxIter, "max-iter", 0, "solver iteration cap override")
	runCmd.Flags().BoolVar(&plot, "plot", true, "plot trajectories")
	runCmd.Flags().BoolVar(&verbose, "verbose", false, "log solver progress")

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "print the effective scenario",
		RunE:  showScenario,
	}
	showCmd.Flags().StringVar(&scenarioFile, "scenario", "", "scenario file path (yaml)")

	rootCmd.AddCommand(runCmd, showCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadScenario() (*energy.Scenario, error) {
	if scenarioFile == "" {
		return energy.DefaultScenario(), nil
	}
	return energy.LoadScenario(scenarioFile)
}

func runDispatch(cmd *cobra.Command, args []string) error {
	scenario, err := loadScenario()
	if err != nil {
		return err
	}
	applyOverrides(scenario)

	model, err := scenario.Model()
	if err != nil {
		return err
	}

	logger := zap.NewNop()
	if verbose {
		logger, err = zap.NewDevelopment()
		if err != nil {
			return err
		}
	}

	driver := optimization.NewDriver(model, scenario.RunConfig(), solver.NewAugmented(), logger)
	cfg := driver.Config()

	fmt.Printf("scenario: %s (%d nodes, %d steps over horizon %.1f)\n",
		scenario.Name, len(scenario.Generators), cfg.Steps, cfg.TimeHorizon)

	result, err := driver.Optimize(context.Background(), scenario.Start())
	if err != nil {
		return err
	}

	printSummary(result, cfg)

	if plot {
		plotTrajectory(result.Trajectory, len(scenario.Generators))
	}
	if !result.Success {
		return fmt.Errorf("dispatch did not converge: %s", result.Message)
	}
	return nil
}

func applyOverrides(s *energy.Scenario) {
	if alpha > 0 || beta > 0 || gamma > 0 {
		s.Alpha, s.Beta, s.Gamma = alpha, beta, gamma
	}
	if horizon > 0 {
		s.TimeHorizon = horizon
	}
	if steps > 0 {
		s.Steps = steps
	}
	if maxIter > 0 {
		s.MaxIterations = maxIter
	}
}

func printSummary(result *optimization.Result, cfg optimization.Config) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "success\t%v\n", result.Success)
	fmt.Fprintf(w, "final cost\t%.4f\n", result.FinalCost)
	fmt.Fprintf(w, "iterations\t%d\n", result.Iterations)
	fmt.Fprintf(w, "trajectory\t%dx%d\n", len(result.Trajectory), stateDim(result))
	fmt.Fprintf(w, "dt\t%.4f\n", cfg.Dt())
	if result.Message != "" {
		fmt.Fprintf(w, "message\t%s\n", result.Message)
	}
	w.Flush()
}

func stateDim(result *optimization.Result) int {
	if len(result.Trajectory) == 0 {
		return 0
	}
	return len(result.Trajectory[0])
}

// plotTrajectory renders per-node generation levels over time.
func plotTrajectory(trajectory [][]float64, nodes int) {
	if len(trajectory) < 2 {
		return
	}
	for i := 0; i < nodes; i++ {
		series := make([]float64, len(trajectory))
		for k, row := range trajectory {
			series[k] = row[i]
		}
		graph := asciigraph.Plot(series,
			asciigraph.Height(10),
			asciigraph.Width(72),
			asciigraph.Caption(fmt.Sprintf("generator %d dispatch", i+1)),
		)
		fmt.Println()
		fmt.Println(graph)
	}
}

func showScenario(cmd *cobra.Command, args []string) error {
	scenario, err := loadScenario()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "name\t%s\n", scenario.Name)
	fmt.Fprintf(w, "nodes\t%d\n", len(scenario.Generators))
	fmt.Fprintf(w, "horizon\t%.1f\n", scenario.TimeHorizon)
	fmt.Fprintf(w, "steps\t%d\n", scenario.Steps)
	for i, g := range scenario.Generators {
		fmt.Fprintf(w, "generator %d\ta=%.3f b=%.2f cap=%.1f\n", i+1, g.Quadratic, g.Linear, g.Cap)
	}
	return w.Flush()
}
