// Command flowbench analyzes delivery-pipeline scenarios and recommends the
// adoption level with the best constraint-aware economics.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"

	"github.com/alexshd/flowbench"
)

var (
	flagTeamSize       int
	flagTestAutomation float64
	flagFrequency      string
	flagCostPerSeat    float64
	flagFeatureValue   float64
	flagSalary         float64
	flagScenarioName   string
	flagWorkers        int
	flagVerbose        bool
)

func main() {
	root := &cobra.Command{
		Use:           "flowbench",
		Short:         "Delivery pipeline throughput and constraint analysis",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelInfo
			if flagVerbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(tint.NewHandler(os.Stderr, &tint.Options{
				Level:      level,
				TimeFormat: time.Kitchen,
			})))
		},
	}
	root.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "debug logging")

	optimize := &cobra.Command{
		Use:   "optimize",
		Short: "Run the Five Focusing Steps over one pipeline",
		RunE:  runOptimize,
	}
	optimize.Flags().IntVar(&flagTeamSize, "team-size", 10, "number of developers")
	optimize.Flags().Float64Var(&flagTestAutomation, "test-automation", 0.5, "automation coverage 0-1")
	optimize.Flags().StringVar(&flagFrequency, "deploy-frequency", "weekly", "daily|weekly|biweekly|monthly")
	optimize.Flags().Float64Var(&flagCostPerSeat, "cost-per-seat", 30, "monthly tool cost per seat, $")
	optimize.Flags().Float64Var(&flagFeatureValue, "feature-value", 10000, "value per feature, $")
	optimize.Flags().Float64Var(&flagSalary, "salary", 120000, "average annual salary, $")

	scenarios := &cobra.Command{
		Use:   "scenarios <dir>",
		Short: "Evaluate every scenario file in a directory",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenarios,
	}
	scenarios.Flags().StringVar(&flagScenarioName, "name", "", "run only the named scenario")
	scenarios.Flags().IntVar(&flagWorkers, "workers", 4, "concurrent evaluations")

	root.AddCommand(optimize, scenarios)

	if err := root.Execute(); err != nil {
		slog.Error("flowbench failed", "err", err)
		os.Exit(1)
	}
}

func runOptimize(cmd *cobra.Command, args []string) error {
	pipeline, err := flowbench.StandardPipeline(flagTeamSize, flagTestAutomation,
		flowbench.DeploymentFrequency(flagFrequency))
	if err != nil {
		return err
	}

	team := flowbench.TeamComposition{Mid: flagTeamSize}
	optimizer := flowbench.NewConstraintOptimizer(pipeline)

	result, err := optimizer.OptimizeForConstraint(team, flagCostPerSeat, flagFeatureValue, flagSalary)
	if err != nil {
		return err
	}

	printOptimization(cmd, result)
	return nil
}

func runScenarios(cmd *cobra.Command, args []string) error {
	all, err := flowbench.LoadScenarioDir(args[0])
	if err != nil {
		return err
	}
	if flagScenarioName != "" {
		s, err := flowbench.FindScenario(all, flagScenarioName)
		if err != nil {
			return err
		}
		all = []flowbench.Scenario{s}
	}
	if len(all) == 0 {
		return fmt.Errorf("no scenarios found in %s", args[0])
	}

	slog.Info("evaluating scenarios", "count", len(all), "workers", flagWorkers)

	results, err := flowbench.RunBatch(context.Background(), all,
		flowbench.BatchOptions{Workers: flagWorkers})
	if err != nil {
		return err
	}

	for _, r := range results {
		if r.Err != nil {
			slog.Error("scenario failed", "scenario", r.Scenario.Name, "err", r.Err)
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "\n=== %s (%s) ===\n", r.Scenario.Name, r.Elapsed.Round(time.Millisecond))
		printOptimization(cmd, r.Result)
	}
	return nil
}

func printOptimization(cmd *cobra.Command, r flowbench.OptimizationResult) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Constraint:          %s (%.0f%% utilized)\n",
		r.Analysis.ConstraintStage, r.Analysis.ConstraintUtilization*100)
	fmt.Fprintf(out, "Optimal adoption:    %.0f%%\n", r.OptimalAdoptionPercent)
	fmt.Fprintf(out, "Throughput:          %.2f → %.2f items/day\n",
		r.BaselineThroughput, r.FinalThroughput)
	fmt.Fprintf(out, "Exploitation gain:   %.1f%% (free, %d days)\n",
		r.Exploitation.ImprovementPercent, r.Exploitation.TimelineDays)
	for _, rule := range r.SubordinationRules {
		fmt.Fprintf(out, "Subordinate %-12s %s (%s)\n",
			rule.Stage+":", rule.RuleDescription, rule.RuleType)
	}
	fmt.Fprintf(out, "Net value per day:   $%.0f\n", r.NetValuePerDay)
	fmt.Fprintf(out, "ROI:                 %.0f%%\n", r.RealisticROI)
}
