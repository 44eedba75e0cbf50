package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lexgraph/chainbench/internal/backend"
	"github.com/lexgraph/chainbench/internal/chain"
	"github.com/lexgraph/chainbench/internal/dataset"
	"github.com/lexgraph/chainbench/internal/model"
	"github.com/lexgraph/chainbench/internal/report"
	"github.com/lexgraph/chainbench/internal/scoring"
	anthropicpkg "github.com/lexgraph/chainbench/pkg/anthropic"
)

var (
	runSteps     []string
	runInstances int
	runWorkers   int
	runBackend   string
	runLabel     string
	runOutput    string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the evaluation chain over the dataset",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		applyRunFlags(cmd)
		if err := cfg.Validate("run"); err != nil {
			return err
		}

		// Dataset
		bundle, err := dataset.Load(cfg.Dataset.Dir)
		if err != nil {
			return eris.Wrap(err, "load dataset")
		}
		if err := bundle.Validate(); err != nil {
			return eris.Wrap(err, "validate dataset")
		}
		builder := dataset.NewBuilder(bundle)

		instances := builder.Instances()
		if cfg.Run.Instances > 0 && len(instances) > cfg.Run.Instances {
			instances = instances[:cfg.Run.Instances]
		}
		if len(instances) == 0 {
			return eris.New("no evaluable citation pairs in dataset")
		}

		// Scoring
		rubric := scoring.DefaultRubric()
		if cfg.Rubric.Path != "" {
			rubric, err = scoring.LoadRubric(cfg.Rubric.Path)
			if err != nil {
				return eris.Wrap(err, "load rubric")
			}
		}
		verifier := scoring.NewVerifier(builder.FakeCites(), builder.KnownCites())

		steps, err := chain.BuildSteps(cfg.Run.Steps, rubric, verifier)
		if err != nil {
			return err
		}

		be, err := initBackend()
		if err != nil {
			return err
		}

		zap.L().Info("starting evaluation",
			zap.String("model", be.ModelID()),
			zap.Strings("steps", cfg.Run.Steps),
			zap.Int("instances", len(instances)),
			zap.Int("workers", cfg.Run.Workers))

		exec := chain.NewExecutor(be, steps)

		var results []*model.RunResult
		err = exec.RunAll(ctx, instances, cfg.Run.Workers, func(r *model.RunResult) error {
			results = append(results, r)
			return nil
		})
		if err != nil {
			return eris.Wrap(err, "run chain")
		}

		count, err := report.WriteFile(cfg.Output.Path, results)
		if err != nil {
			return err
		}
		zap.L().Info("results written",
			zap.String("path", cfg.Output.Path),
			zap.Int("runs", count))

		summary := report.Summarize(results)

		if err := persistRun(ctx, be.ModelID(), results, summary); err != nil {
			return err
		}

		fmt.Println(summary.String())
		return nil
	},
}

// applyRunFlags copies explicitly-set flags over the loaded config.
func applyRunFlags(cmd *cobra.Command) {
	if cmd.Flags().Changed("steps") {
		cfg.Run.Steps = runSteps
	}
	if cmd.Flags().Changed("instances") {
		cfg.Run.Instances = runInstances
	}
	if cmd.Flags().Changed("workers") {
		cfg.Run.Workers = runWorkers
	}
	if cmd.Flags().Changed("backend") {
		cfg.Run.Backend = runBackend
	}
	if cmd.Flags().Changed("label") {
		cfg.Run.Label = runLabel
	}
	if cmd.Flags().Changed("output") {
		cfg.Output.Path = runOutput
	}
}

// initBackend builds the completion backend named in the config.
func initBackend() (backend.Backend, error) {
	switch cfg.Run.Backend {
	case "anthropic":
		client := anthropicpkg.NewClient(cfg.Anthropic.Key)
		return backend.NewAnthropic(client, cfg.Anthropic.Model,
			backend.WithMaxTokens(int64(cfg.Anthropic.MaxTokens)),
			backend.WithRequestsPerMinute(float64(cfg.Anthropic.RequestsPerMinute)),
		), nil
	case "mock":
		return backend.NewMock(), nil
	default:
		return nil, eris.Errorf("unsupported backend: %s", cfg.Run.Backend)
	}
}

// persistRun records the batch and its flattened step outcomes in the store.
func persistRun(ctx context.Context, modelID string, results []*model.RunResult, summary *report.Summary) error {
	st, err := initStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	voided := 0
	for _, r := range results {
		if r.Voided {
			voided++
		}
	}

	summaryJSON, err := json.Marshal(summary)
	if err != nil {
		return eris.Wrap(err, "marshal summary")
	}

	run := &model.EvalRun{
		ID:         uuid.NewString(),
		Label:      cfg.Run.Label,
		Model:      modelID,
		Steps:      cfg.Run.Steps,
		Instances:  len(results),
		Voided:     voided,
		OutputPath: cfg.Output.Path,
		Summary:    summaryJSON,
	}
	if err := st.SaveRun(ctx, run); err != nil {
		return eris.Wrap(err, "save run")
	}
	if err := st.SaveSteps(ctx, run.ID, results); err != nil {
		return eris.Wrap(err, "save steps")
	}

	zap.L().Info("run recorded", zap.String("run_id", run.ID))
	return nil
}

func init() {
	runCmd.Flags().StringSliceVar(&runSteps, "steps", nil, "step IDs to execute (default from config)")
	runCmd.Flags().IntVar(&runInstances, "instances", 0, "max citation pairs to evaluate (0 = config default)")
	runCmd.Flags().IntVar(&runWorkers, "workers", 0, "concurrent instances (0 = config default)")
	runCmd.Flags().StringVar(&runBackend, "backend", "", "completion backend: anthropic or mock")
	runCmd.Flags().StringVar(&runLabel, "label", "", "label for this evaluation run")
	runCmd.Flags().StringVar(&runOutput, "output", "", "output JSONL path")
	rootCmd.AddCommand(runCmd)
}
