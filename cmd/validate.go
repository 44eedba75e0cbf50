package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lexgraph/chainbench/internal/dataset"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the dataset and report coverage",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("validate"); err != nil {
			return err
		}

		bundle, err := dataset.Load(cfg.Dataset.Dir)
		if err != nil {
			return eris.Wrap(err, "load dataset")
		}
		if err := bundle.Validate(); err != nil {
			return eris.Wrap(err, "validate dataset")
		}

		builder := dataset.NewBuilder(bundle)
		coverage := builder.Coverage()

		zap.L().Info("dataset valid",
			zap.String("dir", cfg.Dataset.Dir),
			zap.Int("instances", len(builder.Instances())),
			zap.Int("known_cites", len(builder.KnownCites())),
			zap.Int("fake_cites", len(builder.FakeCites())))

		fmt.Println(coverage.String())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
