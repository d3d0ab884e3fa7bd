package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/ripixel/fitplan-server/pkg/bootstrap"
	"github.com/ripixel/fitplan-server/pkg/pipeline"
)

type options struct {
	envFile string
	dbPath  string
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "plan-cli",
		Short:         "Generate, propagate and inspect training programs",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// A missing .env is normal outside development.
			_ = godotenv.Load(opts.envFile)
			if os.Getenv("STORE_BACKEND") == "" {
				os.Setenv("STORE_BACKEND", bootstrap.BackendSQLite)
			}
			if opts.dbPath != "" {
				os.Setenv("SQLITE_PATH", opts.dbPath)
			}
			return nil
		},
	}
	root.PersistentFlags().StringVar(&opts.envFile, "env", ".env", "Environment file to load")
	root.PersistentFlags().StringVar(&opts.dbPath, "db", "", "SQLite database path (overrides SQLITE_PATH)")

	root.AddCommand(
		newGenerateCmd(),
		newPropagateCmd(),
		newAdvanceCmd(),
		newWeekCmd(),
		newScoreCmd(),
		newEstimateCmd(),
		newExportCmd(),
	)
	return root
}

// withPipeline opens the configured store for the duration of fn.
func withPipeline(cmd *cobra.Command, fn func(svc *bootstrap.Service, p *pipeline.Pipeline) error) error {
	svc, err := bootstrap.NewService(cmd.Context(), "plan-cli")
	if err != nil {
		return err
	}
	defer svc.Close()
	return fn(svc, pipeline.FromService(svc))
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func readJSONFile(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}
