package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ripixel/fitplan-server/pkg/bootstrap"
	filegen "github.com/ripixel/fitplan-server/pkg/domain/file_generators"
	"github.com/ripixel/fitplan-server/pkg/domain/records"
	"github.com/ripixel/fitplan-server/pkg/pipeline"
	"github.com/ripixel/fitplan-server/pkg/types"
)

func newGenerateCmd() *cobra.Command {
	var profilePath, userID string
	var days int
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate and propagate a program from a profile JSON file",
		RunE: func(cmd *cobra.Command, args []string) error {
			var prof types.UserProfile
			if profilePath != "" {
				if err := readJSONFile(profilePath, &prof); err != nil {
					return err
				}
			}
			if userID != "" {
				prof.UserID = userID
			}
			if days > 0 {
				prof.DaysPerWeek = days
			}
			return withPipeline(cmd, func(_ *bootstrap.Service, p *pipeline.Pipeline) error {
				res, err := p.Generate(cmd.Context(), prof)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), res)
			})
		},
	}
	cmd.Flags().StringVarP(&profilePath, "profile", "p", "", "UserProfile JSON file")
	cmd.Flags().StringVar(&userID, "user", "", "User ID (overrides the profile)")
	cmd.Flags().IntVar(&days, "days", 0, "Training days per week (overrides the profile)")
	return cmd
}

func newPropagateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "propagate <program-id>",
		Short: "Re-materialize a program's calendar from today",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPipeline(cmd, func(_ *bootstrap.Service, p *pipeline.Pipeline) error {
				res, err := p.Propagate(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), res)
			})
		},
	}
}

func newAdvanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "advance",
		Short: "Move every active program to its current week",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPipeline(cmd, func(_ *bootstrap.Service, p *pipeline.Pipeline) error {
				res, err := p.AdvanceWeeks(cmd.Context())
				if res != nil {
					if perr := printJSON(cmd.OutOrStdout(), res); perr != nil {
						return perr
					}
				}
				return err
			})
		},
	}
}

func newWeekCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "week <user-id>",
		Short: "Show the current week and phase of a user's program",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPipeline(cmd, func(_ *bootstrap.Service, p *pipeline.Pipeline) error {
				res, err := p.CurrentWeek(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), res)
			})
		},
	}
}

// readinessInput is the file format accepted by score.
type readinessInput struct {
	Samples []types.BiometricSample `json:"samples"`
	CheckIn *types.CheckIn          `json:"checkIn,omitempty"`
}

func newScoreCmd() *cobra.Command {
	var inputPath string
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score readiness from biometric samples",
		RunE: func(cmd *cobra.Command, args []string) error {
			var in readinessInput
			if inputPath != "" {
				if err := readJSONFile(inputPath, &in); err != nil {
					return err
				}
			}
			p := pipeline.New(nil, nil, nil, nil, pipeline.Config{}, nil)
			return printJSON(cmd.OutOrStdout(), p.ScoreReadiness(in.Samples, in.CheckIn))
		},
	}
	cmd.Flags().StringVarP(&inputPath, "input", "i", "", `JSON file with "samples" and optional "checkIn"`)
	return cmd
}

func newEstimateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "estimate <weight> <reps>",
		Short: "Estimate a one-rep max and its rep-max table",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			weight, err := strconv.ParseFloat(args[0], 64)
			if err != nil || weight <= 0 {
				return fmt.Errorf("weight must be a positive number, got %q", args[0])
			}
			reps, err := strconv.Atoi(args[1])
			if err != nil || reps <= 0 {
				return fmt.Errorf("reps must be a positive integer, got %q", args[1])
			}

			table := records.RepMaxTable(records.EstimateOneRepMax(weight, reps))
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "Reps\tWeight")
			for _, row := range []struct {
				reps   int
				weight int
			}{{1, table.OneRM}, {3, table.ThreeRM}, {5, table.FiveRM}, {8, table.EightRM}, {10, table.TenRM}} {
				fmt.Fprintf(w, "%d\t%d\n", row.reps, row.weight)
			}
			return w.Flush()
		},
	}
}

func newExportCmd() *cobra.Command {
	var outDir string
	var week int
	cmd := &cobra.Command{
		Use:   "export <user-id>",
		Short: "Write the active program as an XLSX workbook plus FIT workouts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPipeline(cmd, func(svc *bootstrap.Service, _ *pipeline.Pipeline) error {
				prog, err := svc.DB.GetActiveProgram(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if err := os.MkdirAll(outDir, 0755); err != nil {
					return err
				}

				book, err := filegen.GenerateProgramWorkbook(prog)
				if err != nil {
					return err
				}
				written := []string{filepath.Join(outDir, "program.xlsx")}
				if err := os.WriteFile(written[0], book, 0644); err != nil {
					return err
				}

				n := week
				if n <= 0 {
					n = prog.CurrentWeek
				}
				for _, w := range prog.Weeks {
					if w.WeekNumber != n {
						continue
					}
					for _, day := range w.TrainingDays {
						data, err := filegen.GenerateWorkoutFit(day, time.Now())
						if err != nil {
							return err
						}
						path := filepath.Join(outDir, fmt.Sprintf("week%d-%s.fit", n, day.DayOfWeek))
						if err := os.WriteFile(path, data, 0644); err != nil {
							return err
						}
						written = append(written, path)
					}
				}
				for _, path := range written {
					fmt.Fprintln(cmd.OutOrStdout(), path)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&outDir, "out", "o", ".", "Output directory")
	cmd.Flags().IntVar(&week, "week", 0, "Week to export as FIT workouts (default: current week)")
	return cmd
}
