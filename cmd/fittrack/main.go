package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/myrjola/fittrack/internal/envstruct"
	"github.com/myrjola/fittrack/internal/errors"
	"github.com/myrjola/fittrack/internal/logging"
	"github.com/myrjola/fittrack/internal/workout"
	"github.com/spf13/cobra"
)

type config struct {
	OpenAIAPIKey     string        `env:"OPENAI_API_KEY"               envDefault:""`
	OpenAIBaseURL    string        `env:"FITTRACK_OPENAI_BASE_URL"     envDefault:""`
	OpenAIModel      string        `env:"FITTRACK_OPENAI_MODEL"        envDefault:"gpt-4o-mini"`
	AITimeout        time.Duration `env:"FITTRACK_AI_TIMEOUT"          envDefault:"8s"`
	AICallsPerMinute int           `env:"FITTRACK_AI_CALLS_PER_MINUTE" envDefault:"30"`
}

type generateOptions struct {
	muscles    []string
	equipment  []string
	difficulty string
	duration   int
	format     string
}

// newRootCmd builds the command tree. Logs go to stderr so that stdout only carries the requested output.
func newRootCmd(lookupEnv func(string) (string, bool), stderr io.Writer) *cobra.Command {
	root := &cobra.Command{ //nolint:exhaustruct // cobra defaults.
		Use:           "fittrack",
		Short:         "Generate workouts from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newGenerateCmd(lookupEnv, stderr), newCatalogCmd())
	return root
}

func newGenerateCmd(lookupEnv func(string) (string, bool), stderr io.Writer) *cobra.Command {
	var opts generateOptions
	cmd := &cobra.Command{ //nolint:exhaustruct // cobra defaults.
		Use:   "generate",
		Short: "Generate a workout for the given muscles and equipment",
		Example: "  fittrack generate --muscle CHEST --muscle TRICEPS --equipment Bodyweight --duration 30\n" +
			"  fittrack generate --muscle GLUTES,HAMSTRINGS --equipment Dumbbells --format json",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGenerate(cmd.Context(), lookupEnv, logging.NewLogger(stderr, slog.LevelWarn),
				cmd.OutOrStdout(), opts)
		},
	}
	flags := cmd.Flags()
	flags.StringSliceVarP(&opts.muscles, "muscle", "m", nil, "target muscle group, repeatable")
	flags.StringSliceVarP(&opts.equipment, "equipment", "e", []string{string(workout.EquipmentBodyweight)},
		"available equipment, repeatable")
	flags.StringVarP(&opts.difficulty, "difficulty", "d", string(workout.DifficultyIntermediate),
		"beginner, intermediate or advanced")
	flags.IntVarP(&opts.duration, "duration", "t", 30, "workout length in minutes") //nolint:mnd // minutes
	flags.StringVarP(&opts.format, "format", "f", "markdown", "output format, markdown or json")
	_ = cmd.MarkFlagRequired("muscle")
	return cmd
}

func runGenerate(
	ctx context.Context,
	lookupEnv func(string) (string, bool),
	logger *slog.Logger,
	out io.Writer,
	opts generateOptions,
) error {
	if opts.format != "markdown" && opts.format != "json" {
		return fmt.Errorf("unknown format %q", opts.format)
	}

	var cfg config
	if err := envstruct.Populate(&cfg, lookupEnv); err != nil {
		return errors.Wrap(err, "populate config")
	}
	generator, err := workout.NewGenerator(logger, workout.AIConfig{
		APIKey:         cfg.OpenAIAPIKey,
		BaseURL:        cfg.OpenAIBaseURL,
		Model:          cfg.OpenAIModel,
		Timeout:        cfg.AITimeout,
		CallsPerMinute: cfg.AICallsPerMinute,
	}, nil)
	if err != nil {
		return errors.Wrap(err, "new generator")
	}

	req := workout.Request{
		Muscles:         make([]workout.MuscleGroup, 0, len(opts.muscles)),
		Equipment:       make([]workout.Equipment, 0, len(opts.equipment)),
		Difficulty:      workout.Difficulty(strings.ToLower(opts.difficulty)),
		DurationMinutes: opts.duration,
	}
	for _, m := range opts.muscles {
		req.Muscles = append(req.Muscles, workout.MuscleGroup(strings.ToUpper(m)))
	}
	for _, e := range opts.equipment {
		req.Equipment = append(req.Equipment, workout.Equipment(e))
	}

	w, err := generator.Generate(ctx, req)
	if err != nil {
		return fmt.Errorf("generate workout: %w", err)
	}

	if opts.format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err = enc.Encode(w); err != nil {
			return fmt.Errorf("encode workout: %w", err)
		}
		return nil
	}
	if _, err = io.WriteString(out, workout.CardMarkdown(w)); err != nil {
		return fmt.Errorf("write card: %w", err)
	}
	return nil
}

func newCatalogCmd() *cobra.Command {
	var muscle string
	cmd := &cobra.Command{ //nolint:exhaustruct // cobra defaults.
		Use:   "catalog",
		Short: "List the built-in exercises",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var (
				exercises []workout.ExerciseDefinition
				err       error
			)
			if muscle == "" {
				exercises, err = workout.Catalog()
			} else {
				var m workout.MuscleGroup
				if m, err = workout.ParseMuscleGroup(strings.ToUpper(muscle)); err != nil {
					return err
				}
				exercises, err = workout.CatalogFor(m)
			}
			if err != nil {
				return fmt.Errorf("load catalog: %w", err)
			}
			return printCatalog(cmd.OutOrStdout(), exercises)
		},
	}
	cmd.Flags().StringVarP(&muscle, "muscle", "m", "", "only list exercises targeting this muscle group")
	return cmd
}

func printCatalog(out io.Writer, exercises []workout.ExerciseDefinition) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0) //nolint:mnd // two spaces between columns.
	fmt.Fprintln(tw, "ID\tNAME\tDIFFICULTY\tMUSCLES\tEQUIPMENT")
	for _, e := range exercises {
		muscles := make([]string, len(e.Muscles))
		for i, m := range e.Muscles {
			muscles[i] = string(m)
		}
		equipment := make([]string, len(e.Equipment))
		for i, eq := range e.Equipment {
			equipment[i] = string(eq)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			e.ID, e.Name, e.Difficulty, strings.Join(muscles, ","), strings.Join(equipment, ","))
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("flush catalog: %w", err)
	}
	return nil
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	if err := newRootCmd(os.LookupEnv, os.Stderr).ExecuteContext(ctx); err != nil {
		logging.NewLogger(os.Stderr, slog.LevelError).LogAttrs(ctx, slog.LevelError, "fittrack failed",
			errors.SlogError(err))
		cancel()
		os.Exit(1) //nolint:gocritic // cancel is called above.
	}
}
