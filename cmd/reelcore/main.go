package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/kikiluvv/reelcore/internal/config"
	"github.com/kikiluvv/reelcore/internal/logging"
	"github.com/kikiluvv/reelcore/internal/mediatime"
	"github.com/kikiluvv/reelcore/internal/pipeline"
	"github.com/kikiluvv/reelcore/internal/project"
	"github.com/kikiluvv/reelcore/pkg/util"
)

var (
	cfgFile  string
	envFile  string
	verbose  bool
	logLevel string
)

func main() {
	ctx := context.Background()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "reelcore",
	Short: "reelcore - timeline composition engine",
	Long:  "Builds track layouts, video composition programs and audio mixes from declarative edit projects, and renders them.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := logging.Init(verbose, logLevel); err != nil {
			return err
		}

		// Environment overrides may come from a dotenv file
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", envFile, err)
		}

		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		if level := configuredLevel(cfg); level != "" {
			if err := logging.Init(false, level); err != nil {
				return err
			}
		}

		ctx := config.WithConfig(cmd.Context(), cfg)
		cmd.SetContext(ctx)

		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./reelcore.yaml)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file with REELCORE_* overrides")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (trace, debug, info, warn, error)")

	framesCmd.Flags().Float64SliceVar(&frameTimes, "at", nil, "instant in seconds to render (repeatable)")
	framesCmd.Flags().StringVarP(&framesDir, "out", "o", "", "output directory (default: config output.frames_dir)")

	exportCmd.Flags().StringVar(&exportFrames, "frames-dir", "", "keep rendered frames in this directory")

	configCmd.AddCommand(configShowCmd)

	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(framesCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(configCmd)
}

// configuredLevel returns the config's log level when no flag chose one.
func configuredLevel(cfg *config.Config) string {
	if verbose || logLevel != "" {
		return ""
	}
	return cfg.Log.Level
}

func newPlan(cmd *cobra.Command, path string) (*pipeline.Pipeline, *pipeline.Plan, error) {
	cfg := config.FromContext(cmd.Context())

	pipe, err := pipeline.New(logging.NewLogger(), nil, cfg)
	if err != nil {
		return nil, nil, err
	}

	proj, err := project.Load(path)
	if err != nil {
		return nil, nil, err
	}

	plan, err := pipe.Plan(cmd.Context(), proj)
	if err != nil {
		return nil, nil, err
	}
	return pipe, plan, nil
}

var planCmd = &cobra.Command{
	Use:   "plan [project file]",
	Short: "Print the track layout, composition slices and audio mix of a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, plan, err := newPlan(cmd, args[0])
		if err != nil {
			return err
		}
		printPlan(cmd.OutOrStdout(), plan)
		return nil
	},
}

var (
	frameTimes []float64
	framesDir  string
)

var framesCmd = &cobra.Command{
	Use:   "frames [project file]",
	Short: "Render stills at the given instants",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(frameTimes) == 0 {
			return fmt.Errorf("at least one --at instant is required")
		}
		pipe, plan, err := newPlan(cmd, args[0])
		if err != nil {
			return err
		}

		dir := framesDir
		if dir == "" {
			dir = config.FromContext(cmd.Context()).Output.FramesDir
		}

		instants := make([]mediatime.Time, len(frameTimes))
		for i, s := range frameTimes {
			instants[i] = mediatime.FromSeconds(s, mediatime.DefaultScale)
		}

		frames, err := pipe.RenderFrames(cmd.Context(), plan, instants, dir)
		if err != nil {
			return err
		}
		for _, f := range frames {
			fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", timestamp(f.At), f.Path)
		}
		return nil
	},
}

var exportFrames string

var exportCmd = &cobra.Command{
	Use:   "export [project file] [output video]",
	Short: "Render every frame, mix audio and encode a video",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		pipe, plan, err := newPlan(cmd, args[0])
		if err != nil {
			return err
		}

		out, err := pipe.Export(cmd.Context(), plan, pipeline.ExportOptions{
			OutputPath: args[1],
			FramesDir:  exportFrames,
			KeepFrames: exportFrames != "",
		})
		if err != nil {
			return err
		}

		logger := logging.WithComponent("cli")
		logger.Info().Str("output", out).Msg("export complete")
		return nil
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Config management commands",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := yaml.Marshal(config.FromContext(cmd.Context()))
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

func timestamp(t mediatime.Time) string {
	return util.FormatDuration(t.Duration())
}

func printPlan(w io.Writer, plan *pipeline.Plan) {
	fmt.Fprintf(w, "project %s: %s, %dx%d\n",
		plan.Project.Name,
		timestamp(plan.Program.Duration()),
		plan.Program.RenderSize.X, plan.Program.RenderSize.Y)

	fmt.Fprintln(w, "\ntracks:")
	for _, t := range plan.Layout.Tracks() {
		fmt.Fprintf(w, "  %5d %-5s", t.ID, t.Kind)
		for _, s := range t.Segments {
			fmt.Fprintf(w, "  [%s %s) %s",
				timestamp(s.TimelineRange.Start), timestamp(s.TimelineRange.End()), s.Media.Name())
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, "\nslices:")
	for _, s := range plan.Program.Slices {
		fmt.Fprintf(w, "  [%s %s)", timestamp(s.Range.Start), timestamp(s.Range.End()))
		for _, l := range s.Layers {
			marker := ""
			if s.IsMain(l.TrackID) {
				marker = "*"
			}
			if l.Transition != nil && len(s.MainTrackIDs) == 2 {
				marker += "~" + l.Transition.Name
			}
			fmt.Fprintf(w, " %d%s", l.TrackID, marker)
		}
		fmt.Fprintln(w)
	}

	if len(plan.Mix.Parameters) > 0 {
		fmt.Fprintln(w, "\naudio mix:")
		for _, p := range plan.Mix.Parameters {
			fmt.Fprintf(w, "  %5d ramps=%d nodes=%d\n", p.TrackID, len(p.Ramps), len(p.Nodes))
		}
	}
}
