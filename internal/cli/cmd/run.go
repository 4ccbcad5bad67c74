package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"streambake/internal/config"
	"streambake/internal/model"
	"streambake/internal/pipeline"
	"streambake/internal/ui"
	"streambake/internal/util"
	"streambake/internal/util/deps"
	"streambake/internal/util/format"
	"streambake/internal/util/media"
)

type runMode struct {
	ForceTUI   bool
	DryRunOnly bool
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "run [file]",
		Short:         "Probe, plan, and encode all configured renditions",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.ExactArgs(1),
		PreRunE:       runPreRun,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExecute(cmd, args, runMode{
				ForceTUI:   false,
				DryRunOnly: false,
			})
		},
	}
	// Bind same flags as root for explicit subcommand usage
	bindRunFlags(cmd.Flags())
	return cmd
}

type ctxKey string

const runInputsKey ctxKey = "runInputs"

type runInputs struct {
	Options   model.CLIOptions
	Profiles  []model.EncodingProfile
	Watermark *model.WatermarkSpec
	Overrides ui.ToolOverrides
}

func runPreRun(cmd *cobra.Command, args []string) error {
	in, err := assembleRunInputs(cmd, args)
	if err != nil {
		return &ExitError{Code: ExitCLIError, Err: err}
	}
	ctx := context.WithValue(cmd.Context(), runInputsKey, in)
	cmd.SetContext(ctx)
	return nil
}

func assembleRunInputs(cmd *cobra.Command, args []string) (runInputs, error) {
	// Persistent flags with precedence: flag > env/config > default
	outDir := getPersistentString(cmd, "out-dir", ".")
	publishDir := getPersistentString(cmd, "publish-dir", "")
	verbose := getPersistentBool(cmd, "verbose", false)
	overrides := ui.ToolOverrides{
		FFmpeg:    getPersistentString(cmd, "ffmpeg", ""),
		FFprobe:   getPersistentString(cmd, "ffprobe", ""),
		MediaInfo: getPersistentString(cmd, "mediainfo", ""),
		ExifTool:  getPersistentString(cmd, "exiftool", ""),
	}

	// Run flags
	prefix, _ := cmd.Flags().GetString("prefix")
	suffix, _ := cmd.Flags().GetString("suffix")
	watermark, _ := cmd.Flags().GetString("watermark")
	keyframes, _ := cmd.Flags().GetString("keyframes")
	audioDelay, _ := cmd.Flags().GetFloat64("audio-delay")
	testMode, _ := cmd.Flags().GetBool("test")
	force, _ := cmd.Flags().GetBool("force")
	keepTemp, _ := cmd.Flags().GetBool("keep-temp")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	noUI, _ := cmd.Flags().GetBool("no-ui")

	input := args[0]
	if !util.FileExists(input) {
		return runInputs{}, fmt.Errorf("input file %q does not exist", input)
	}
	if audioDelay < 0 {
		return runInputs{}, fmt.Errorf("invalid --audio-delay: %v (must be >= 0)", audioDelay)
	}
	if keyframes != "" && !util.FileExists(keyframes) {
		return runInputs{}, fmt.Errorf("keyframes file %q does not exist", keyframes)
	}

	// Validate the watermark spec at startup, before any encode begins.
	var wm *model.WatermarkSpec
	if watermark != "" {
		spec, err := media.ParseWatermarkSpec(watermark)
		if err != nil {
			return runInputs{}, err
		}
		wm = &spec
	}

	profiles, err := config.Profiles()
	if err != nil {
		return runInputs{}, err
	}
	if len(pipeline.EnabledProfiles(profiles)) == 0 {
		return runInputs{}, fmt.Errorf("no enabled encoding profiles configured")
	}

	opts := model.CLIOptions{
		Input:      input,
		OutDir:     filepath.Clean(outDir),
		PublishDir: publishDir,
		Prefix:     prefix,
		Suffix:     suffix,
		Watermark:  watermark,
		Keyframes:  keyframes,
		AudioDelay: audioDelay,
		Test:       testMode,
		Force:      force,
		KeepTemp:   keepTemp,
		DryRun:     dryRun,
		Verbose:    verbose,
		NoUI:       noUI,
	}
	return runInputs{
		Options:   opts,
		Profiles:  profiles,
		Watermark: wm,
		Overrides: overrides,
	}, nil
}

func runExecute(cmd *cobra.Command, args []string, mode runMode) error {
	// Grab inputs from context; if not present (root directly called without PreRunE), assemble now.
	var in runInputs
	if v := cmd.Context().Value(runInputsKey); v != nil {
		in = v.(runInputs)
	} else {
		assembled, err := assembleRunInputs(cmd, args)
		if err != nil {
			return &ExitError{Code: ExitCLIError, Err: err}
		}
		in = assembled
	}

	// Dry-run-only mode forces plan output without executing
	if mode.DryRunOnly {
		in.Options.DryRun = true
		in.Options.NoUI = true
	}

	if err := ensureDir(in.Options.OutDir); err != nil {
		return &ExitError{Code: ExitCLIError, Err: fmt.Errorf("failed to create output dir: %v", err)}
	}

	// TUI path (forced or auto if TTY and not disabled)
	useTUI := mode.ForceTUI || (!in.Options.NoUI && isTerminal())
	if useTUI && !mode.DryRunOnly {
		if err := ui.Run(cmd.Context(), in.Overrides, in.Options, in.Profiles, in.Watermark); err != nil {
			return &ExitError{Code: ExitCLIError, Err: err}
		}
		return nil
	}

	// Non-UI path
	tools, derr := deps.Find(in.Overrides.FFmpeg, in.Overrides.FFprobe, in.Overrides.MediaInfo, in.Overrides.ExifTool)
	if derr != nil {
		return &ExitError{Code: ExitMissingDep, Err: derr}
	}

	svc := pipeline.NewService(
		pipeline.WithTools(tools),
		pipeline.WithCLIOptions(in.Options),
		pipeline.WithProfiles(in.Profiles),
		pipeline.WithWatermark(in.Watermark),
	)

	res, err := svc.RunJob(cmd.Context())
	printWarnings(res)
	if err != nil {
		switch {
		case errors.Is(err, pipeline.ErrProbe):
			return &ExitError{Code: ExitProbeError, Err: err}
		case errors.Is(err, pipeline.ErrTranscode):
			return &ExitError{Code: ExitTranscodeError, Err: err}
		}
		return &ExitError{Code: ExitCLIError, Err: err}
	}

	printResult(res, in.Options)
	return nil
}

func isTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

func printWarnings(res pipeline.Result) {
	for _, w := range res.Warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w.Message)
	}
	for _, rr := range res.Renditions {
		for _, w := range rr.Warnings {
			fmt.Fprintf(os.Stderr, "warning: %s\n", w.Message)
		}
	}
}

func printResult(res pipeline.Result, opts model.CLIOptions) {
	if opts.DryRun {
		printPlan(res, opts)
		return
	}
	for _, rr := range res.Renditions {
		switch {
		case rr.Skipped:
			fmt.Printf("Skipped: %s (exists)\n", rr.Plan.OutputPath)
		case rr.Output != nil:
			fmt.Printf("Saved: %s (%s)\n", rr.Output.OutputPath, format.HumanizeBytes(rr.Output.Bytes))
		}
	}
	if res.Published != nil {
		fmt.Printf("Published: %s\n", res.Published.PagePath)
	}
	if res.TempDir != "" {
		fmt.Printf("Kept temp dir: %s\n", res.TempDir)
	}
}

// printPlan outputs a dry-run plan of actions without executing them.
func printPlan(res pipeline.Result, opts model.CLIOptions) {
	fmt.Println("Dry-run plan:")
	fmt.Printf("- Input:          %s\n", res.Input)
	geo := res.Geometry
	fmt.Printf("- Source:         %dx%d (PAR %.3f, square %dx%d)\n",
		geo.RealWidth, geo.RealHeight, geo.PixelAspect, geo.SquareWidth, geo.SquareHeight)
	if geo.Interlaced {
		fmt.Println("- Deinterlace:    yes (yadif)")
	}
	if c := geo.Crop; c != nil {
		fmt.Printf("- Crop:           %dx%d at +%d+%d\n", c.Width, c.Height, c.X, c.Y)
	}
	fmt.Printf("- Output dir:     %s\n", opts.OutDir)
	if opts.PublishDir != "" {
		fmt.Printf("- Publish dir:    %s\n", opts.PublishDir)
	}
	for _, rr := range res.Renditions {
		p := rr.Plan
		state := ""
		if rr.Skipped {
			state = " (exists, will skip)"
		}
		fmt.Printf("- Rendition:      %dx%d %s/%s, %s video + %s audio -> %s%s\n",
			p.Width, p.Height, p.VideoProfile, p.VideoLevel,
			p.VBitrate, p.ABitrate, p.OutputPath, state)
	}
}
