package cmd

import (
	"context"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"streambake/internal/config"
)

const (
	ExitOK             = 0
	ExitCLIError       = 1
	ExitMissingDep     = 2
	ExitProbeError     = 3
	ExitTranscodeError = 4
)

// ExitError wraps an error with a process exit code.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "streambake [file]",
		Short:         "Bake one source video into a ladder of streaming renditions",
		Long:          "Streambake probes a source video with mediainfo, ffprobe, and exiftool, reconciles their disagreeing geometry metadata, and encodes one H.264/AAC MP4 rendition per configured profile, ready for progressive streaming.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExecute(cmd, args, runMode{
				ForceTUI:   false,
				DryRunOnly: false,
			})
		},
	}

	// Persistent flags available to all subcommands
	root.PersistentFlags().StringP("out-dir", "o", ".", "Output directory")
	root.PersistentFlags().String("publish-dir", "", "Publish directory; moves renditions there and writes a playback page")
	root.PersistentFlags().BoolP("verbose", "v", false, "Show full subprocess commands/output")
	root.PersistentFlags().String("ffmpeg", "", "Path to ffmpeg")
	root.PersistentFlags().String("ffprobe", "", "Path to ffprobe")
	root.PersistentFlags().String("mediainfo", "", "Path to mediainfo")
	root.PersistentFlags().String("exiftool", "", "Path to exiftool")

	// Also bind run-specific flags on root, so `streambake <file>` works
	// without the run subcommand.
	bindRunFlags(root.Flags())

	// Subcommands
	root.AddCommand(newRunCmd())
	root.AddCommand(newPlanCmd())
	root.AddCommand(newTuiCmd())
	root.AddCommand(newDoctorCmd())
	root.AddCommand(newCompletionCmd())

	return root
}

func bindRunFlags(fs *pflag.FlagSet) {
	fs.String("prefix", "", "Output filename prefix (default: input basename)")
	fs.String("suffix", "", "Optional filename suffix appended after the device class")
	fs.String("watermark", "", "Watermark spec: FILE[:ORIENTATION[:PERCENT]] (orientations: TL,TR,BL,BR,C)")
	fs.String("keyframes", "", "Path to a file of HH:MM:SS.mmm timecodes for forced keyframes")
	fs.Float64("audio-delay", 0, "Delay audio by this many seconds")
	fs.Bool("test", false, "Encode only the first 30 seconds of each rendition")
	fs.BoolP("force", "f", false, "Overwrite pre-existing outputs instead of skipping")
	fs.Bool("keep-temp", false, "Keep the scratch working directory")
	fs.Bool("dry-run", false, "Show plan without executing")
	fs.Bool("no-ui", false, "Disable TUI; use plain textual output")
}

// Execute runs the CLI with the provided context.
func Execute(ctx context.Context) error {
	root := newRootCmd()
	_ = config.Init(root)
	return root.ExecuteContext(ctx)
}

// Helpers
func getPersistentString(cmd *cobra.Command, name, def string) string {
	v, err := cmd.InheritedFlags().GetString(name)
	if err != nil || v == "" {
		return def
	}
	return v
}

func getPersistentBool(cmd *cobra.Command, name string, def bool) bool {
	v, err := cmd.InheritedFlags().GetBool(name)
	if err != nil {
		return def
	}
	return v
}

func ensureDir(path string) error {
	if path == "" {
		path = "."
	}
	return os.MkdirAll(filepath.Clean(path), 0o755)
}
