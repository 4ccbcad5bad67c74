package probe

import (
	"context"
	"errors"
	"fmt"

	"streambake/internal/progress"
	"streambake/internal/util"
)

// Options controls probing behavior.
type Options struct {
	MediaInfoPath string
	FFprobePath   string
	ExifToolPath  string
	Verbose       bool

	Reporter progress.Reporter
	JobID    string
	Runner   util.CmdRunner
}

// Result bundles the three probe sources for one input file.
type Result struct {
	Container Source // mediainfo, first video track
	Stream    Source // ffprobe, first video + first audio stream
	Tags      Source // exiftool per-track tags; may be empty
}

// Probe runs the three metadata tools against the input. Container and
// stream probes are required; a failing tag probe degrades to an empty
// source with a warning, never an error.
func Probe(ctx context.Context, input string, opts Options) (Result, error) {
	if opts.MediaInfoPath == "" || opts.FFprobePath == "" {
		return Result{}, errors.New("mediainfo and ffprobe paths are required")
	}
	runner := opts.Runner
	if runner == nil {
		runner = util.NewDefaultRunner()
	}

	report(opts, "Probing container metadata")
	miRes, err := runner.Run(ctx, util.CmdSpec{
		Path:    opts.MediaInfoPath,
		Args:    []string{"--Output=JSON", input},
		Verbose: opts.Verbose,
	})
	if err != nil {
		return Result{}, fmt.Errorf("mediainfo failed: %w", err)
	}
	container, err := ParseMediaInfo(miRes.Stdout)
	if err != nil {
		return Result{}, err
	}

	report(opts, "Probing stream metadata")
	fpRes, err := runner.Run(ctx, util.CmdSpec{
		Path:    opts.FFprobePath,
		Args:    []string{"-v", "quiet", "-print_format", "json", "-show_streams", "-show_format", input},
		Verbose: opts.Verbose,
	})
	if err != nil {
		return Result{}, fmt.Errorf("ffprobe failed: %w", err)
	}
	stream, err := ParseFFProbe(fpRes.Stdout)
	if err != nil {
		return Result{}, err
	}

	// Tag probe is best-effort: many files carry no aperture tags, and
	// exiftool may be missing entirely.
	tags := Source(emptyTags)
	if opts.ExifToolPath != "" {
		etRes, runErr := runner.Run(ctx, util.CmdSpec{
			Path:    opts.ExifToolPath,
			Args:    []string{"-j", "-G4", input},
			Verbose: opts.Verbose,
		})
		if runErr == nil {
			if parsed, perr := ParseExifTags(etRes.Stdout); perr == nil {
				tags = parsed
			} else {
				logWarn(opts, fmt.Sprintf("warning: %v; ignoring tag probe", perr))
			}
		} else {
			logWarn(opts, fmt.Sprintf("warning: exiftool failed: %v; ignoring tag probe", runErr))
		}
	}

	return Result{Container: container, Stream: stream, Tags: tags}, nil
}

func report(opts Options, msg string) {
	if opts.Reporter == nil {
		return
	}
	opts.Reporter.Update(progress.Update{
		JobID:   opts.JobID,
		Stage:   progress.StageProbing,
		Percent: -1,
		Message: msg,
	})
}

func logWarn(opts Options, line string) {
	if opts.Reporter == nil {
		return
	}
	opts.Reporter.Log(progress.Log{
		JobID:  opts.JobID,
		Stream: progress.StreamStderr,
		Line:   line,
	})
}
