package encoder

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"streambake/internal/model"
	"streambake/internal/probe"
	"streambake/internal/progress"
	"streambake/internal/util"
)

// Options control ffmpeg execution for one rendition.
type Options struct {
	FFmpegPath  string
	FFprobePath string // used by Validate
	Verbose     bool
	WorkDir     string  // per-run scratch dir; becomes ffmpeg's cwd
	DurationSec float64 // source duration, for progress percentages; 0 if unknown

	Reporter progress.Reporter
	JobID    string
	Runner   util.CmdRunner
}

// Encode runs ffmpeg for one rendition plan and returns metadata about the
// resulting file on success. The incomplete output is removed on failure.
func Encode(ctx context.Context, plan model.RenditionPlan, geo model.Geometry, build BuildOptions, opts Options) (model.EncodedVideo, error) {
	if opts.FFmpegPath == "" {
		return model.EncodedVideo{}, errors.New("ffmpeg path is required")
	}
	if plan.OutputPath == "" {
		return model.EncodedVideo{}, errors.New("output path is required")
	}
	runner := opts.Runner
	if runner == nil {
		runner = util.NewDefaultRunner()
	}

	build.Progress = true
	args := BuildArgs(plan, geo, build)

	if err := util.EnsureDir(filepath.Dir(plan.OutputPath)); err != nil {
		return model.EncodedVideo{}, fmt.Errorf("ensure output dir: %w", err)
	}

	ps := &ProgressState{}
	_, runErr := runner.Run(ctx, util.CmdSpec{
		Path:    opts.FFmpegPath,
		Args:    args,
		Dir:     opts.WorkDir,
		Verbose: opts.Verbose,
		StdoutLine: func(line string) {
			if opts.Reporter == nil {
				return
			}
			if u, ok := ps.UpdateFromLine(line, opts.JobID, opts.DurationSec); ok {
				opts.Reporter.Update(u)
			}
		},
		StderrLine: func(line string) {
			if opts.Reporter != nil && opts.Verbose {
				opts.Reporter.Log(progress.Log{JobID: opts.JobID, Stream: progress.StreamStderr, Line: line})
			}
		},
	})
	if runErr != nil {
		// Delete incomplete file
		_ = util.RemoveIfExists(plan.OutputPath)
		return model.EncodedVideo{}, fmt.Errorf("ffmpeg failed: %w", runErr)
	}

	fi, err := os.Stat(plan.OutputPath)
	if err != nil {
		return model.EncodedVideo{}, fmt.Errorf("stat output: %w", err)
	}

	return model.EncodedVideo{
		OutputPath: plan.OutputPath,
		Bytes:      fi.Size(),
		Width:      plan.Width,
		Height:     plan.Height,
		Device:     plan.Device,
	}, nil
}

// Validate re-probes the finished rendition and checks its encoded
// dimensions against the plan.
func Validate(ctx context.Context, plan model.RenditionPlan, opts Options) error {
	if opts.FFprobePath == "" {
		return errors.New("ffprobe path is required")
	}
	runner := opts.Runner
	if runner == nil {
		runner = util.NewDefaultRunner()
	}

	res, err := runner.Run(ctx, util.CmdSpec{
		Path:    opts.FFprobePath,
		Args:    []string{"-v", "quiet", "-print_format", "json", "-show_streams", plan.OutputPath},
		Verbose: opts.Verbose,
	})
	if err != nil {
		return fmt.Errorf("validate %s: %w", plan.OutputPath, err)
	}
	src, err := probe.ParseFFProbe(res.Stdout)
	if err != nil {
		return fmt.Errorf("validate %s: %w", plan.OutputPath, err)
	}

	w, _ := src.Get(probe.FieldStreamWidth)
	h, _ := src.Get(probe.FieldStreamHeight)
	if w != strconv.Itoa(plan.Width) || h != strconv.Itoa(plan.Height) {
		return fmt.Errorf("validate %s: encoded %sx%s, planned %dx%d", plan.OutputPath, w, h, plan.Width, plan.Height)
	}
	return nil
}
