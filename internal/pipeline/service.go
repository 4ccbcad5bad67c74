// Package pipeline provides planning and orchestration for the streambake workflow.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"streambake/internal/encoder"
	"streambake/internal/geometry"
	"streambake/internal/model"
	"streambake/internal/probe"
	"streambake/internal/progress"
	"streambake/internal/publish"
	"streambake/internal/util"
	"streambake/internal/util/deps"
	"streambake/internal/util/format"
	"streambake/internal/util/media"
)

var (
	// ErrProbe marks failures in the probe and reconcile stages.
	ErrProbe = errors.New("probe failed")
	// ErrTranscode marks failures in the encode and validate stages.
	ErrTranscode = errors.New("transcode failed")
)

// Service orchestrates the probe → reconcile → expand → encode → publish
// workflow. Renditions are processed one at a time; the encodes share the
// scratch directory and the machine, so parallelism buys nothing.
type Service struct {
	tools     deps.Tools
	opts      model.CLIOptions
	profiles  []model.EncodingProfile
	watermark *model.WatermarkSpec
	runner    util.CmdRunner
	reporter  progress.Reporter
}

// Option configures a Service.
type Option func(*Service)

// WithTools sets the resolved external tool paths.
func WithTools(t deps.Tools) Option {
	return func(s *Service) {
		s.tools = t
	}
}

// WithCLIOptions sets the CLI options used for planning and execution.
func WithCLIOptions(o model.CLIOptions) Option {
	return func(s *Service) {
		s.opts = o
	}
}

// WithProfiles sets the configured encoding profiles.
func WithProfiles(ps []model.EncodingProfile) Option {
	return func(s *Service) {
		s.profiles = ps
	}
}

// WithWatermark attaches a validated watermark spec.
func WithWatermark(wm *model.WatermarkSpec) Option {
	return func(s *Service) {
		s.watermark = wm
	}
}

// WithRunner injects a custom command runner (useful for testing).
func WithRunner(r util.CmdRunner) Option {
	return func(s *Service) {
		s.runner = r
	}
}

// WithReporter attaches a progress reporter (used by TUI).
func WithReporter(rp progress.Reporter) Option {
	return func(s *Service) {
		s.reporter = rp
	}
}

// NewService constructs a new Service with the provided options.
func NewService(opts ...Option) *Service {
	s := &Service{}
	for _, o := range opts {
		o(s)
	}
	if s.runner == nil {
		s.runner = util.NewDefaultRunner()
	}
	return s
}

// RenditionResult is the outcome for one enabled profile.
type RenditionResult struct {
	JobID    string
	Plan     model.RenditionPlan
	Output   *model.EncodedVideo // nil when planned or skipped
	Planned  bool                // dry-run
	Skipped  bool                // output existed and --force was not set
	Warnings []model.Warning
}

// Result returns the outcome of RunJob.
type Result struct {
	Input      string
	Geometry   model.Geometry
	Renditions []RenditionResult
	Warnings   []model.Warning // run-level warnings (keyframe file, probes)
	TempDir    string          // set only when KeepTemp is requested
	Published  *publish.Manifest
}

// RunJob executes the full pipeline for the configured input.
// It never prints; when a Reporter is present, it emits progress and a final
// Result per rendition.
func (s *Service) RunJob(ctx context.Context) (Result, error) {
	var res Result
	res.Input = s.opts.Input

	if s.opts.Input == "" {
		return res, fmt.Errorf("input file is required")
	}
	if s.tools.MediaInfo == "" || s.tools.FFprobe == "" {
		return res, fmt.Errorf("mediainfo and ffprobe paths are required")
	}
	if !s.opts.DryRun && s.tools.FFmpeg == "" {
		return res, fmt.Errorf("ffmpeg path is required")
	}

	enabled := EnabledProfiles(s.profiles)
	if len(enabled) == 0 {
		return res, fmt.Errorf("no enabled encoding profiles")
	}
	jobIDs := make([]string, len(enabled))
	for i, p := range enabled {
		jobIDs[i] = RenditionJobID(i, p)
	}

	tempDir, err := util.MakeTempWorkdir(media.DefaultPrefix(s.opts.Input))
	if err != nil {
		return res, fmt.Errorf("create scratch dir: %w", err)
	}
	defer func() {
		if !s.opts.KeepTemp {
			_ = os.RemoveAll(tempDir)
		}
	}()
	if s.opts.KeepTemp {
		res.TempDir = tempDir
	}

	// Extra forced-keyframe timecodes; malformed lines warn, a missing file
	// is fatal.
	var timecodes []string
	if s.opts.Keyframes != "" {
		var kfWarnings []model.Warning
		timecodes, kfWarnings, err = encoder.ParseKeyframes(s.opts.Keyframes)
		if err != nil {
			return res, err
		}
		res.Warnings = append(res.Warnings, kfWarnings...)
		s.logWarnings(jobIDs, kfWarnings)
	}

	// Geometry is shared, so probing progress fans out to every rendition job.
	pr, err := probe.Probe(ctx, s.opts.Input, probe.Options{
		MediaInfoPath: s.tools.MediaInfo,
		FFprobePath:   s.tools.FFprobe,
		ExifToolPath:  s.tools.ExifTool,
		Verbose:       s.opts.Verbose,
		Reporter:      s.broadcastReporter(jobIDs),
		Runner:        s.runner,
	})
	if err != nil {
		s.failAll(jobIDs, err)
		return res, fmt.Errorf("%w: %v", ErrProbe, err)
	}

	geo, err := geometry.Reconcile(pr)
	if err != nil {
		s.failAll(jobIDs, err)
		return res, fmt.Errorf("%w: %v", ErrProbe, err)
	}
	res.Geometry = geo

	durationSec := sourceDuration(pr)
	prefix := s.opts.Prefix
	if prefix == "" {
		prefix = media.DefaultPrefix(s.opts.Input)
	}

	if !s.opts.DryRun {
		if err := util.EnsureDir(s.opts.OutDir); err != nil {
			return res, fmt.Errorf("ensure output dir: %w", err)
		}
	}

	for i, p := range enabled {
		jobID := jobIDs[i]
		s.update(progress.Update{
			JobID:   jobID,
			Stage:   progress.StagePlanning,
			Percent: -1,
			Message: fmt.Sprintf("Planning %s", p.Dimensions),
		})

		plan, warnings, perr := ExpandProfile(p, geo, s.opts.OutDir, prefix, s.opts.Suffix)
		if perr != nil {
			s.result(progress.Result{JobID: jobID, Err: perr})
			return res, perr
		}
		s.logWarnings([]string{jobID}, warnings)

		rr := RenditionResult{JobID: jobID, Plan: plan, Warnings: warnings}

		if !s.opts.Force && util.FileExists(plan.OutputPath) {
			w := model.Warning{
				Kind:    model.WarnOutputExists,
				Message: fmt.Sprintf("%s exists; skipping (use --force to overwrite)", plan.OutputPath),
			}
			rr.Skipped = true
			rr.Warnings = append(rr.Warnings, w)
			s.logWarnings([]string{jobID}, []model.Warning{w})
			s.update(progress.Update{
				JobID:   jobID,
				Stage:   progress.StageSkipped,
				Percent: 100,
				Message: fmt.Sprintf("Skipped: %s exists", filepath.Base(plan.OutputPath)),
			})
			s.result(progress.Result{JobID: jobID, OutputPath: plan.OutputPath, Skipped: true})
			res.Renditions = append(res.Renditions, rr)
			continue
		}

		if s.opts.DryRun {
			rr.Planned = true
			s.emitPlanned(jobID, plan)
			res.Renditions = append(res.Renditions, rr)
			continue
		}

		out, eerr := encoder.Encode(ctx, plan, geo, encoder.BuildOptions{
			Input:      s.opts.Input,
			Watermark:  s.watermark,
			Keyframes:  timecodes,
			AudioDelay: s.opts.AudioDelay,
			Test:       s.opts.Test,
		}, encoder.Options{
			FFmpegPath:  s.tools.FFmpeg,
			FFprobePath: s.tools.FFprobe,
			Verbose:     s.opts.Verbose,
			WorkDir:     tempDir,
			DurationSec: durationSec,
			Reporter:    s.reporter,
			JobID:       jobID,
			Runner:      s.runner,
		})
		if eerr != nil {
			s.result(progress.Result{JobID: jobID, Err: eerr})
			return res, fmt.Errorf("%w (%s): %v", ErrTranscode, plan.TotalBitrate, eerr)
		}

		s.update(progress.Update{
			JobID:   jobID,
			Stage:   progress.StageValidating,
			Percent: -1,
			Message: "Validating output",
		})
		if verr := s.validate(ctx, plan, jobID); verr != nil {
			s.result(progress.Result{JobID: jobID, Err: verr})
			return res, fmt.Errorf("%w: %v", ErrTranscode, verr)
		}

		rr.Output = &out
		res.Renditions = append(res.Renditions, rr)
		s.emitSaved(jobID, out)
	}

	if s.opts.PublishDir != "" && !s.opts.DryRun {
		if err := s.publishOutputs(&res, prefix, jobIDs); err != nil {
			return res, err
		}
	}

	return res, nil
}

func (s *Service) validate(ctx context.Context, plan model.RenditionPlan, jobID string) error {
	return encoder.Validate(ctx, plan, encoder.Options{
		FFprobePath: s.tools.FFprobe,
		Verbose:     s.opts.Verbose,
		Runner:      s.runner,
		Reporter:    s.reporter,
		JobID:       jobID,
	})
}

// publishOutputs moves the encoded renditions into the publish directory and
// updates their recorded paths.
func (s *Service) publishOutputs(res *Result, prefix string, jobIDs []string) error {
	var videos []model.EncodedVideo
	for _, rr := range res.Renditions {
		if rr.Output != nil {
			videos = append(videos, *rr.Output)
		}
	}
	if len(videos) == 0 {
		return nil
	}

	for _, id := range jobIDs {
		s.update(progress.Update{
			JobID:   id,
			Stage:   progress.StagePublishing,
			Percent: -1,
			Message: fmt.Sprintf("Publishing to %s", s.opts.PublishDir),
		})
	}

	m, err := publish.Publish(videos, publish.Options{Dir: s.opts.PublishDir, Title: prefix})
	if err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	res.Published = &m

	i := 0
	for ri := range res.Renditions {
		if res.Renditions[ri].Output != nil {
			res.Renditions[ri].Output.OutputPath = m.Files[i]
			i++
		}
	}
	return nil
}

// sourceDuration reads the container duration from the stream probe, for
// encode progress percentages. Zero means unknown.
func sourceDuration(pr probe.Result) float64 {
	v, ok := pr.Stream.Get(probe.FieldDuration)
	if !ok {
		return 0
	}
	d, err := strconv.ParseFloat(v, 64)
	if err != nil || d <= 0 {
		return 0
	}
	return d
}

// emitPlanned sends a final "planned" update and reporter result for TUI.
func (s *Service) emitPlanned(jobID string, plan model.RenditionPlan) {
	if s.reporter == nil {
		return
	}
	s.reporter.Update(progress.Update{
		JobID:   jobID,
		Stage:   progress.StageCompleted,
		Percent: 100,
		Message: fmt.Sprintf("Planned: %s %dx%d (dry-run)", filepath.Base(plan.OutputPath), plan.Width, plan.Height),
	})
	s.reporter.Result(progress.Result{JobID: jobID, OutputPath: plan.OutputPath})
}

// emitSaved sends a final "saved" update and reporter result for TUI.
func (s *Service) emitSaved(jobID string, out model.EncodedVideo) {
	if s.reporter == nil {
		return
	}
	s.reporter.Update(progress.Update{
		JobID:   jobID,
		Stage:   progress.StageCompleted,
		Percent: 100,
		Message: fmt.Sprintf("Saved: %s (%s)", filepath.Base(out.OutputPath), format.HumanizeBytes(out.Bytes)),
	})
	s.reporter.Result(progress.Result{JobID: jobID, OutputPath: out.OutputPath, Bytes: out.Bytes})
}

func (s *Service) update(u progress.Update) {
	if s.reporter != nil {
		s.reporter.Update(u)
	}
}

func (s *Service) result(r progress.Result) {
	if s.reporter != nil {
		s.reporter.Result(r)
	}
}

// failAll emits an error result to every rendition job. Used when a shared
// stage fails before any rendition started.
func (s *Service) failAll(jobIDs []string, err error) {
	if s.reporter == nil {
		return
	}
	for _, id := range jobIDs {
		s.reporter.Result(progress.Result{JobID: id, Err: err})
	}
}

func (s *Service) logWarnings(jobIDs []string, warnings []model.Warning) {
	if s.reporter == nil {
		return
	}
	for _, id := range jobIDs {
		for _, w := range warnings {
			s.reporter.Log(progress.Log{
				JobID:  id,
				Stream: progress.StreamStderr,
				Line:   "warning: " + w.Message,
			})
		}
	}
}

// broadcastReporter mirrors every event onto all rendition jobs. Probing and
// reconciliation are shared work, so each job's UI row should show them.
func (s *Service) broadcastReporter(jobIDs []string) progress.Reporter {
	if s.reporter == nil {
		return nil
	}
	return &fanout{inner: s.reporter, jobIDs: jobIDs}
}

type fanout struct {
	inner  progress.Reporter
	jobIDs []string
}

func (f *fanout) Update(u progress.Update) {
	for _, id := range f.jobIDs {
		u.JobID = id
		f.inner.Update(u)
	}
}

func (f *fanout) Log(l progress.Log) {
	for _, id := range f.jobIDs {
		l.JobID = id
		f.inner.Log(l)
	}
}

func (f *fanout) Result(r progress.Result) {
	for _, id := range f.jobIDs {
		r.JobID = id
		f.inner.Result(r)
	}
}
