package ui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"streambake/internal/model"
	"streambake/internal/pipeline"
	"streambake/internal/progress"
	"streambake/internal/util/deps"
	"streambake/internal/util/format"
)

// ToolOverrides carries user-supplied tool paths; empty fields resolve from
// PATH during the dependency check.
type ToolOverrides struct {
	FFmpeg    string
	FFprobe   string
	MediaInfo string
	ExifTool  string
}

type Model struct {
	ctx    context.Context
	cancel context.CancelFunc

	// App state (deps)
	depsChecked bool
	depsErr     error
	tools       deps.Tools
	overrides   ToolOverrides

	// Jobs: one per enabled profile, all fed by a single sequential run.
	opts      model.CLIOptions
	profiles  []model.EncodingProfile
	watermark *model.WatermarkSpec
	jobOrder  []string
	jobs      map[string]*jobState
	started   bool

	// UI
	width, height int
	styles        Styles

	// Internal event channel used by reporter to feed tea messages
	eventCh chan tea.Msg
}

func NewModel(ctx context.Context, overrides ToolOverrides, opts model.CLIOptions, profiles []model.EncodingProfile, wm *model.WatermarkSpec) Model {
	c, cancel := context.WithCancel(ctx)
	sty := defaultStyles()

	enabled := pipeline.EnabledProfiles(profiles)
	jobs := make(map[string]*jobState, len(enabled))
	order := make([]string, 0, len(enabled))
	for i, p := range enabled {
		id := pipeline.RenditionJobID(i, p)
		js := newJobState(id, jobLabel(p), sty)
		jobs[id] = &js
		order = append(order, id)
	}

	return Model{
		ctx:       c,
		cancel:    cancel,
		overrides: overrides,
		opts:      opts,
		profiles:  profiles,
		watermark: wm,
		jobs:      jobs,
		jobOrder:  order,
		styles:    sty,
		eventCh:   make(chan tea.Msg, 256),
	}
}

// jobLabel summarizes a profile for its row header.
func jobLabel(p model.EncodingProfile) string {
	parts := []string{p.Dimensions, p.VBitrate}
	if p.Device != "" {
		parts = append([]string{p.Device}, parts...)
	}
	return strings.Join(parts, " ")
}

func (m Model) Init() tea.Cmd {
	var cmds []tea.Cmd
	for _, id := range m.jobOrder {
		sp := m.jobs[id].spinner
		cmds = append(cmds, sp.Tick)
	}
	// Listen for reporter events
	cmds = append(cmds, m.listenEventsCmd())
	// Kick off dependency check
	cmds = append(cmds, m.checkDepsCmd())
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.cancel()
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height

	case depsCheckedMsg:
		m.depsChecked = true
		m.depsErr = msg.Err
		m.tools = msg.Tools
		if m.depsErr != nil {
			// Mark all as errored
			for _, id := range m.jobOrder {
				js := m.jobs[id]
				js.stage = progress.StageError
				js.status = fmt.Sprintf("Dependency error: %v", m.depsErr)
				js.err = m.depsErr
				js.done = true
			}
			return m, tea.Quit
		}
		// Renditions run strictly one at a time; a single pipeline run
		// feeds every row through the reporter.
		if !m.started {
			m.started = true
			return m, m.startRunCmd()
		}

	case jobUpdateMsg:
		u := msg.U
		if js, ok := m.jobs[u.JobID]; ok {
			js.stage = u.Stage
			js.percent = u.Percent
			js.status = u.Message
			if u.Bytes != nil {
				js.bytes = *u.Bytes
			}
		}
	case jobLogMsg:
		l := msg.L
		if js, ok := m.jobs[l.JobID]; ok {
			// small ring buffer
			line := strings.TrimRight(l.Line, "\r\n")
			if len(js.logsRing) > 1000 {
				js.logsRing = js.logsRing[1:]
			}
			js.logsRing = append(js.logsRing, line)
		}
	case jobResultMsg:
		r := msg.R
		if js, ok := m.jobs[r.JobID]; ok {
			js.done = true
			js.err = r.Err
			js.skipped = r.Skipped
			if r.Err == nil {
				js.stage = progress.StageCompleted
				js.percent = 100
				js.outputPath = r.OutputPath
				js.bytes = r.Bytes
				switch {
				case r.Skipped:
					js.stage = progress.StageSkipped
					js.status = fmt.Sprintf("Skipped: %s exists", baseName(r.OutputPath))
				case m.opts.DryRun:
					js.status = fmt.Sprintf("Planned: %s (dry-run)", baseName(r.OutputPath))
				case r.OutputPath != "":
					js.status = fmt.Sprintf("Saved: %s (%s)", baseName(r.OutputPath), format.HumanizeBytes(r.Bytes))
				default:
					js.status = "Completed"
				}
			} else {
				js.stage = progress.StageError
				js.status = r.Err.Error()
				js.percent = -1
			}
		}
	case runDoneMsg:
		// The run aborted before some renditions got a result; close them out.
		for _, id := range m.jobOrder {
			js := m.jobs[id]
			if js.done {
				continue
			}
			js.done = true
			if msg.Err != nil {
				js.stage = progress.StageError
				js.err = msg.Err
				js.status = "Aborted: " + msg.Err.Error()
				js.percent = -1
			}
		}
		return m, tea.Quit
	case allDoneMsg:
		return m, tea.Quit
	}

	// Update per-job components (spinner)
	var cmds []tea.Cmd
	for _, id := range m.jobOrder {
		js := m.jobs[id]
		var c tea.Cmd
		js.spinner, c = js.spinner.Update(msg)
		if c != nil {
			cmds = append(cmds, c)
		}
	}
	// Keep listening for events
	cmds = append(cmds, m.listenEventsCmd())
	return m, tea.Batch(cmds...)
}

func (m Model) View() string {
	summary := m.viewSummary()
	if summary != "" {
		return m.viewHeader() + "\n\n" + m.viewJobs() + "\n" + summary
	}
	return m.viewHeader() + "\n\n" + m.viewJobs()
}

func (m Model) listenEventsCmd() tea.Cmd {
	return func() tea.Msg {
		select {
		case <-m.ctx.Done():
			return allDoneMsg{}
		case msg := <-m.eventCh:
			return msg
		}
	}
}

func (m Model) checkDepsCmd() tea.Cmd {
	return func() tea.Msg {
		t, err := deps.Find(m.overrides.FFmpeg, m.overrides.FFprobe, m.overrides.MediaInfo, m.overrides.ExifTool)
		return depsCheckedMsg{Tools: t, Err: err}
	}
}

// startRunCmd launches the pipeline in a goroutine. Progress flows back via
// the event channel; the final runDoneMsg closes out any remaining rows.
func (m Model) startRunCmd() tea.Cmd {
	return func() tea.Msg {
		select {
		case <-m.ctx.Done():
			return allDoneMsg{}
		default:
		}
		go m.runPipeline()
		return nil
	}
}

func (m Model) runPipeline() {
	rep := teaReporter{ch: m.eventCh}
	svc := pipeline.NewService(
		pipeline.WithTools(m.tools),
		pipeline.WithCLIOptions(m.opts),
		pipeline.WithProfiles(m.profiles),
		pipeline.WithWatermark(m.watermark),
		pipeline.WithReporter(rep),
	)
	_, err := svc.RunJob(m.ctx)
	rep.done(err)
}

type teaReporter struct {
	ch chan tea.Msg
}

func (r teaReporter) Update(u progress.Update) {
	// Block on completion messages to ensure they're delivered
	if u.Stage == progress.StageCompleted || u.Stage == progress.StageError {
		r.ch <- jobUpdateMsg{U: u}
		return
	}
	select {
	case r.ch <- jobUpdateMsg{U: u}:
	default:
	}
}
func (r teaReporter) Log(l progress.Log) {
	select {
	case r.ch <- jobLogMsg{L: l}:
	default:
	}
}
func (r teaReporter) Result(res progress.Result) {
	// Always block on Result messages - they're critical
	r.ch <- jobResultMsg{R: res}
}

func (r teaReporter) done(err error) {
	r.ch <- runDoneMsg{Err: err}
}
