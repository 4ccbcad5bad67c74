package ui

import (
	bubblesprogress "github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"

	"streambake/internal/progress"
)

type jobState struct {
	id     string
	label  string // device/dimensions/bitrate summary for the row header
	stage  progress.Stage
	status string
	err    error
	done   bool

	outputPath string
	bytes      int64
	percent    float64 // -1 means unknown
	skipped    bool

	spinner spinner.Model
	bar     bubblesprogress.Model

	// Optional: recent logs (kept small)
	logsRing []string
}

func newJobState(id, label string, styles Styles) jobState {
	sp := spinner.New()
	sp.Style = styles.Spinner
	bar := bubblesprogress.New(
		bubblesprogress.WithDefaultGradient(),
		bubblesprogress.WithWidth(40),
	)
	return jobState{
		id:      id,
		label:   label,
		stage:   progress.StageDeps,
		status:  "Queued",
		percent: -1,
		spinner: sp,
		bar:     bar,
	}
}
