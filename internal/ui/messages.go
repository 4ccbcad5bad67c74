package ui

import (
	"streambake/internal/progress"
	"streambake/internal/util/deps"
)

type depsCheckedMsg struct {
	Tools deps.Tools
	Err   error
}

type jobUpdateMsg struct {
	U progress.Update
}

type jobLogMsg struct {
	L progress.Log
}

type jobResultMsg struct {
	R progress.Result
}

// runDoneMsg is sent when the pipeline run returns; Err is the run-level
// failure, if any.
type runDoneMsg struct {
	Err error
}

type allDoneMsg struct{}
