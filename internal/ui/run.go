package ui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"streambake/internal/model"
)

// Run launches the TUI for one input file, showing a row per enabled profile.
func Run(ctx context.Context, overrides ToolOverrides, opts model.CLIOptions, profiles []model.EncodingProfile, wm *model.WatermarkSpec) error {
	m := NewModel(ctx, overrides, opts, profiles, wm)
	prog := tea.NewProgram(m, tea.WithContext(ctx))
	final, err := prog.Run()
	if err != nil {
		return err
	}
	if fm, ok := final.(Model); ok {
		var failed []string
		for _, id := range fm.jobOrder {
			js := fm.jobs[id]
			if js != nil && js.err != nil {
				if js.label != "" {
					failed = append(failed, fmt.Sprintf("- %s: %s", js.label, js.err))
				} else {
					failed = append(failed, fmt.Sprintf("- %s", js.err))
				}
			}
		}
		if len(failed) > 0 {
			return fmt.Errorf("%d rendition(s) failed:\n%s", len(failed), strings.Join(failed, "\n"))
		}
	}
	return nil
}
