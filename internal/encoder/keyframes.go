package encoder

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"strings"

	"streambake/internal/model"
)

// timecodeRe matches absolute timecodes of the form HH:MM:SS.mmm.
var timecodeRe = regexp.MustCompile(`^\d{2}:\d{2}:\d{2}\.\d{3}$`)

// ParseKeyframes reads a newline-delimited timecode file. '#'-comment lines
// and blank lines are ignored; a line that is not an HH:MM:SS.mmm timecode
// is dropped with a warning, never an error.
func ParseKeyframes(path string) ([]string, []model.Warning, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open keyframes file: %w", err)
	}
	defer f.Close()

	var timecodes []string
	var warnings []model.Warning

	sc := bufio.NewScanner(f)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !timecodeRe.MatchString(line) {
			warnings = append(warnings, model.Warning{
				Kind:    model.WarnBadTimecode,
				Message: fmt.Sprintf("%s:%d: dropping malformed timecode %q (want HH:MM:SS.mmm)", path, lineNo, line),
			})
			continue
		}
		timecodes = append(timecodes, line)
	}
	if err := sc.Err(); err != nil {
		return nil, nil, fmt.Errorf("read keyframes file: %w", err)
	}
	return timecodes, warnings, nil
}
