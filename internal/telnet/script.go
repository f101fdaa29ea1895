package telnet

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"
	"time"
)

type StepKind int

const (
	StepSend StepKind = iota
	StepExpect
	StepSleep
	StepTimeout
)

func (k StepKind) String() string {
	switch k {
	case StepSend:
		return "send"
	case StepExpect:
		return "expect"
	case StepSleep:
		return "sleep"
	case StepTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// Step is one non-blank line of a script.
type Step struct {
	Kind StepKind
	// Line is the 1-based line number in the source text.
	Line int
	// Text is the literal to send, or the pattern for StepExpect.
	Text string
	// Duration is set for StepSleep and StepTimeout.
	Duration time.Duration
}

type Script []Step

type directive struct {
	kind     StepKind
	prefixes []string
}

// The underscore spellings are what older script files use.
var directives = []directive{
	{kind: StepExpect, prefixes: []string{"EXPECT:", "_EXPECT:"}},
	{kind: StepSleep, prefixes: []string{"SLEEP:", "_SLEEP:"}},
	{kind: StepTimeout, prefixes: []string{"TIMEOUT:", "_TIMEOUT:"}},
}

// ParseScript turns script text into steps. Lines are trimmed and blank lines
// dropped; anything that is not a directive is sent verbatim.
func ParseScript(text string) (Script, error) {
	var script Script

	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if len(line) == 0 {
			continue
		}

		step, err := parseLine(line, lineNo)
		if err != nil {
			return nil, err
		}
		script = append(script, step)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read script: %w", err)
	}

	return script, nil
}

func parseLine(line string, lineNo int) (Step, error) {
	for _, d := range directives {
		for _, prefix := range d.prefixes {
			if !strings.HasPrefix(line, prefix) {
				continue
			}
			arg := strings.TrimSpace(strings.TrimPrefix(line, prefix))

			if d.kind == StepExpect {
				return Step{Kind: StepExpect, Line: lineNo, Text: arg}, nil
			}

			seconds, err := strconv.Atoi(arg)
			if err != nil || seconds < 0 {
				return Step{}, fmt.Errorf("line %d: %s expects a non-negative number of seconds, got %q", lineNo, strings.TrimSuffix(prefix, ":"), arg)
			}
			return Step{
				Kind:     d.kind,
				Line:     lineNo,
				Duration: time.Duration(seconds) * time.Second,
			}, nil
		}
	}

	return Step{Kind: StepSend, Line: lineNo, Text: line}, nil
}
