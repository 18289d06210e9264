// Package sim replays scripted calls against a session on a manual clock.
package sim

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"
)

// StepKind is one script instruction.
type StepKind string

const (
	StepSay      StepKind = "say"
	StepWait     StepKind = "wait"
	StepToggle   StepKind = "toggle"
	StepCodeWord StepKind = "codeword"
	StepDraft    StepKind = "draft"
	StepEnd      StepKind = "end"
)

// Step is a parsed script line.
type Step struct {
	Kind StepKind
	Arg  string
	Wait time.Duration
	Line int
}

var toggles = map[string]bool{"mute": true, "video": true, "voice": true, "recording": true}

// Parse reads a script. Plain lines are user messages; the directives are
// "wait <duration>", "toggle <control>", "codeword <word>", "draft <text>"
// and "end". Blank lines and lines starting with # are skipped. A line
// starting with "> " is always a message, so text like "wait for me" can be
// said verbatim.
func Parse(r io.Reader) ([]Step, error) {
	var steps []Step
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		raw := strings.TrimSpace(sc.Text())
		if raw == "" || strings.HasPrefix(raw, "#") {
			continue
		}
		if text, ok := strings.CutPrefix(raw, "> "); ok {
			steps = append(steps, Step{Kind: StepSay, Arg: text, Line: line})
			continue
		}

		head, rest, _ := strings.Cut(raw, " ")
		rest = strings.TrimSpace(rest)
		switch strings.ToLower(head) {
		case "wait":
			d, err := time.ParseDuration(rest)
			if err != nil || d < 0 {
				return nil, fmt.Errorf("line %d: invalid wait %q", line, rest)
			}
			steps = append(steps, Step{Kind: StepWait, Wait: d, Line: line})
		case "toggle":
			control := strings.ToLower(rest)
			if !toggles[control] {
				return nil, fmt.Errorf("line %d: unknown control %q", line, rest)
			}
			steps = append(steps, Step{Kind: StepToggle, Arg: control, Line: line})
		case "codeword":
			steps = append(steps, Step{Kind: StepCodeWord, Arg: rest, Line: line})
		case "draft":
			steps = append(steps, Step{Kind: StepDraft, Arg: rest, Line: line})
		case "end":
			if rest != "" {
				steps = append(steps, Step{Kind: StepSay, Arg: raw, Line: line})
				continue
			}
			steps = append(steps, Step{Kind: StepEnd, Line: line})
		default:
			steps = append(steps, Step{Kind: StepSay, Arg: raw, Line: line})
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	return steps, nil
}
