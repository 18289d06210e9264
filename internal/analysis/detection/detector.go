// Package detection scans outgoing user text for the secret code word and for distress keywords.
package detection

import "strings"

// Kind names what a scan found.
type Kind string

const (
	None     Kind = ""
	CodeWord Kind = "code_word"
	Distress Kind = "emotion_detected"
)

// Result is the outcome of scanning one message.
type Result struct {
	Kind    Kind
	Keyword string
}

// Matched reports whether anything was detected.
func (r Result) Matched() bool {
	return r.Kind != None
}

// DistressKeywords is the fixed keyword set, in match order.
var DistressKeywords = []string{"scared", "afraid", "help", "emergency", "fear", "terrified", "panic"}

// Detector evaluates messages against a code word and a keyword list.
type Detector struct {
	keywords []string
}

// New returns a Detector using DistressKeywords.
func New() *Detector {
	return &Detector{keywords: append([]string(nil), DistressKeywords...)}
}

// Evaluate checks the code word first. A code word hit short-circuits the distress scan.
// A blank code word never matches.
func (d *Detector) Evaluate(text, codeWord string) Result {
	normalized := strings.ToLower(text)

	word := strings.ToLower(strings.TrimSpace(codeWord))
	if word != "" && strings.Contains(normalized, word) {
		return Result{Kind: CodeWord, Keyword: word}
	}

	for _, keyword := range d.keywords {
		if strings.Contains(normalized, keyword) {
			return Result{Kind: Distress, Keyword: keyword}
		}
	}

	return Result{Kind: None}
}

// Evaluate scans text with the default keyword set.
func Evaluate(text, codeWord string) Result {
	return defaultDetector.Evaluate(text, codeWord)
}

var defaultDetector = New()
