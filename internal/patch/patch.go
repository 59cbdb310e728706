// Package patch applies ordered transform steps to the text of one file.
//
// A step either changes the text, reports that there was nothing to do, or
// fails. Apply stops at the first failure and hands back the untouched input,
// so a file is written only when every required step succeeded.
package patch

import (
	"fmt"
)

// Step is one transformation of a file's text.
type Step interface {
	Describe() string
	Apply(text string) (string, Outcome, error)
}

// Outcome records what a step did.
type Outcome struct {
	Step     string
	Changed  bool
	Note     string
	Count    int
	Warnings []string
}

// Apply runs steps in order. On error the original text is returned together
// with the outcomes of the steps that ran before the failing one.
func Apply(text string, steps []Step) (string, []Outcome, error) {
	cur := text
	outcomes := make([]Outcome, 0, len(steps))
	for _, s := range steps {
		next, out, err := s.Apply(cur)
		if err != nil {
			return text, outcomes, fmt.Errorf("%s: %w", s.Describe(), err)
		}
		if out.Step == "" {
			out.Step = s.Describe()
		}
		outcomes = append(outcomes, out)
		cur = next
	}
	return cur, outcomes, nil
}

// Changed reports whether any outcome changed the text.
func Changed(outcomes []Outcome) bool {
	for _, o := range outcomes {
		if o.Changed {
			return true
		}
	}
	return false
}

func note(custom, fallback string) string {
	if custom != "" {
		return custom
	}
	return fallback
}
