package model

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var ErrUnknownLabel = errors.New("unknown routine label")

var labelSepRe = regexp.MustCompile(`[^a-z0-9]+`)

// labelKey folds case and separators so "post lunch", "POST_LUNCH" and
// "Post-Lunch" share a key.
func labelKey(s string) string {
	return labelSepRe.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), "")
}

var labelIndex = func() map[string]RoutineLabel {
	m := make(map[string]RoutineLabel, len(Labels))
	for _, l := range Labels {
		m[labelKey(string(l))] = l
	}
	return m
}()

// ParseLabel maps free-form text (typically from a voice agent) onto a
// RoutineLabel.
func ParseLabel(s string) (RoutineLabel, error) {
	key := labelKey(s)
	if key == "" {
		return "", fmt.Errorf("%w: empty", ErrUnknownLabel)
	}
	if l, ok := labelIndex[key]; ok {
		return l, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownLabel, s)
}

// LabelNames returns the labels as plain strings, for enum schemas.
func LabelNames() []string {
	out := make([]string, 0, len(Labels))
	for _, l := range Labels {
		out = append(out, string(l))
	}
	return out
}
