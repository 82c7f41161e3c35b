package schedule

import "strings"

// SplitLines splits pasted text into trimmed, non-empty lines.
func SplitLines(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}

// ParseCSVNames takes the first comma-separated field of every non-empty line
// as a participant name. Remaining fields (e.g. an email column) are dropped.
func ParseCSVNames(text string) []string {
	var out []string
	for _, line := range SplitLines(text) {
		name, _, _ := strings.Cut(line, ",")
		name = strings.TrimSpace(name)
		if name != "" {
			out = append(out, name)
		}
	}
	return out
}

// NewNames filters candidates down to names that are neither already used by
// an existing participant nor repeated earlier in the batch. Comparison is
// exact and case-sensitive. Input order is preserved.
func NewNames(existing []Participant, candidates []string) []string {
	seen := make(map[string]struct{}, len(existing)+len(candidates))
	for _, p := range existing {
		seen[p.Name] = struct{}{}
	}

	var out []string
	for _, name := range candidates {
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}
