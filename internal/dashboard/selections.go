package dashboard

import (
	"net/url"
	"strings"

	"heartdash/domain/core"
)

// SubmittedParam marks a query string produced by the dashboard form
const SubmittedParam = "submitted"

// Selections maps a section id to the variable keys chosen for it, in order.
// A section with no entry renders nothing.
type Selections map[string][]string

// SelectionsFromQuery resolves the selections of every selectable section
// from a query string. On a first visit an absent parameter means the
// section default. Once the form has been submitted, an absent parameter
// means nothing is selected (an empty multiselect sends no values).
// Repeated keys are collapsed keeping the first occurrence. Keys are not
// checked against the options here; unknown keys are rejected by the panel.
func SelectionsFromQuery(layout *Layout, query url.Values) Selections {
	submitted := query.Get(SubmittedParam) == "1"

	sel := make(Selections)
	for _, s := range layout.Sections {
		if !s.Kind.Selectable() {
			continue
		}
		raw, present := query[s.ID]
		if !present && !submitted {
			sel[s.ID] = append([]string(nil), s.Default...)
			continue
		}
		sel[s.ID] = dedupe(raw)
	}
	return sel
}

// Query encodes selections so that SelectionsFromQuery reproduces them
func (s Selections) Query() url.Values {
	q := url.Values{}
	q.Set(SubmittedParam, "1")
	for id, keys := range s {
		for _, k := range keys {
			q.Add(id, k)
		}
	}
	return q
}

func dedupe(raw []string) []string {
	seen := make(map[string]bool, len(raw))
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		key, err := core.ParseVariableKey(r)
		if err != nil {
			continue
		}
		k := key.String()
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	return out
}

// ParseSelection splits a comma separated list, as accepted by the CLI
func ParseSelection(list string) []string {
	if strings.TrimSpace(list) == "" {
		return []string{}
	}
	return dedupe(strings.Split(list, ","))
}
