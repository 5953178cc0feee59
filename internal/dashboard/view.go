package dashboard

import (
	"html/template"

	"heartdash/domain/core"
	"heartdash/internal/cluster"
	"heartdash/internal/profiling"
)

// View is one complete evaluation of the dashboard
type View struct {
	RenderID   core.RenderID `json:"render_id"`
	Title      string        `json:"title"`
	Source     string        `json:"source,omitempty"`
	Rows       int           `json:"rows"`
	Sections   []SectionView `json:"sections"`
	DurationMs float64       `json:"duration_ms"`
}

// Charts counts the charts rendered across all sections
func (v *View) Charts() int {
	n := 0
	for _, s := range v.Sections {
		n += len(s.Charts)
		if s.Clusters != nil && s.Clusters.Chart != nil {
			n++
		}
	}
	return n
}

// Section returns the rendered section with the given id, or nil
func (v *View) Section(id string) *SectionView {
	for i := range v.Sections {
		if v.Sections[i].ID == id {
			return &v.Sections[i]
		}
	}
	return nil
}

// SectionView is a rendered section. Error is set when the section could not
// be rendered; the rest of the page is unaffected.
type SectionView struct {
	ID       string          `json:"id"`
	Kind     Kind            `json:"kind"`
	Heading  string          `json:"heading,omitempty"`
	Prompt   string          `json:"prompt,omitempty"`
	Body     template.HTML   `json:"-"`
	Before   template.HTML   `json:"-"`
	After    template.HTML   `json:"-"`
	Options  []OptionView    `json:"options,omitempty"`
	Charts   []ChartView     `json:"charts,omitempty"`
	Clusters *ClusterSummary `json:"clusters,omitempty"`
	Error    string          `json:"error,omitempty"`
	Code     string          `json:"code,omitempty"`
}

// Selectable reports whether the section shows a selection widget
func (s SectionView) Selectable() bool {
	return s.Kind.Selectable()
}

// OptionView is one choice of a selection widget
type OptionView struct {
	Key      string `json:"key"`
	Label    string `json:"label"`
	Selected bool   `json:"selected"`
}

// ChartView is one rendered chart
type ChartView struct {
	Key     string             `json:"key"`
	Title   string             `json:"title"`
	Column  string             `json:"column"`
	Points  int                `json:"points"`
	Image   template.URL       `json:"-"`
	Summary *profiling.Summary `json:"summary,omitempty"`
}

// ClusterSummary is the clustering panel's output
type ClusterSummary struct {
	Features   []string          `json:"features"`
	K          int               `json:"k"`
	Seed       int64             `json:"seed"`
	Counts     []int             `json:"counts"`
	Total      int               `json:"total"`
	Inertia    float64           `json:"inertia"`
	Iterations int               `json:"iterations"`
	Profiles   []cluster.Profile `json:"profiles"`
	Chart      *ChartView        `json:"-"`
}

func summarizeClusters(result *cluster.Result, profiles []cluster.Profile) *ClusterSummary {
	return &ClusterSummary{
		Features:   result.Features,
		K:          result.K,
		Seed:       result.Seed,
		Counts:     result.Counts,
		Total:      result.Total(),
		Inertia:    result.Inertia,
		Iterations: result.Iterations,
		Profiles:   profiles,
	}
}
