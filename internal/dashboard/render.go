package dashboard

import (
	"context"
	"fmt"
	"html/template"
	"log"
	"math"
	"runtime"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"heartdash/domain/core"
	"heartdash/domain/patient"
	"heartdash/internal/charts"
	"heartdash/internal/cluster"
	"heartdash/internal/errors"
	"heartdash/internal/narrative"
	"heartdash/internal/profiling"
)

// ClusterChartKey addresses the cluster-count chart of a clustering section
const ClusterChartKey = "counts"

// Renderer evaluates a layout against a patient table. It holds no state
// between renders and is safe for concurrent use.
type Renderer struct {
	layout  *Layout
	library *narrative.Library
}

// NewRenderer checks that every narrative the layout references exists
func NewRenderer(layout *Layout, library *narrative.Library) (*Renderer, error) {
	for _, s := range layout.Sections {
		for _, name := range []string{s.Narrative, s.Before, s.After} {
			if name == "" {
				continue
			}
			if _, err := library.Get(name); err != nil {
				return nil, errors.WithCode(errors.CodeConfigInvalid, errors.Wrapf(err, "section %q", s.ID))
			}
		}
	}
	return &Renderer{layout: layout, library: library}, nil
}

// Layout returns the layout being rendered
func (r *Renderer) Layout() *Layout {
	return r.layout
}

// Render evaluates every section in layout order. Sections are independent
// and rendered concurrently; a failing section carries its own error and
// does not fail the render. Only cancellation of ctx does.
func (r *Renderer) Render(ctx context.Context, table *patient.Table, sel Selections) (*View, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	view := &View{
		RenderID: core.NewRenderID(),
		Title:    r.layout.Title,
		Rows:     table.Len(),
		Sections: make([]SectionView, len(r.layout.Sections)),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := range r.layout.Sections {
		i := i
		section := &r.layout.Sections[i]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			view.Sections[i] = r.renderSection(table, section, sel[section.ID])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	view.DurationMs = float64(time.Since(start).Nanoseconds()) / 1e6
	log.Printf("[Render] %s: %d sections, %d charts over %d rows in %.2fms",
		view.RenderID, len(view.Sections), view.Charts(), view.Rows, view.DurationMs)
	return view, nil
}

// Clusters runs the clustering section on its own
func (r *Renderer) Clusters(table *patient.Table) (*ClusterSummary, error) {
	section, err := r.layout.ClusterSection()
	if err != nil {
		return nil, err
	}
	summary, _, err := r.clusters(table, section)
	return summary, err
}

// Chart renders a single chart addressed by section id and variable key. The
// clustering section exposes its bar chart under ClusterChartKey.
func (r *Renderer) Chart(table *patient.Table, sectionID, key string) (*charts.Chart, error) {
	section, err := r.layout.Section(sectionID)
	if err != nil {
		return nil, err
	}

	switch {
	case section.Kind == KindClusters:
		if key != ClusterChartKey {
			return nil, errors.NotFound(fmt.Sprintf("chart %q in section %q", key, sectionID))
		}
		_, chart, err := r.clusters(table, section)
		return chart, err
	case section.Kind.Selectable():
		opt, ok := section.Option(key)
		if !ok {
			return nil, errors.NotFound(fmt.Sprintf("chart %q in section %q", key, sectionID))
		}
		chart, _, err := r.plot(table, section, opt)
		return chart, err
	default:
		return nil, errors.NotFound(fmt.Sprintf("charts in section %q", sectionID))
	}
}

func (r *Renderer) renderSection(table *patient.Table, s *Section, keys []string) SectionView {
	sv := SectionView{
		ID:      s.ID,
		Kind:    s.Kind,
		Heading: s.Heading,
		Prompt:  s.Prompt,
		Before:  r.narrative(s.Before),
		After:   r.narrative(s.After),
	}

	var err error
	switch s.Kind {
	case KindMarkdown:
		sv.Body = r.narrative(s.Narrative)
	case KindClusters:
		sv.Clusters, _, err = r.clusters(table, s)
	default:
		sv.Options = optionViews(s, keys)
		sv.Charts, err = r.panel(table, s, keys)
	}

	if err != nil {
		sv.Error = err.Error()
		sv.Code = errors.GetCode(err)
		log.Printf("[Render] Section %s failed: %v", s.ID, err)
	}
	return sv
}

func (r *Renderer) narrative(name string) template.HTML {
	if name == "" {
		return ""
	}
	doc, err := r.library.Get(name)
	if err != nil {
		return ""
	}
	return doc.HTML
}

// panel renders one chart per selected key, in selection order. A key that
// is not one of the section's options fails the whole panel.
func (r *Renderer) panel(table *patient.Table, s *Section, keys []string) ([]ChartView, error) {
	selected := make([]Option, 0, len(keys))
	for _, key := range keys {
		opt, ok := s.Option(key)
		if !ok {
			return nil, errors.InvalidInput(fmt.Sprintf("%q is not a selectable variable", key))
		}
		selected = append(selected, opt)
	}

	views := make([]ChartView, 0, len(selected))
	for _, opt := range selected {
		chart, view, err := r.plot(table, s, opt)
		if err != nil {
			return nil, err
		}
		view.Image = chart.DataURI()
		views = append(views, view)
	}
	return views, nil
}

func (r *Renderer) plot(table *patient.Table, s *Section, opt Option) (*charts.Chart, ChartView, error) {
	view := ChartView{Key: opt.Key, Title: opt.Title, Column: opt.Key}

	required := []string{opt.Key}
	if s.Kind == KindScatter {
		required = append(required, s.Target)
	}
	if err := table.Require(required...); err != nil {
		return nil, view, errors.Wrapf(err, "cannot plot %s", opt.Title)
	}

	values, err := table.Numeric(opt.Key)
	if err != nil {
		return nil, view, errors.Wrapf(err, "cannot plot %s", opt.Title)
	}
	summary, err := profiling.Summarize(values)
	if err != nil {
		return nil, view, errors.Wrapf(err, "cannot plot %s", opt.Title)
	}
	view.Summary = &summary

	color := opt.Color
	if color == "" {
		color = s.Color
	}
	o := charts.Options{Title: opt.Title, Color: color, Size: r.layout.ChartSize}

	var chart *charts.Chart
	switch s.Kind {
	case KindHistogram:
		kept, _ := profiling.DropMissing(values)
		o.XLabel, o.YLabel = opt.Key, "Count"
		view.Points = len(kept)
		chart, err = charts.Histogram(kept, s.Bins, o)
	case KindBoxplot:
		kept, _ := profiling.DropMissing(values)
		o.YLabel = opt.Key
		view.Points = len(kept)
		chart, err = charts.BoxPlot(kept, o)
	case KindScatter:
		target, terr := table.Numeric(s.Target)
		if terr != nil {
			return nil, view, errors.Wrapf(terr, "cannot plot %s", opt.Title)
		}
		xs, ys := completePairs(values, target)
		o.XLabel, o.YLabel = opt.Key, s.Target
		view.Points = len(xs)
		chart, err = charts.Scatter(xs, ys, o)
	default:
		return nil, view, errors.InvalidInput(fmt.Sprintf("section kind %q has no charts", s.Kind))
	}
	if err != nil {
		return nil, view, errors.Wrapf(err, "cannot plot %s", opt.Title)
	}
	return chart, view, nil
}

func (r *Renderer) clusters(table *patient.Table, s *Section) (*ClusterSummary, *charts.Chart, error) {
	spec := s.Clusters
	result, err := cluster.Run(table, spec.Features, spec.KMeans)
	if err != nil {
		return nil, nil, err
	}
	profiles, err := result.Profiles()
	if err != nil {
		return nil, nil, err
	}

	labels := make([]string, result.K)
	counts := make([]float64, result.K)
	for c := range labels {
		labels[c] = strconv.Itoa(c)
		counts[c] = float64(result.Counts[c])
	}
	chart, err := charts.Bars(labels, counts, spec.Palette, charts.Options{
		Title:  spec.Title,
		XLabel: spec.XLabel,
		YLabel: spec.YLabel,
		Size:   r.layout.ChartSize,
	})
	if err != nil {
		return nil, nil, errors.Wrap(err, "cannot plot cluster counts")
	}

	summary := summarizeClusters(result, profiles)
	summary.Chart = &ChartView{
		Key:    ClusterChartKey,
		Title:  spec.Title,
		Column: patient.ColCluster,
		Points: result.Total(),
		Image:  chart.DataURI(),
	}
	return summary, chart, nil
}

func optionViews(s *Section, selected []string) []OptionView {
	views := make([]OptionView, len(s.Options))
	for i, opt := range s.Options {
		views[i] = OptionView{Key: opt.Key, Label: opt.DisplayLabel()}
		for _, key := range selected {
			if key == opt.Key {
				views[i].Selected = true
				break
			}
		}
	}
	return views
}

// completePairs keeps the rows where both values are present
func completePairs(x, y []float64) ([]float64, []float64) {
	xs := make([]float64, 0, len(x))
	ys := make([]float64, 0, len(x))
	for i := range x {
		if i >= len(y) || math.IsNaN(x[i]) || math.IsNaN(y[i]) {
			continue
		}
		xs = append(xs, x[i])
		ys = append(ys, y[i])
	}
	return xs, ys
}
