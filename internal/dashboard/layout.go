package dashboard

import (
	_ "embed"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"heartdash/internal/charts"
	"heartdash/internal/cluster"
	"heartdash/internal/errors"
)

//go:embed layout.yaml
var defaultLayout string

// Kind selects how a section is rendered
type Kind string

const (
	KindMarkdown  Kind = "markdown"
	KindHistogram Kind = "histogram"
	KindBoxplot   Kind = "boxplot"
	KindScatter   Kind = "scatter"
	KindClusters  Kind = "clusters"
)

// Selectable reports whether sections of this kind take a variable selection
func (k Kind) Selectable() bool {
	switch k {
	case KindHistogram, KindBoxplot, KindScatter:
		return true
	}
	return false
}

// Option is one variable a panel may plot. Key is the column name, Label is
// what the widget shows and Title is the chart title.
type Option struct {
	Key   string `yaml:"key" json:"key"`
	Label string `yaml:"label,omitempty" json:"label"`
	Title string `yaml:"title" json:"title"`
	Color string `yaml:"color,omitempty" json:"color,omitempty"`
}

// DisplayLabel falls back to the column name
func (o Option) DisplayLabel() string {
	if o.Label != "" {
		return o.Label
	}
	return o.Key
}

// ClusterSpec configures the clustering panel
type ClusterSpec struct {
	Features []string             `yaml:"features" json:"features"`
	KMeans   cluster.KMeansConfig `yaml:"kmeans" json:"kmeans"`
	Title    string               `yaml:"title" json:"title"`
	XLabel   string               `yaml:"x_label" json:"x_label"`
	YLabel   string               `yaml:"y_label" json:"y_label"`
	Palette  []string             `yaml:"palette" json:"palette"`
}

// Section is one block of the page, rendered in layout order
type Section struct {
	ID        string       `yaml:"id" json:"id"`
	Kind      Kind         `yaml:"kind" json:"kind"`
	Heading   string       `yaml:"heading,omitempty" json:"heading,omitempty"`
	Prompt    string       `yaml:"prompt,omitempty" json:"prompt,omitempty"`
	Narrative string       `yaml:"narrative,omitempty" json:"narrative,omitempty"`
	Before    string       `yaml:"before,omitempty" json:"before,omitempty"`
	After     string       `yaml:"after,omitempty" json:"after,omitempty"`
	Options   []Option     `yaml:"options,omitempty" json:"options,omitempty"`
	Default   []string     `yaml:"default,omitempty" json:"default,omitempty"`
	Color     string       `yaml:"color,omitempty" json:"color,omitempty"`
	Bins      int          `yaml:"bins,omitempty" json:"bins,omitempty"`
	Target    string       `yaml:"target,omitempty" json:"target,omitempty"`
	Clusters  *ClusterSpec `yaml:"clusters,omitempty" json:"clusters,omitempty"`
}

// Option looks up a selectable variable by key
func (s *Section) Option(key string) (Option, bool) {
	for _, opt := range s.Options {
		if opt.Key == key {
			return opt, true
		}
	}
	return Option{}, false
}

// Layout is the whole dashboard definition
type Layout struct {
	Title     string      `yaml:"title" json:"title"`
	ChartSize charts.Size `yaml:"chart_size" json:"chart_size"`
	Sections  []Section   `yaml:"sections" json:"sections"`
}

// Section returns the section with the given id
func (l *Layout) Section(id string) (*Section, error) {
	for i := range l.Sections {
		if l.Sections[i].ID == id {
			return &l.Sections[i], nil
		}
	}
	return nil, errors.NotFound(fmt.Sprintf("section %q", id))
}

// ClusterSection returns the first clustering section
func (l *Layout) ClusterSection() (*Section, error) {
	for i := range l.Sections {
		if l.Sections[i].Kind == KindClusters {
			return &l.Sections[i], nil
		}
	}
	return nil, errors.NotFound("clustering section")
}

// DefaultSelections returns each selectable panel's default variables
func (l *Layout) DefaultSelections() Selections {
	sel := make(Selections)
	for _, s := range l.Sections {
		if s.Kind.Selectable() {
			sel[s.ID] = append([]string(nil), s.Default...)
		}
	}
	return sel
}

// DefaultLayout returns the layout compiled into the binary
func DefaultLayout() (*Layout, error) {
	return LoadLayout(strings.NewReader(defaultLayout))
}

// LoadLayoutFile reads a layout from disk
func LoadLayoutFile(path string) (*Layout, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(errors.WithCode(errors.CodeConfigInvalid, err), "failed to open layout %s", path)
	}
	defer f.Close()
	return LoadLayout(f)
}

// LoadLayout decodes and validates a YAML layout. Unknown fields are rejected.
func LoadLayout(r io.Reader) (*Layout, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var layout Layout
	if err := dec.Decode(&layout); err != nil {
		return nil, errors.Wrap(errors.WithCode(errors.CodeConfigInvalid, err), "failed to parse layout")
	}
	layout.applyDefaults()
	if err := layout.validate(); err != nil {
		return nil, err
	}
	return &layout, nil
}

func (l *Layout) applyDefaults() {
	if l.ChartSize.Width <= 0 || l.ChartSize.Height <= 0 {
		l.ChartSize = charts.DefaultSize()
	}
	defaults := cluster.DefaultKMeansConfig()
	for i := range l.Sections {
		s := &l.Sections[i]
		if s.Kind == KindHistogram && s.Bins == 0 {
			s.Bins = 30
		}
		if s.Clusters == nil {
			continue
		}
		km := &s.Clusters.KMeans
		if km.K == 0 {
			km.K = defaults.K
		}
		if km.MaxIter == 0 {
			km.MaxIter = defaults.MaxIter
		}
		if km.NInit == 0 {
			km.NInit = defaults.NInit
		}
		if km.Tol == 0 {
			km.Tol = defaults.Tol
		}
		if len(s.Clusters.Features) == 0 {
			s.Clusters.Features = append([]string(nil), cluster.DefaultFeatures...)
		}
	}
}

func (l *Layout) validate() error {
	if len(l.Sections) == 0 {
		return errors.ConfigInvalid("layout has no sections")
	}

	seen := make(map[string]bool, len(l.Sections))
	for i := range l.Sections {
		s := &l.Sections[i]
		if s.ID == "" {
			return errors.ConfigInvalid(fmt.Sprintf("section %d has no id", i))
		}
		if seen[s.ID] {
			return errors.ConfigInvalid(fmt.Sprintf("duplicate section id %q", s.ID))
		}
		seen[s.ID] = true

		if err := s.validate(); err != nil {
			return errors.Wrapf(err, "section %q", s.ID)
		}
	}
	return nil
}

func (s *Section) validate() error {
	switch s.Kind {
	case KindMarkdown:
		if s.Narrative == "" {
			return errors.ConfigInvalid("markdown section needs a narrative")
		}
	case KindHistogram, KindBoxplot, KindScatter:
		return s.validateOptions()
	case KindClusters:
		if s.Clusters == nil {
			return errors.ConfigInvalid("clusters section needs a clusters block")
		}
		if err := s.Clusters.KMeans.Validate(); err != nil {
			return errors.WithCode(errors.CodeConfigInvalid, err)
		}
		for _, c := range s.Clusters.Palette {
			if _, err := charts.ParseHexColor(c); err != nil {
				return errors.WithCode(errors.CodeConfigInvalid, err)
			}
		}
		if len(s.Clusters.Palette) == 0 {
			return errors.ConfigInvalid("clusters section needs a palette")
		}
	default:
		return errors.ConfigInvalid(fmt.Sprintf("unknown kind %q", s.Kind))
	}
	return nil
}

func (s *Section) validateOptions() error {
	if len(s.Options) == 0 {
		return errors.ConfigInvalid("no selectable options")
	}
	if s.Kind == KindScatter && s.Target == "" {
		return errors.ConfigInvalid("scatter section needs a target column")
	}

	keys := make(map[string]bool, len(s.Options))
	for _, opt := range s.Options {
		if opt.Key == "" {
			return errors.ConfigInvalid("option without key")
		}
		if keys[opt.Key] {
			return errors.ConfigInvalid(fmt.Sprintf("duplicate option %q", opt.Key))
		}
		keys[opt.Key] = true

		color := opt.Color
		if color == "" {
			color = s.Color
		}
		if _, err := charts.ParseHexColor(color); err != nil {
			return errors.WithCode(errors.CodeConfigInvalid, fmt.Errorf("option %q: %w", opt.Key, err))
		}
	}

	for _, key := range s.Default {
		if !keys[key] {
			return errors.ConfigInvalid(fmt.Sprintf("default %q is not an option", key))
		}
	}
	return nil
}
