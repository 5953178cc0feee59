package container

import (
	"context"
	"fmt"
	"io"
	"log"

	"heartdash/adapters/source"
	"heartdash/internal/config"
	"heartdash/internal/dashboard"
	"heartdash/internal/narrative"
	"heartdash/ports"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config

	// Infrastructure
	Source ports.RecordSource
	closer io.Closer

	// Dashboard
	Layout   *dashboard.Layout
	Library  *narrative.Library
	Renderer *dashboard.Renderer
}

// New builds the record source, layout and renderer described by cfg
func New(ctx context.Context, cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	c := &Container{Config: cfg}

	if err := c.initDashboard(); err != nil {
		return nil, fmt.Errorf("failed to initialize dashboard: %w", err)
	}
	if err := c.initSource(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize data source: %w", err)
	}

	log.Printf("Container initialized: source %s, %d sections", c.Source.Describe(), len(c.Layout.Sections))
	return c, nil
}

// initDashboard loads the layout (embedded unless LAYOUT_FILE is set) and the
// narrative library
func (c *Container) initDashboard() error {
	var err error
	if c.Config.Dashboard.LayoutFile != "" {
		log.Printf("Using dashboard layout %s", c.Config.Dashboard.LayoutFile)
		c.Layout, err = dashboard.LoadLayoutFile(c.Config.Dashboard.LayoutFile)
	} else {
		c.Layout, err = dashboard.DefaultLayout()
	}
	if err != nil {
		return err
	}

	if c.Library, err = narrative.Default(); err != nil {
		return err
	}
	c.Renderer, err = dashboard.NewRenderer(c.Layout, c.Library)
	return err
}

// initSource opens the configured record source. The file is not read here;
// every render reads it again.
func (c *Container) initSource(ctx context.Context) error {
	src, closer, err := source.Open(ctx, c.Config.Data, c.Config.Database)
	if err != nil {
		return err
	}
	c.Source = src
	c.closer = closer
	return nil
}

// Shutdown releases the source connection, if any
func (c *Container) Shutdown(ctx context.Context) error {
	if c.closer == nil {
		return nil
	}
	if err := c.closer.Close(); err != nil {
		return fmt.Errorf("failed to close data source: %w", err)
	}
	return nil
}
