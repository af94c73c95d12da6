package internal

import (
	"fmt"

	"github.com/starford/insights/internal/insightservice"
)

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config   *Config
	version  string
	analyzer insightservice.Analyzer
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithVersion sets the version reported by the MCP server.
func WithVersion(v string) Option {
	return func(a *application) {
		a.version = v
	}
}

// WithAnalyzer plugs in the AI collaborator used by Service.Analyze.
// Without one, only pre-analyzed interviews can be ingested.
func WithAnalyzer(an insightservice.Analyzer) Option {
	return func(a *application) {
		a.analyzer = an
	}
}

func newApplication(opts []Option) (*application, error) {
	app := &application{version: "dev"}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	return app, nil
}
