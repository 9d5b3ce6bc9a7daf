package data

import (
	"log/slog"
	"path"

	"github.com/km-arc/go-fuel/framework/app"
)

// Config is the configuration of an application.
//
// Load merges every config/<file> found in the application and its packages,
// packages first, then the overrides in config/<environment>/<file>. Merging
// is shallow: a top-level key from a later file replaces the earlier value.
type Config struct {
	*Repository

	finder      FileFinder
	environment string
	log         *slog.Logger
	loaded      []string
}

// NewConfig creates an empty configuration.
func NewConfig() *Config {
	return &Config{Repository: NewRepository(nil), log: slog.Default()}
}

// SetApplication implements app.ApplicationAware.
func (c *Config) SetApplication(a *app.Application) {
	c.Bind(a, a.Environment().Name())
	c.log = a.Logger()
}

// Bind sets where files are found and which environment overrides apply.
func (c *Config) Bind(finder FileFinder, environment string) *Config {
	c.finder = finder
	c.environment = environment
	return c
}

// Load implements app.Configurable. Finding no file is not an error.
func (c *Config) Load(file string) error {
	if c.finder == nil {
		return app.ErrNotInitialized
	}

	files := findAll(c.finder, "config", file)
	if c.environment != "" {
		files = append(files, findAll(c.finder, path.Join("config", c.environment), file)...)
	}

	for _, f := range files {
		values, err := ReadFile(f)
		if err != nil {
			return err
		}
		c.Merge(values)
		c.loaded = append(c.loaded, f)
		c.log.Debug("config loaded", slog.String("file", f))
	}
	return nil
}

// Loaded returns the files merged so far, in merge order.
func (c *Config) Loaded() []string { return append([]string(nil), c.loaded...) }

var _ app.Configurable = (*Config)(nil)
