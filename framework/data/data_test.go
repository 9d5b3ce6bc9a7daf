package data_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-fuel/framework/data"
)

// roots finds files under a list of package roots, application first.
type roots []string

func (r roots) FindFiles(location, file string) []string {
	var found []string
	for _, root := range r {
		p := filepath.Join(root, location, file)
		if _, err := os.Stat(p); err == nil {
			found = append(found, p)
		}
	}
	return found
}

func write(t *testing.T, root, rel, content string) {
	t.Helper()
	p := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
}

// ── Repository ────────────────────────────────────────────────────────────────

func TestRepository_DotKeys(t *testing.T) {
	r := data.NewRepository(nil)
	r.Set("db.default.host", "localhost").Set("db.default.port", 5432).Set("debug", true)

	assert.Equal(t, "localhost", r.Get("db.default.host", nil))
	assert.Equal(t, 5432, r.Get("db.default.port", nil))
	assert.Equal(t, map[string]any{"host": "localhost", "port": 5432}, r.Get("db.default", nil))
	assert.Equal(t, "fallback", r.Get("db.replica.host", "fallback"))
	assert.Equal(t, "fallback", r.Get("debug.deeper", "fallback"))
	assert.True(t, r.Has("db.default"))
	assert.False(t, r.Has("db.replica"))
	assert.Equal(t, "localhost", r.GetString("db.default.host", ""))
	assert.Equal(t, "none", r.GetString("db.default.port", "none"))
}

func TestRepository_SetReplacesScalarLevel(t *testing.T) {
	r := data.NewRepository(map[string]any{"app": "name"})
	r.Set("app.name", "blog")
	assert.Equal(t, "blog", r.Get("app.name", nil))
}

func TestRepository_DeleteAndMerge(t *testing.T) {
	r := data.NewRepository(nil)
	r.SetMany(map[string]any{"a.b": 1, "a.c": 2, "d": 3})
	r.Delete("a.b").Delete("missing.key")

	assert.Equal(t, map[string]any{"c": 2}, r.Get("a", nil))

	r.Merge(map[string]any{"a": "flat", "e": 5})
	assert.Equal(t, map[string]any{"a": "flat", "d": 3, "e": 5}, r.All())
}

func TestRepository_AllIsACopy(t *testing.T) {
	r := data.NewRepository(map[string]any{"a": 1})
	all := r.All()
	all["b"] = 2
	assert.False(t, r.Has("b"))
}

// ── Config ────────────────────────────────────────────────────────────────────

func TestConfig_EnvironmentOverride(t *testing.T) {
	root := t.TempDir()
	write(t, root, "config/app.yaml", "a: 1\nb: 2\n")
	write(t, root, "config/production/app.yaml", "b: 3\nc: 4\n")

	c := data.NewConfig().Bind(roots{root}, "production")
	require.NoError(t, c.Load("app.yaml"))

	assert.Equal(t, map[string]any{"a": 1, "b": 3, "c": 4}, c.All())
}

func TestConfig_ApplicationOverridesPackages(t *testing.T) {
	appRoot, pkgRoot := t.TempDir(), t.TempDir()
	write(t, pkgRoot, "config/db.json", `{"driver": "sqlite", "pool": 4}`)
	write(t, appRoot, "config/db.json", `{"driver": "postgres"}`)

	c := data.NewConfig().Bind(roots{appRoot, pkgRoot}, "")
	require.NoError(t, c.Load("db.json"))

	assert.Equal(t, "postgres", c.Get("driver", nil))
	assert.Equal(t, float64(4), c.Get("pool", nil))
	assert.Equal(t, []string{
		filepath.Join(pkgRoot, "config/db.json"),
		filepath.Join(appRoot, "config/db.json"),
	}, c.Loaded())
}

func TestConfig_ShallowMerge(t *testing.T) {
	root := t.TempDir()
	write(t, root, "config/app.yaml", "db:\n  host: localhost\n  port: 5432\n")
	write(t, root, "config/test/app.yaml", "db:\n  host: test-db\n")

	c := data.NewConfig().Bind(roots{root}, "test")
	require.NoError(t, c.Load("app.yaml"))

	assert.Equal(t, "test-db", c.Get("db.host", nil))
	assert.False(t, c.Has("db.port"))
}

func TestConfig_WithoutExtension(t *testing.T) {
	root := t.TempDir()
	write(t, root, "config/mail.yml", "from: noreply@example.com\n")

	c := data.NewConfig().Bind(roots{root}, "")
	require.NoError(t, c.Load("mail"))
	assert.Equal(t, "noreply@example.com", c.Get("from", nil))
}

func TestConfig_MissingFileIsNotAnError(t *testing.T) {
	c := data.NewConfig().Bind(roots{t.TempDir()}, "development")
	require.NoError(t, c.Load("config.yaml"))
	assert.Empty(t, c.All())
}

func TestConfig_BrokenFile(t *testing.T) {
	root := t.TempDir()
	write(t, root, "config/app.yaml", "a: [unclosed\n")

	err := data.NewConfig().Bind(roots{root}, "").Load("app.yaml")
	assert.Error(t, err)
}

func TestConfig_Unbound(t *testing.T) {
	assert.Error(t, data.NewConfig().Load("app.yaml"))
}

func TestReadFile_UnsupportedFormat(t *testing.T) {
	root := t.TempDir()
	write(t, root, "config.ini", "a=1")

	_, err := data.ReadFile(filepath.Join(root, "config.ini"))
	assert.True(t, errors.Is(err, data.ErrUnsupportedFormat))
}

// ── Language ──────────────────────────────────────────────────────────────────

// upper is a parser that upper-cases the template and appends the values.
type upper struct{}

func (upper) ParseString(tpl string, values map[string]any) (string, error) {
	out := strings.ToUpper(tpl)
	if name, ok := values["Name"].(string); ok {
		out += " " + name
	}
	return out, nil
}

func TestLanguage_LoadDefaultAndExplicit(t *testing.T) {
	root := t.TempDir()
	write(t, root, "language/en/blog.yaml", "greeting: Hello\nbye: Goodbye\n")
	write(t, root, "language/nl/blog.yaml", "greeting: Hallo\n")

	en := data.NewLanguage().Bind(roots{root}, "en")
	require.NoError(t, en.Load("blog.yaml", ""))
	assert.Equal(t, "Hello", en.Get("greeting", nil))

	nl := data.NewLanguage().Bind(roots{root}, "en")
	require.NoError(t, nl.Load("blog.yaml", "nl"))
	assert.Equal(t, "Hallo", nl.Get("greeting", nil))
	assert.False(t, nl.Has("bye"))
}

func TestLanguage_Parse(t *testing.T) {
	l := data.NewLanguage()
	l.Set("blog.greeting", "hello")

	got, err := l.Parse("blog.greeting", nil, "")
	require.NoError(t, err)
	assert.Equal(t, "hello", got, "without parser the line is returned as is")

	l.SetParser(upper{})
	got, err = l.Parse("blog.greeting", map[string]any{"Name": "Ada"}, "")
	require.NoError(t, err)
	assert.Equal(t, "HELLO Ada", got)

	got, err = l.Parse("blog.missing", nil, "fallback")
	require.NoError(t, err)
	assert.Equal(t, "fallback", got)
}
