package loader_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-fuel/framework/loader"
)

func newPackage(ns string) (*loader.Package, *loader.Registry) {
	reg := loader.NewRegistry()
	pkg := loader.NewPackage().SetNamespace(ns)
	pkg.SetRegistry(reg)
	return pkg, reg
}

// ── Class conventions ─────────────────────────────────────────────────────────

func TestPackage_LoadClassConventions(t *testing.T) {
	pkg, reg := newPackage("App")
	pkg.Define("classes/Controller/Blog", returns("blog")).
		Define("classes/Controller/Blog/Archive", returns("archive")).
		AddModule("admin", "Admin").
		Define("modules/admin/classes/Controller/Users", returns("users"))

	tests := []struct {
		class string
		want  bool
	}{
		{"App.Controller.Blog", true},
		{"App.Controller.Blog_Archive", true},
		{"app.controller.blog_archive", true},
		{"App.Admin.Controller.Users", true},
		{"App.Controller.Users", false},
		{"Other.Controller.Blog", false},
		{"App.Controller.Missing", false},
	}
	for _, tt := range tests {
		t.Run(tt.class, func(t *testing.T) {
			assert.Equal(t, tt.want, pkg.LoadClass(tt.class))
			assert.Equal(t, tt.want, reg.Exists(tt.class))
		})
	}
}

func TestPackage_NoNamespaceClaimsNothing(t *testing.T) {
	pkg, _ := newPackage("")
	pkg.Define("classes/Widget", returns("widget"))

	assert.False(t, pkg.LoadClass("Widget"))

	pkg.AddClass("Widget", "classes/Widget")
	assert.True(t, pkg.LoadClass("Widget"))

	pkg.RemoveClass("widget")
	assert.False(t, pkg.LoadClass("Widget"))
}

func TestPackage_RemoveModule(t *testing.T) {
	pkg, _ := newPackage("App")
	pkg.AddModule("admin", "Admin").Define("modules/admin/classes/Dashboard", returns("dash"))
	require.True(t, pkg.LoadClass("App.Admin.Dashboard"))

	pkg.RemoveModule("admin")
	assert.False(t, pkg.LoadClass("App.Admin.Dashboard"))
}

func TestPackage_Require(t *testing.T) {
	pkg, _ := newPackage("App")
	ran := false
	pkg.AddSource("application", loader.Source{Init: func() { ran = true }})

	assert.True(t, pkg.Require("Application"))
	assert.True(t, ran)
	assert.False(t, pkg.Require("missing"))
}

// ── Routable lookups ──────────────────────────────────────────────────────────

func TestPackage_FindClass(t *testing.T) {
	pkg, _ := newPackage("App")
	pkg.Define("classes/Controller/Blog", returns("blog")).
		Define("classes/Controller/Blog/Archive", returns("archive")).
		AddModule("admin", "Admin").
		Define("modules/admin/classes/Controller/Users", returns("users"))

	_, ok := pkg.FindClass("controller", "blog")
	assert.False(t, ok, "not routable yet")

	pkg.SetRoutable(true)

	tests := []struct {
		path string
		want string
		ok   bool
	}{
		{"blog", "App.Controller.blog", true},
		{"/blog/archive/", "App.Controller.blog_archive", true},
		{"admin/users", "App.Admin.Controller.users", true},
		{"nope", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, ok := pkg.FindClass("controller", tt.path)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPackage_FindClassTrigger(t *testing.T) {
	pkg, _ := newPackage("Api")
	pkg.Define("classes/Controller/Blog", returns("blog"))
	pkg.SetRouteTrigger("api")

	got, ok := pkg.FindClass("controller", "API/blog")
	require.True(t, ok)
	assert.Equal(t, "Api.Controller.blog", got)

	_, ok = pkg.FindClass("controller", "blog")
	assert.False(t, ok)
}

func TestPackage_ClassTypePrefix(t *testing.T) {
	pkg, _ := newPackage("App")
	assert.Equal(t, "Controller.", pkg.ClassTypePrefix("Controller"))
	assert.Equal(t, "", pkg.ClassTypePrefix("widget"))

	pkg.SetClassTypePrefix("controller", "Http.")
	pkg.Define("classes/Http/Home", returns("home"))
	pkg.SetRoutable(true)

	got, ok := pkg.FindClass("controller", "home")
	require.True(t, ok)
	assert.Equal(t, "App.Http.home", got)
}

// ── Files ─────────────────────────────────────────────────────────────────────

func TestPackage_FindFile(t *testing.T) {
	dir := t.TempDir()
	write := func(rel string) {
		path := filepath.Join(dir, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	}
	write("views/welcome.html")
	write("modules/admin/views/dashboard.html")

	pkg := loader.NewPackage().SetPath(dir).AddModule("admin", "Admin")

	tests := []struct {
		name string
		file string
		want string
	}{
		{"base path", "welcome.html", filepath.Join(dir, "views/welcome.html")},
		{"module fallback", "dashboard.html", filepath.Join(dir, "modules/admin/views/dashboard.html")},
		{"module form", "admin:dashboard.html", filepath.Join(dir, "modules/admin/views/dashboard.html")},
		{"module form miss", "admin:welcome.html", ""},
		{"unknown module", "blog:dashboard.html", ""},
		{"missing", "missing.html", ""},
		{"directory", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := pkg.FindFile("views", tt.file)
			assert.Equal(t, tt.want != "", ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
