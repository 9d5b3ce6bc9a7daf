package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/km-arc/go-fuel/framework/app"
	"github.com/km-arc/go-fuel/framework/config"
	"github.com/km-arc/go-fuel/framework/controller"
	fhttp "github.com/km-arc/go-fuel/framework/http"
	"github.com/km-arc/go-fuel/framework/http/validation"
	"github.com/km-arc/go-fuel/framework/kernel"
	"github.com/km-arc/go-fuel/framework/loader"
	"github.com/km-arc/go-fuel/framework/logger"
	"github.com/km-arc/go-fuel/framework/server"
)

func main() {
	cfg := config.Load() // loads .env automatically
	log := logger.New(logger.Options{Level: cfg.Log.Level, Format: cfg.Log.Format}, logger.RequestID())
	slog.SetDefault(log)

	env, err := kernel.Boot(kernel.Options(cfg, log))
	if err != nil {
		log.Error("boot failed", slog.Any("error", err))
		os.Exit(1)
	}

	site, err := env.LoadApplication(config.Get("FUEL_APP", "welcome"), nil)
	if err != nil {
		log.Error("application not loaded", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(server.WithLogger(log))
	srv.Static("/assets", config.Get("FUEL_ASSETS", "./public/assets"))
	srv.Mount("/", site)

	if err := srv.Run(ctx, ":"+cfg.App.Port); err != nil {
		log.Error("server stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

// ── Demo application ─────────────────────────────────────────────────────────

func init() {
	loader.RegisterManifest("welcome", loader.ManifestFunc(func(path string) loader.Loadable {
		return loader.NewPackage().
			SetPath(path).
			SetNamespace("Welcome").
			Define(loader.ApplicationFile, nil).
			Define("classes/Application", func(...any) (any, error) { return welcomeApp{}, nil }).
			Define("classes/Controller/Welcome", func(...any) (any, error) { return &welcomeController{}, nil })
	}))
}

type welcomeApp struct {
	app.BaseDefinition
}

func (welcomeApp) Router(a *app.Application) error {
	if _, err := a.AddRouteString("home", "/", "welcome", http.MethodGet); err != nil {
		return err
	}
	// POST /signup
	_, err := a.AddRouteString("signup", "POST signup", "welcome/signup")
	return err
}

type welcomeController struct {
	controller.Base
}

// GET /
func (c *welcomeController) ActionIndex() string {
	return "Welcome to go-fuel!"
}

// GET /welcome/hello/<name>
func (c *welcomeController) ActionHello(name string) string {
	if name == "" {
		name = "stranger"
	}
	return "Hello, " + name
}

// POST /signup
func (c *welcomeController) ActionSignup() (any, error) {
	v := validation.FromInput(c.Input(), validation.Rules{
		"name":  "required|min:2|max:100",
		"email": "required|email",
		"age":   "required|numeric|gte:18",
	}).WithLines(c.App().Language())

	if v.Fails() {
		// 422 {"errors": {"field": ["msg"]}}
		return v.Errors().Response()
	}

	return fhttp.NewJSONResponse(http.StatusCreated, map[string]string{
		"name":  c.Input().Param("name"),
		"email": c.Input().Param("email"),
	})
}
