package kernel

import (
	"context"
	"log/slog"

	"github.com/km-arc/go-fuel/framework/app"
	"github.com/km-arc/go-fuel/framework/config"
	fhttp "github.com/km-arc/go-fuel/framework/http"
)

// Options converts the bootstrap configuration into environment options.
func Options(cfg *config.Config, log *slog.Logger) app.Options {
	return app.Options{
		Name:     cfg.App.Env,
		Path:     cfg.App.Path,
		BaseURL:  cfg.App.BaseURL,
		Language: cfg.App.Language,
		Locale:   cfg.App.Locale,
		Timezone: cfg.App.Timezone,
		Encoding: cfg.App.Encoding,
		Debug:    cfg.App.Debug,
		Packages: cfg.App.Packages,
		Logger:   log,
	}
}

// Boot creates an environment and initializes it; the kernel package is
// loaded first, then opts.Packages.
//
//	env, err := kernel.Boot(kernel.Options(config.Load(), log))
//	blog, err := env.LoadApplication("blog", nil)
func Boot(opts app.Options) (*app.Environment, error) {
	env := app.NewEnvironment()
	if err := env.Init(opts); err != nil {
		return nil, err
	}
	return env, nil
}

// Dispatch runs uri through a as its main request and always returns a
// response: errors escaping the request are rendered by the application's
// error handler. ctx is handed to the request for controllers to use.
func Dispatch(ctx context.Context, a *app.Application, uri string, input *fhttp.Input) fhttp.Responsible {
	req, err := a.Request(uri, input)
	if err == nil {
		req.SetContext(ctx)
		err = a.Execute()
	}
	if err != nil {
		return a.ErrorHandler().Handle(err)
	}
	return req.Response()
}
