// Package kernel is the core package every environment loads first.
//
// Importing it registers the "kernel" manifest. Once loaded, the root
// container translates the framework's class names onto the kernel classes:
//
//	Request         → Kernel.Request            (*app.Request)
//	Route           → Kernel.Route              (*routing.Route)
//	Response        → Kernel.Response           (*http.Response)
//	Config          → Kernel.Data.Config        (*data.Config)
//	Language        → Kernel.Data.Language      (*data.Language)
//	Parser          → Kernel.Parser.Template    (*view.Template)
//	Security_String → Kernel.Security.String.Htmlentities
//
// An application replaces any of them in its own container, from Setup:
//
//	a.Container().SetClass("Parser", "Kernel.Parser.Markdown")
//
// Boot and Dispatch cover the usual front controller:
//
//	env, err := kernel.Boot(kernel.Options(config.Load(), log))
//	blog, err := env.LoadApplication("blog", nil)
//	res := kernel.Dispatch(ctx, blog, "/posts/42", nil)
package kernel
