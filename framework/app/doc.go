// Package app holds the runtime contexts of the kernel: the Environment every
// application shares, the Applications loaded into it and the Requests they
// execute.
//
// # Environment
//
// The environment is created once per process and initialized with the path
// packages are loaded from. Init loads the "kernel" core package, which sets
// the root container translations every application inherits.
//
//	env := app.NewEnvironment()
//	err := env.Init(app.Options{
//	    Name: "production",
//	    Path: "/srv/fuel",
//	    Environments: map[string]app.EnvironmentCallback{
//	        "production": func(env *app.Environment) func(*app.Environment) {
//	            env.SetDebug(false)
//	            return nil
//	        },
//	    },
//	})
//
// # Applications
//
// An application is a package loaded with loader.RankApp. Its definition
// class (by default "<name>.Application") lists the packages it needs and
// registers its routes.
//
//	blog, err := env.LoadApplication("blog", nil)
//	req, err := blog.Request("/posts/12", nil)
//	err = blog.Execute()
//	res := blog.Response()
//
// # Activation
//
// The environment knows one active application and each application one
// active request. Activation is strictly nested: Activate returns a Release
// that restores the previous one, and Run wraps a function between both.
//
//	err := blog.Run(func() error {
//	    sub, err := container.ForgeAs[*app.Request](blog.Container(), "Request", "/widgets/latest")
//	    if err != nil {
//	        return err
//	    }
//	    return sub.Execute()
//	})
//
// Deactivating without a matching Activate returns ErrContextUnderflow.
package app
