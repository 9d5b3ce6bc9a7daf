// Package container provides the dependency injection container shared by the
// environment and every application.
//
// # Overview
//
// A container translates classnames and keeps named instances. Classes are
// plain constructors looked up through a ClassResolver (normally the Loader,
// which autoloads packages on a miss). Each application owns a container
// chained to the environment's root container, so any lookup that misses
// locally falls back on the root.
//
// # Translation
//
//	root := container.New(loader, env, nil)
//	root.SetClasses(map[string]string{
//	    "Request":         "Kernel.Request",
//	    "Security_String": "Kernel.Security.String_Htmlentities",
//	})
//
//	appDiC := container.New(loader, app, root)
//	appDiC.Class("request")               // "Kernel.Request" (from root)
//	appDiC.Class("Security_String:Strip") // retried as "Security_String"
//	appDiC.Class("Unknown")               // "Unknown" (unchanged)
//
// # Forging
//
// Forge builds a new instance and hands it to the owning context's Injector.
// Objects that need their application implement a small capability interface
// (see app.ApplicationAware) instead of taking it as a constructor argument,
// because most kernel objects are forged before they know who owns them.
//
//	req, err := appDiC.Forge("Request", "/hello/world")
//	view, err := container.ForgeAs[*view.View](appDiC, "View", "welcome")
//
// # Named instances
//
//	parser, err := appDiC.Object("Parser")            // default, forged once
//	appDiC.SetObject("Parser", "markdown", md)
//	md2, err := appDiC.Object("Parser", "markdown")
//	md3, err := appDiC.Object("Parser:markdown")      // same lookup
//
// A named instance that is registered nowhere in the chain returns an
// *InstanceNotFoundError; a class without constructor returns a
// *ClassNotFoundError. Both match their sentinel with errors.Is.
package container
