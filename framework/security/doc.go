// Package security cleans user input and template output.
//
// The application forges one Security object. Its default cleaner is the
// "Security_String" class, so an application swaps the cleaning strategy by
// registering another class under that name:
//
//	a.Container().SetClass("Security_String", "Kernel.Security.String.Strip")
//
// Request URIs go through CleanURI before routing. Secure cleans input
// structures such as decoded form values before they reach a controller.
package security
