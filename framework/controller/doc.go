// Package controller dispatches routed URI segments onto controller actions.
//
// A route resolves a controller class and hands the forged instance to
// Handler. The first residual segment names the action and the rest are its
// arguments:
//
//	/blog/view/2024/my-post  →  (*Blog).ActionView("2024", "my-post")
//	/blog                    →  (*Blog).ActionIndex()
//
// Whatever an action returns that is not already a response is forged into
// the application's "Response" class.
package controller
