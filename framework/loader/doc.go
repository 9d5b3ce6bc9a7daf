// Package loader finds classes and files across the packages of an
// environment.
//
// Packages are registered with a Rank. A lookup asks every application
// package first, then normal packages, then core packages, each group in the
// order it was registered. The first package that provides the class wins.
//
//	l := loader.New(loader.WithBasePath("/srv/fuel"))
//	l.LoadPackage("kernel", loader.RankCore)
//	l.LoadPackage("blog", loader.RankApp)
//
//	ctor, ok := l.Class("Blog.Controller.Welcome")
package loader
