// Package view renders templates for controllers.
//
// A View pairs a template with its variables. Created through the container
// ("View" class) it is bound to the application and request active at that
// moment, finds its file under views/ in the application and its packages,
// and renders with the application's "Parser" object. Rendering later, from
// another application or request, activates the original ones for the
// duration of Render.
//
// Two parsers are provided: Template (html/template, .html files) and
// Markdown (text/template expanded, then converted by goldmark, .md files).
//
// A Presenter moves view logic out of the controller: the embedding type
// implements Present, and optionally Before and After, which run once before
// the first render.
package view
