package data

import (
	"fmt"
	"log/slog"
	"path"

	"github.com/km-arc/go-fuel/framework/app"
)

// StringParser renders a template string; the application "Parser" object
// implements it.
type StringParser interface {
	ParseString(template string, data map[string]any) (string, error)
}

// Language holds the translated lines of an application, loaded from
// language/<lang>/<file>.
//
//	lang.Load("blog", "nl")
//	lang.Parse("blog.greeting", map[string]any{"Name": "Ada"}, "Hello")
type Language struct {
	*Repository

	finder   FileFinder
	language string
	parser   StringParser
	log      *slog.Logger

	// resolves the parser on first use
	parserFn func() (StringParser, error)
}

// NewLanguage creates an empty line repository.
func NewLanguage() *Language {
	return &Language{Repository: NewRepository(nil), language: "en", log: slog.Default()}
}

// SetApplication implements app.ApplicationAware.
func (l *Language) SetApplication(a *app.Application) {
	l.Bind(a, a.Environment().Language())
	l.log = a.Logger()
	l.parserFn = func() (StringParser, error) {
		obj, err := a.Object("Parser")
		if err != nil {
			return nil, err
		}
		p, ok := obj.(StringParser)
		if !ok {
			return nil, fmt.Errorf("%w: Parser is %T", app.ErrUnexpectedType, obj)
		}
		return p, nil
	}
}

// Bind sets where files are found and the default language.
func (l *Language) Bind(finder FileFinder, language string) *Language {
	l.finder = finder
	if language != "" {
		l.language = language
	}
	return l
}

// SetParser sets the parser used by Parse.
func (l *Language) SetParser(p StringParser) *Language {
	l.parser = p
	return l
}

// Load implements app.Translator. An empty lang loads the default language.
func (l *Language) Load(file, lang string) error {
	if l.finder == nil {
		return app.ErrNotInitialized
	}
	if lang == "" {
		lang = l.language
	}

	for _, f := range findAll(l.finder, path.Join("language", lang), file) {
		values, err := ReadFile(f)
		if err != nil {
			return err
		}
		l.Merge(values)
		l.log.Debug("language loaded", slog.String("file", f), slog.String("language", lang))
	}
	return nil
}

// Parse renders the line at key with values. A missing or non-string line
// returns fallback.
func (l *Language) Parse(key string, values map[string]any, fallback string) (string, error) {
	line, ok := l.Get(key, nil).(string)
	if !ok || line == "" {
		return fallback, nil
	}

	if l.parser == nil && l.parserFn != nil {
		p, err := l.parserFn()
		if err != nil {
			return "", err
		}
		l.parser = p
	}
	if l.parser == nil {
		return line, nil
	}
	return l.parser.ParseString(line, values)
}

var _ app.Translator = (*Language)(nil)
