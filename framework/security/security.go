package security

import (
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"slices"

	"github.com/km-arc/go-fuel/framework/app"
)

// StringClass is the container class of the default Cleaner; variants are
// addressed as "Security_String:Strip".
const StringClass = "Security_String"

// WhitelistKey is the config key listing the types Secure passes unchanged,
// by their %T name.
const WhitelistKey = "security.whitelisted_types"

// ErrNotSecurable is returned by Secure for a value it cannot clean.
var ErrNotSecurable = errors.New("security: value cannot be cleaned")

// Forger forges cleaners; *app.Application implements it.
type Forger interface {
	Forge(class string, args ...any) (any, error)
}

// Security cleans input and output strings through a Cleaner forged from
// the application container.
type Security struct {
	forger    Forger
	config    app.Configurable
	log       *slog.Logger
	cleaner   Cleaner
	whitelist []string
}

// New creates a Security; without application it cleans with Htmlentities.
func New() *Security {
	return &Security{log: slog.Default()}
}

// SetApplication implements app.ApplicationAware.
func (s *Security) SetApplication(a *app.Application) {
	s.forger = a
	s.config = a.Config()
	s.log = a.Logger()
}

// SetCleaner replaces the default cleaner.
func (s *Security) SetCleaner(c Cleaner) *Security {
	s.cleaner = c
	return s
}

// Whitelist lets Secure pass values of the types of examples unchanged.
func (s *Security) Whitelist(examples ...any) *Security {
	for _, e := range examples {
		s.whitelist = append(s.whitelist, fmt.Sprintf("%T", e))
	}
	return s
}

// Cleaner returns the default cleaner, forging it on first use.
func (s *Security) Cleaner() Cleaner {
	if s.cleaner == nil {
		s.cleaner = s.forgeCleaner(StringClass)
	}
	return s.cleaner
}

// Variant returns the cleaner registered as variant of StringClass.
//
//	sec.Variant("Strip").Clean(comment)
func (s *Security) Variant(name string) Cleaner {
	return s.forgeCleaner(StringClass + ":" + name)
}

func (s *Security) forgeCleaner(class string) Cleaner {
	if s.forger == nil {
		return Htmlentities{}
	}
	instance, err := s.forger.Forge(class)
	if err != nil {
		s.log.Warn("cleaner unavailable, escaping entities", slog.String("class", class), slog.Any("error", err))
		return Htmlentities{}
	}
	c, ok := instance.(Cleaner)
	if !ok {
		s.log.Warn("cleaner has unexpected type", slog.String("class", class), slog.String("type", fmt.Sprintf("%T", instance)))
		return Htmlentities{}
	}
	return c
}

// Clean cleans one string with the default cleaner.
func (s *Security) Clean(input string) string { return s.Cleaner().Clean(input) }

// CleanURI implements app.URICleaner.
func (s *Security) CleanURI(uri string) string { return s.Clean(uri) }

// Secure cleans every string in v: strings, slices, arrays and maps are
// walked recursively, fmt.Stringers are converted. Booleans and numbers pass
// unchanged, as do whitelisted types. Anything else is ErrNotSecurable.
func (s *Security) Secure(v any) (any, error) {
	switch t := v.(type) {
	case nil, bool, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return v, nil
	case string:
		return s.Clean(t), nil
	}

	if s.whitelisted(v) {
		return v, nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String:
		return reflect.ValueOf(s.Clean(rv.String())).Convert(rv.Type()).Interface(), nil
	case reflect.Slice, reflect.Array:
		return s.secureList(rv)
	case reflect.Map:
		return s.secureMap(rv)
	}

	if str, ok := v.(fmt.Stringer); ok {
		return s.Clean(str.String()), nil
	}
	return nil, fmt.Errorf("%w: %T is neither a string nor whitelisted in %s", ErrNotSecurable, v, WhitelistKey)
}

func (s *Security) secureList(rv reflect.Value) (any, error) {
	var out reflect.Value
	if rv.Kind() == reflect.Array {
		out = reflect.New(rv.Type()).Elem()
	} else {
		if rv.IsNil() {
			return rv.Interface(), nil
		}
		out = reflect.MakeSlice(rv.Type(), rv.Len(), rv.Len())
	}
	for i := range rv.Len() {
		cleaned, err := s.secureValue(rv.Index(i), rv.Type().Elem())
		if err != nil {
			return nil, err
		}
		out.Index(i).Set(cleaned)
	}
	return out.Interface(), nil
}

func (s *Security) secureMap(rv reflect.Value) (any, error) {
	if rv.IsNil() {
		return rv.Interface(), nil
	}
	out := reflect.MakeMapWithSize(rv.Type(), rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		cleaned, err := s.secureValue(iter.Value(), rv.Type().Elem())
		if err != nil {
			return nil, err
		}
		out.SetMapIndex(iter.Key(), cleaned)
	}
	return out.Interface(), nil
}

// secureValue secures one element and converts it back to the element type.
func (s *Security) secureValue(v reflect.Value, elem reflect.Type) (reflect.Value, error) {
	if !v.IsValid() || (v.Kind() == reflect.Interface && v.IsNil()) {
		return reflect.Zero(elem), nil
	}
	cleaned, err := s.Secure(v.Interface())
	if err != nil {
		return reflect.Value{}, err
	}
	if cleaned == nil {
		return reflect.Zero(elem), nil
	}
	cv := reflect.ValueOf(cleaned)
	switch {
	case cv.Type().AssignableTo(elem):
		return cv, nil
	case cv.Type().ConvertibleTo(elem):
		return cv.Convert(elem), nil
	}
	return reflect.Value{}, fmt.Errorf("%w: cleaned %T does not fit %s", ErrNotSecurable, cleaned, elem)
}

func (s *Security) whitelisted(v any) bool {
	name := fmt.Sprintf("%T", v)
	if slices.Contains(s.whitelist, name) {
		return true
	}
	if s.config == nil {
		return false
	}
	switch list := s.config.Get(WhitelistKey, nil).(type) {
	case []string:
		return slices.Contains(list, name)
	case []any:
		return slices.Contains(list, any(name))
	}
	return false
}

var _ app.URICleaner = (*Security)(nil)
