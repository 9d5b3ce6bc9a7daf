package validation

import (
	"net/http"
	"net/mail"
	"regexp"
	"slices"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	fhttp "github.com/km-arc/go-fuel/framework/http"
)

// ── Types ────────────────────────────────────────────────────────────────────

// Errors holds the failed rules per field.
// JSON output: {"errors": {"field": ["msg1", "msg2"]}}
type Errors struct {
	Bag map[string][]string `json:"errors"`
}

func (e *Errors) add(field, msg string) {
	if e.Bag == nil {
		e.Bag = make(map[string][]string)
	}
	e.Bag[field] = append(e.Bag[field], msg)
}

// Has returns true if there are any errors.
func (e *Errors) Has() bool { return len(e.Bag) > 0 }

// First returns the first error for a field.
func (e *Errors) First(field string) string {
	if msgs, ok := e.Bag[field]; ok && len(msgs) > 0 {
		return msgs[0]
	}
	return ""
}

// Fields returns the failed fields in alphabetical order.
func (e *Errors) Fields() []string {
	fields := make([]string, 0, len(e.Bag))
	for f := range e.Bag {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}

// Response renders the bag as a 422 JSON response.
func (e *Errors) Response() (*fhttp.Response, error) {
	return fhttp.NewJSONResponse(http.StatusUnprocessableEntity, e)
}

// Lines looks up translated messages; *data.Language implements it.
type Lines interface {
	Get(key string, fallback any) any
}

// MessagePrefix is the language key prefix of rule messages:
// "validation.required", "validation.min"...
const MessagePrefix = "validation."

var messages = map[string]string{
	"required":   "The :field field is required.",
	"numeric":    "The :field must be a number.",
	"integer":    "The :field must be an integer.",
	"boolean":    "The :field field must be true or false.",
	"email":      "The :field must be a valid email address.",
	"url":        "The :field must be a valid URL.",
	"min":        "The :field must be at least :param characters.",
	"max":        "The :field may not be greater than :param characters.",
	"size":       "The :field must be :param characters.",
	"between":    "The :field must be between :min and :max characters.",
	"in":         "The selected :field is invalid.",
	"not_in":     "The selected :field is invalid.",
	"confirmed":  "The :field confirmation does not match.",
	"same":       "The :field and :param must match.",
	"different":  "The :field and :param must be different.",
	"alpha":      "The :field may only contain letters.",
	"alpha_num":  "The :field may only contain letters and numbers.",
	"alpha_dash": "The :field may only contain letters, numbers, dashes and underscores.",
	"regex":      "The :field format is invalid.",
	"gt":         "The :field must be greater than :param.",
	"gte":        "The :field must be greater than or equal to :param.",
	"lt":         "The :field must be less than :param.",
	"lte":        "The :field must be less than or equal to :param.",
}

var (
	urlPattern       = regexp.MustCompile(`^https?://`)
	alphaPattern     = regexp.MustCompile(`^[a-zA-Z]+$`)
	alphaNumPattern  = regexp.MustCompile(`^[a-zA-Z0-9]+$`)
	alphaDashPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	booleans         = []string{"true", "false", "1", "0", "yes", "no"}
)

// ── Validator ────────────────────────────────────────────────────────────────

// Rules is a map of field → pipe-separated rule string.
// e.g. Rules{"email": "required|email", "age": "required|numeric|min:18"}
type Rules map[string]string

// Validator validates a flat map of input values.
type Validator struct {
	data   map[string]string
	rules  Rules
	lines  Lines
	errors *Errors
}

// Make creates a new Validator.
func Make(data map[string]string, rules Rules) *Validator {
	return &Validator{
		data:   data,
		rules:  rules,
		errors: &Errors{},
	}
}

// FromInput validates the query and form values of a request.
//
//	v := validation.FromInput(c.Input(), validation.Rules{"title": "required|max:120"})
func FromInput(in *fhttp.Input, rules Rules) *Validator {
	return Make(in.All(), rules)
}

// WithLines translates messages through lines, falling back on the English
// defaults for missing keys.
func (v *Validator) WithLines(lines Lines) *Validator {
	v.lines = lines
	return v
}

// Fails runs validation and returns true if any rule fails.
func (v *Validator) Fails() bool {
	v.validate()
	return v.errors.Has()
}

// Passes runs validation and returns true if all rules pass.
func (v *Validator) Passes() bool { return !v.Fails() }

// Errors returns the validation error bag.
func (v *Validator) Errors() *Errors { return v.errors }

// ── Core validation loop ─────────────────────────────────────────────────────

func (v *Validator) validate() {
	v.errors = &Errors{}
	for field, ruleStr := range v.rules {
		value := v.data[field]

		for _, rule := range strings.Split(ruleStr, "|") {
			rule = strings.TrimSpace(rule)
			if rule == "" {
				continue
			}

			// min:3 → name=min, param=3
			name, param, _ := strings.Cut(rule, ":")

			if !v.applyRule(field, value, name, param) {
				break // first failure ends the field
			}
		}
	}
}

// fail records the message of rule for field.
func (v *Validator) fail(field, rule, param string) bool {
	msg := messages[rule]
	if v.lines != nil {
		if line, ok := v.lines.Get(MessagePrefix+rule, nil).(string); ok && line != "" {
			msg = line
		}
	}

	lo, hi, _ := strings.Cut(param, ",")
	msg = strings.NewReplacer(
		":field", field,
		":param", param,
		":min", strings.TrimSpace(lo),
		":max", strings.TrimSpace(hi),
	).Replace(msg)

	v.errors.add(field, msg)
	return false
}

// applyRule returns true if the rule passes and the next rule should run.
func (v *Validator) applyRule(field, value, rule, param string) bool {
	switch rule {
	case "required":
		if strings.TrimSpace(value) == "" {
			return v.fail(field, rule, param)
		}

	case "string":
		// form values are strings already

	case "numeric":
		if _, err := strconv.ParseFloat(value, 64); err != nil {
			return v.fail(field, rule, param)
		}

	case "integer":
		if _, err := strconv.Atoi(value); err != nil {
			return v.fail(field, rule, param)
		}

	case "boolean":
		if !slices.Contains(booleans, strings.ToLower(value)) {
			return v.fail(field, rule, param)
		}

	case "email":
		if _, err := mail.ParseAddress(value); err != nil {
			return v.fail(field, rule, param)
		}

	case "url":
		if !urlPattern.MatchString(value) {
			return v.fail(field, rule, param)
		}

	case "min":
		n, _ := strconv.Atoi(param)
		if utf8.RuneCountInString(value) < n {
			return v.fail(field, rule, param)
		}

	case "max":
		n, _ := strconv.Atoi(param)
		if utf8.RuneCountInString(value) > n {
			return v.fail(field, rule, param)
		}

	case "size":
		n, _ := strconv.Atoi(param)
		if utf8.RuneCountInString(value) != n {
			return v.fail(field, rule, param)
		}

	case "between":
		lo, hi, ok := strings.Cut(param, ",")
		if !ok {
			break
		}
		minLen, _ := strconv.Atoi(strings.TrimSpace(lo))
		maxLen, _ := strconv.Atoi(strings.TrimSpace(hi))
		if l := utf8.RuneCountInString(value); l < minLen || l > maxLen {
			return v.fail(field, rule, param)
		}

	case "in":
		if !inList(param, value) {
			return v.fail(field, rule, param)
		}

	case "not_in":
		if inList(param, value) {
			return v.fail(field, rule, param)
		}

	case "confirmed":
		if v.data[field+"_confirmation"] != value {
			return v.fail(field, rule, param)
		}

	case "same":
		if v.data[param] != value {
			return v.fail(field, rule, param)
		}

	case "different":
		if v.data[param] == value {
			return v.fail(field, rule, param)
		}

	case "alpha":
		if !alphaPattern.MatchString(value) {
			return v.fail(field, rule, param)
		}

	case "alpha_num":
		if !alphaNumPattern.MatchString(value) {
			return v.fail(field, rule, param)
		}

	case "alpha_dash":
		if !alphaDashPattern.MatchString(value) {
			return v.fail(field, rule, param)
		}

	case "regex":
		re, err := regexp.Compile(param)
		if err != nil || !re.MatchString(value) {
			return v.fail(field, rule, param)
		}

	case "nullable", "sometimes":
		// empty values skip the remaining rules
		if value == "" {
			return false
		}

	case "gt", "gte", "lt", "lte":
		f, _ := strconv.ParseFloat(value, 64)
		limit, _ := strconv.ParseFloat(param, 64)
		if !compare(rule, f, limit) {
			return v.fail(field, rule, param)
		}
	}

	return true
}

func inList(list, value string) bool {
	for _, item := range strings.Split(list, ",") {
		if strings.TrimSpace(item) == value {
			return true
		}
	}
	return false
}

func compare(op string, value, limit float64) bool {
	switch op {
	case "gt":
		return value > limit
	case "gte":
		return value >= limit
	case "lt":
		return value < limit
	}
	return value <= limit
}
