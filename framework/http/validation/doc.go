// Package validation checks flat input maps against pipe-separated rules.
//
//	v := validation.FromInput(c.Input(), validation.Rules{
//	    "name":  "required|min:2|max:100",
//	    "email": "required|email",
//	})
//
//	if v.Fails() {
//	    return v.Errors().Response()
//	}
//
// The first failing rule ends a field. "nullable" and "sometimes" end it
// silently when the value is empty.
//
// # Rules
//
// Strings: required, string, min:n, max:n, size:n, between:lo,hi, alpha,
// alpha_num, alpha_dash, regex:pattern. Lengths count runes.
//
// Formats: email (RFC 5322), url (http or https).
//
// Numbers: numeric, integer, gt:n, gte:n, lt:n, lte:n.
//
// Comparison: confirmed (field_confirmation), same:other, different:other.
//
// Sets: boolean (true/false/1/0/yes/no), in:a,b,c, not_in:a,b,c.
//
// # Messages
//
// Messages default to English. WithLines looks each rule up under
// "validation.<rule>" first, so a language file can translate them:
//
//	v.WithLines(lang) // validation.required: ":field is verplicht."
//
// The placeholders :field, :param, :min and :max are filled in. The bag
// serialises as
//
//	{"errors": {"email": ["The email field is required."]}}
package validation
