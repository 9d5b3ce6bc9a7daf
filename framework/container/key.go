package container

import "strings"

// Key identifies a class together with an optional named variant, the
// structured form of "Security_String:Strip".
type Key struct {
	Name    string
	Variant string
}

// ParseKey splits a colon-qualified classname on its last colon.
//
//	ParseKey("Security_String:Strip") // Key{Name: "Security_String", Variant: "Strip"}
//	ParseKey("Request")               // Key{Name: "Request"}
func ParseKey(s string) Key {
	i := strings.LastIndex(s, ":")
	if i < 0 {
		return Key{Name: s}
	}
	return Key{Name: s[:i], Variant: s[i+1:]}
}

// String returns the colon-qualified form of the key.
func (k Key) String() string {
	if k.Variant == "" {
		return k.Name
	}
	return k.Name + ":" + k.Variant
}
