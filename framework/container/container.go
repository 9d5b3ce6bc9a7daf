package container

import (
	"fmt"
	"strings"
	"sync"
)

// DefaultName is the reserved instance name used when Object is called
// without a name. The default instance is forged lazily and cached.
const DefaultName = "__default"

// ── Class types ───────────────────────────────────────────────────────────────

// Constructor builds a new instance of a class from constructor arguments.
type Constructor func(args ...any) (any, error)

// ClassResolver looks up the constructor of an actual classname. The Loader
// implements it and autoloads classes on a miss.
type ClassResolver interface {
	Class(name string) (Constructor, bool)
}

// Injector is implemented by the context that owns a container (the
// Environment or an Application). It receives every forged instance right
// after construction so context-aware objects can be handed their owner.
type Injector interface {
	Inject(instance any)
}

// ── Container ─────────────────────────────────────────────────────────────────

// Container is the dependency injection container.
//
// It holds two tables:
//   - classes: classname translations ("Request" → "Kernel.Request")
//   - objects: named instances organized by classname
//
// Lookups that miss locally fall back on the parent container.
type Container struct {
	mu sync.RWMutex

	// lowercase classname → actual classname
	classes map[string]string

	// lowercase classname → lowercase instance name → instance
	objects map[string]map[string]any

	parent   *Container
	resolver ClassResolver
	injector Injector

	// forged callbacks: []func(class, instance)
	afterForging []func(string, any)
}

// New creates a container. The injector and parent may be nil; the resolver
// may be nil only when the container never forges.
func New(resolver ClassResolver, injector Injector, parent *Container) *Container {
	return &Container{
		classes:  make(map[string]string),
		objects:  make(map[string]map[string]any),
		parent:   parent,
		resolver: resolver,
		injector: injector,
	}
}

// Parent returns the container this one falls back on, or nil.
func (c *Container) Parent() *Container { return c.parent }

// ── Class translation ─────────────────────────────────────────────────────────

// SetClass registers a translation for a single classname.
//
//	c.SetClass("Request", "Kernel.Request")
func (c *Container) SetClass(name, actual string) *Container {
	return c.SetClasses(map[string]string{name: actual})
}

// SetClasses registers classname translations. Keys are case-folded.
func (c *Container) SetClasses(classes map[string]string) *Container {
	c.mu.Lock()
	defer c.mu.Unlock()
	for name, actual := range classes {
		c.classes[strings.ToLower(name)] = actual
	}
	return c
}

// Class translates a classname to the one registered in this container or
// any of its parents. A colon-qualified name ("Security_String:Strip") that
// has no translation is retried without its last qualifier. When nothing
// matches the input is returned unchanged.
func (c *Container) Class(name string) string {
	if actual, ok := c.lookupClass(name); ok {
		return actual
	}

	base := name
	for {
		i := strings.LastIndex(base, ":")
		if i < 0 {
			return name
		}
		base = base[:i]
		if actual, ok := c.lookupClass(base); ok {
			return actual
		}
	}
}

// lookupClass walks the parent chain for an exact translation.
func (c *Container) lookupClass(name string) (string, bool) {
	key := strings.ToLower(name)
	for cur := c; cur != nil; cur = cur.parent {
		cur.mu.RLock()
		actual, ok := cur.classes[key]
		cur.mu.RUnlock()
		if ok {
			return actual, true
		}
	}
	return "", false
}

// ── Forging ───────────────────────────────────────────────────────────────────

// Forge translates class, builds a new instance with args and hands it to the
// container's injector.
//
//	req, err := c.Forge("Request", "/blog/2024")
func (c *Container) Forge(class string, args ...any) (any, error) {
	actual := c.Class(class)

	ctor, ok := c.constructor(actual)
	if !ok {
		return nil, &ClassNotFoundError{Class: actual}
	}

	instance, err := ctor(args...)
	if err != nil {
		return nil, fmt.Errorf("container: forging %q: %w", actual, err)
	}

	if c.injector != nil {
		c.injector.Inject(instance)
	}
	c.fireAfterForging(actual, instance)
	return instance, nil
}

// ForgeNamed forges class and registers the result under name.
func (c *Container) ForgeNamed(name, class string, args ...any) (any, error) {
	instance, err := c.Forge(class, args...)
	if err != nil {
		return nil, err
	}
	c.SetObject(class, name, instance)
	return instance, nil
}

// ForgeKey forges the class identified by key.
func (c *Container) ForgeKey(key Key, args ...any) (any, error) {
	return c.Forge(key.String(), args...)
}

// constructor resolves an actual classname through the first resolver in
// the parent chain.
func (c *Container) constructor(actual string) (Constructor, bool) {
	for cur := c; cur != nil; cur = cur.parent {
		if cur.resolver != nil {
			return cur.resolver.Class(actual)
		}
	}
	return nil, false
}

// ── Objects ───────────────────────────────────────────────────────────────────

// SetObject registers an instance under (class, name).
func (c *Container) SetObject(class, name string, instance any) *Container {
	class, name = strings.ToLower(class), strings.ToLower(name)

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.objects[class]; !ok {
		c.objects[class] = make(map[string]any)
	}
	c.objects[class][name] = instance
	return c
}

// Object fetches a named instance. When class carries a colon qualifier and
// no name is given, the qualifier is used as the name.
//
// Without a name the default instance is returned, forged without arguments
// on first use. Named instances are looked up here and then in the parents;
// a miss everywhere returns an *InstanceNotFoundError.
func (c *Container) Object(class string, name ...string) (any, error) {
	key := ParseKey(class)

	instanceName := DefaultName
	switch {
	case len(name) > 0 && name[0] != "":
		key = Key{Name: class}
		instanceName = name[0]
	case key.Variant != "":
		instanceName = key.Variant
	}
	return c.object(key.Name, instanceName)
}

// ObjectKey fetches the instance registered for key.
func (c *Container) ObjectKey(key Key) (any, error) {
	if key.Variant == "" {
		return c.object(key.Name, DefaultName)
	}
	return c.object(key.Name, key.Variant)
}

func (c *Container) object(class, name string) (any, error) {
	lowerClass, lowerName := strings.ToLower(class), strings.ToLower(name)

	c.mu.RLock()
	instance, ok := c.objects[lowerClass][lowerName]
	c.mu.RUnlock()
	if ok {
		return instance, nil
	}

	if lowerName == DefaultName {
		forged, err := c.Forge(class)
		if err != nil {
			return nil, err
		}
		c.SetObject(class, DefaultName, forged)
		return forged, nil
	}

	if c.parent != nil {
		return c.parent.object(class, name)
	}
	return nil, &InstanceNotFoundError{Class: lowerClass, Name: lowerName}
}

// HasObject reports whether an instance is registered locally under
// (class, name) without forging or consulting the parents.
func (c *Container) HasObject(class, name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.objects[strings.ToLower(class)][strings.ToLower(name)]
	return ok
}

// ── Callbacks ─────────────────────────────────────────────────────────────────

// AfterForging registers a callback fired after any class is forged.
func (c *Container) AfterForging(cb func(class string, instance any)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.afterForging = append(c.afterForging, cb)
}

func (c *Container) fireAfterForging(class string, instance any) {
	c.mu.RLock()
	cbs := c.afterForging
	c.mu.RUnlock()
	for _, cb := range cbs {
		cb(class, instance)
	}
}

// ── Generics helpers ──────────────────────────────────────────────────────────

// ForgeAs forges class and type-asserts the result.
//
//	req, err := container.ForgeAs[*app.Request](c, "Request", "/")
func ForgeAs[T any](c *Container, class string, args ...any) (T, error) {
	var zero T
	instance, err := c.Forge(class, args...)
	if err != nil {
		return zero, err
	}
	typed, ok := instance.(T)
	if !ok {
		return zero, fmt.Errorf("container: ForgeAs[%T]: [%s] forged %T", zero, class, instance)
	}
	return typed, nil
}

// ObjectAs fetches an instance and type-asserts the result.
func ObjectAs[T any](c *Container, class string, name ...string) (T, error) {
	var zero T
	instance, err := c.Object(class, name...)
	if err != nil {
		return zero, err
	}
	typed, ok := instance.(T)
	if !ok {
		return zero, fmt.Errorf("container: ObjectAs[%T]: [%s] resolved to %T", zero, class, instance)
	}
	return typed, nil
}
