package container

import (
	"errors"
	"fmt"
)

var (
	// ErrClassNotFound is matched by every *ClassNotFoundError.
	ErrClassNotFound = errors.New("class not found")

	// ErrInstanceNotFound is matched by every *InstanceNotFoundError.
	ErrInstanceNotFound = errors.New("instance not found")
)

// ClassNotFoundError is returned by Forge when the translated classname has
// no constructor anywhere.
type ClassNotFoundError struct {
	Class string
}

func (e *ClassNotFoundError) Error() string {
	return fmt.Sprintf("container: class %q not found", e.Class)
}

func (e *ClassNotFoundError) Is(target error) bool { return target == ErrClassNotFound }

// InstanceNotFoundError is returned by Object when a named instance is not
// registered in the container or any of its parents.
type InstanceNotFoundError struct {
	Class string
	Name  string
}

func (e *InstanceNotFoundError) Error() string {
	return fmt.Sprintf("container: instance %q not found for class %q", e.Name, e.Class)
}

func (e *InstanceNotFoundError) Is(target error) bool { return target == ErrInstanceNotFound }
