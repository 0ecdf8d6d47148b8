package errors

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalid     = errors.New("invalid")
	ErrCollision   = errors.New("path collision")
	ErrFrontMatter = errors.New("front matter")
)

type FieldError struct {
	Field   string
	Message string
}

func (e FieldError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError collects every problem found in one pass so the user can
// fix them all at once.
type ValidationError struct {
	Items []FieldError
}

func (e ValidationError) Error() string {
	if len(e.Items) == 0 {
		return "validation failed"
	}

	var b strings.Builder
	b.WriteString("validation failed:\n")
	for _, item := range e.Items {
		b.WriteString(" - ")
		b.WriteString(item.Error())
		b.WriteString("\n")
	}
	return b.String()
}

func (e *ValidationError) Add(field, msg string) {
	e.Items = append(e.Items, FieldError{
		Field:   field,
		Message: msg,
	})
}

func (e ValidationError) Is(target error) bool {
	return target == ErrInvalid
}

func (e ValidationError) HasAny() bool {
	return len(e.Items) > 0
}

// Collision is one output path claimed by several source files.
type Collision struct {
	Path  string
	Files []string
}

type CollisionError struct {
	Items []Collision
}

func (e *CollisionError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "found %d path collision(s):\n", len(e.Items))
	for _, c := range e.Items {
		fmt.Fprintf(&b, " - %q from files %s\n", c.Path, strings.Join(c.Files, ", "))
	}
	return b.String()
}

func (e *CollisionError) Is(target error) bool {
	return target == ErrCollision
}

// FrontMatterError ties a front matter problem to the file it came from.
type FrontMatterError struct {
	Path string
	Err  error
}

func (e *FrontMatterError) Error() string {
	return fmt.Sprintf("%s: invalid front matter: %v", e.Path, e.Err)
}

func (e *FrontMatterError) Unwrap() error { return e.Err }

func (e *FrontMatterError) Is(target error) bool {
	return target == ErrFrontMatter
}
