package xpspage

import (
	"errors"
	"log"
)

// ErrorMode defines how the interpreter reacts to recoverable
// rendering conditions (unresolved resources, malformed geometry,
// missing fonts, unknown elements).
type ErrorMode uint8

const (
	// IgnoreErrorMode skips the faulty element silently.
	IgnoreErrorMode ErrorMode = iota
	// WarnErrorMode logs the condition and continues.
	WarnErrorMode
	// StrictErrorMode aborts the page render on the first condition.
	StrictErrorMode
)

// ErrPartNotFound is returned by an Archive when the requested
// part is absent from the container.
var ErrPartNotFound = errors.New("part not found in archive")

// Archive gives access to the parts of a packaged document.
// Part paths use forward slashes; a leading slash is accepted.
type Archive interface {
	// ReadPart returns the content of the part at the given path,
	// or an error wrapping ErrPartNotFound.
	ReadPart(path string) ([]byte, error)

	// Parts lists the paths of all parts in the container.
	Parts() []string
}

// handleError processes a recoverable condition according to the mode:
// the returned error is non nil only in StrictErrorMode.
func (mode ErrorMode) handleError(err error) error {
	switch mode {
	case StrictErrorMode:
		return err
	case WarnErrorMode:
		log.Println(err)
	}
	return nil
}
