// Implements the abbreviated geometry mini-language of
// XPS Path Data attributes: a tokenizer, the command grammar,
// and the compilation to explicit drawing operations.
package xpspath

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// This file implements the grammar over the token stream:
// command letters followed by fixed-arity parameter groups,
// with implicit repetition of the previous command.

// Segment is one drawing command with its parameters.
// Relative (lowercase) commands keep their raw parameters;
// the running current point is only applied when compiling
// the segments to a Path.
type Segment struct {
	Cmd  byte // uppercase command letter
	Rel  bool
	Args []float64
}

// Segments is the ordered output of Parse.
type Segments []Segment

// arities gives the parameter count of each command.
var arities = map[byte]int{
	'F': 1, // fill rule
	'M': 2,
	'L': 2,
	'H': 1,
	'V': 1,
	'C': 6,
	'S': 4,
	'Q': 4,
	'T': 2,
	'A': 7,
	'Z': 0,
}

var (
	errUnknownCommand = errors.New("unknown path command")
	errParamMismatch  = errors.New("parameter count mismatch")
	errLeadingNumber  = errors.New("number before any path command")
)

// Parse decodes an abbreviated geometry string into segments.
// Implicitly repeated commands yield one Segment per parameter
// group. On a malformed input the segments accumulated before
// the error are returned along with the error, so that partial
// geometry can still be drawn.
func Parse(data string) (Segments, error) {
	var (
		out     Segments
		tk      = tokenizer{src: data}
		cmd     byte
		rel     bool
		arity   = -1
		emitted bool // at least one group since the command letter
		args    []float64
	)
	for {
		t, err := tk.next()
		if err != nil {
			return out, err
		}
		switch t.Kind {
		case TokenEOF:
			if len(args) != 0 || (arity > 0 && !emitted) {
				return out, fmt.Errorf("%w: %c at offset %d", errParamMismatch, cmd, t.Pos)
			}
			return out, nil
		case TokenComma:
			// separators are free between parameters
		case TokenCommand:
			if len(args) != 0 || (arity > 0 && !emitted) {
				return out, fmt.Errorf("%w: %c at offset %d", errParamMismatch, cmd, t.Pos)
			}
			up := t.Cmd &^ 0x20 // ASCII uppercase
			n, ok := arities[up]
			if !ok {
				return out, fmt.Errorf("%w: %c at offset %d", errUnknownCommand, t.Cmd, t.Pos)
			}
			cmd, rel, arity, emitted = up, t.Cmd >= 'a', n, false
			if arity == 0 {
				out = append(out, Segment{Cmd: cmd, Rel: rel})
				emitted = true
			}
		case TokenNumber:
			if arity <= 0 {
				if arity < 0 {
					return out, fmt.Errorf("%w at offset %d", errLeadingNumber, t.Pos)
				}
				return out, fmt.Errorf("%w: %c at offset %d", errParamMismatch, cmd, t.Pos)
			}
			args = append(args, t.Value)
			if len(args) == arity {
				out = append(out, Segment{Cmd: cmd, Rel: rel, Args: args})
				args = nil
				emitted = true
			}
		}
	}
}

// String returns the canonical textual form of the segment:
// the command letter, lowercased when relative, followed by its
// comma separated parameters.
func (s Segment) String() string {
	cmd := s.Cmd
	if s.Rel {
		cmd |= 0x20
	}
	if len(s.Args) == 0 {
		return string(cmd)
	}
	chunks := make([]string, len(s.Args))
	for i, a := range s.Args {
		chunks[i] = strconv.FormatFloat(a, 'g', -1, 64)
	}
	return string(cmd) + " " + strings.Join(chunks, ",")
}

// String returns the canonical form of the whole geometry;
// parsing it back yields the same segments.
func (ss Segments) String() string {
	chunks := make([]string, len(ss))
	for i, s := range ss {
		chunks[i] = s.String()
	}
	return strings.Join(chunks, " ")
}
