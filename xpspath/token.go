package xpspath

import (
	"fmt"
	"strconv"
)

// This file implements the tokenizer for the abbreviated
// geometry syntax used in Path Data attributes.

// TokenKind labels the lexical categories of the abbreviated geometry syntax.
type TokenKind uint8

const (
	TokenCommand TokenKind = iota // a command letter such as M or l
	TokenNumber                   // a decimal number, with optional sign and exponent
	TokenComma
	TokenEOF
)

// Token is one lexical item of a geometry string.
// Pos is the byte offset of the token in the source,
// kept for diagnostics.
type Token struct {
	Kind  TokenKind
	Cmd   byte    // set for TokenCommand
	Value float64 // set for TokenNumber
	Pos   int
}

type tokenizer struct {
	src string
	pos int
}

func isDigit(c byte) bool  { return '0' <= c && c <= '9' }
func isLetter(c byte) bool { return 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' }

// next returns the following token, or an error if the
// character at the current position is outside the vocabulary.
// After an error the tokenizer does not advance.
func (t *tokenizer) next() (Token, error) {
	for t.pos < len(t.src) {
		switch t.src[t.pos] {
		case ' ', '\t', '\n', '\r':
			t.pos++
		default:
			goto scan
		}
	}
	return Token{Kind: TokenEOF, Pos: t.pos}, nil

scan:
	start := t.pos
	c := t.src[t.pos]
	switch {
	case c == ',':
		t.pos++
		return Token{Kind: TokenComma, Pos: start}, nil
	case isLetter(c):
		t.pos++
		return Token{Kind: TokenCommand, Cmd: c, Pos: start}, nil
	case isDigit(c) || c == '+' || c == '-' || c == '.':
		return t.number()
	}
	return Token{}, fmt.Errorf("unexpected character %q at offset %d", c, start)
}

// number scans a decimal literal: optional sign, integer part,
// optional fractional part, optional exponent. A sign or digit
// immediately following a number starts a new one.
func (t *tokenizer) number() (Token, error) {
	start := t.pos
	if c := t.src[t.pos]; c == '+' || c == '-' {
		t.pos++
	}
	for t.pos < len(t.src) && isDigit(t.src[t.pos]) {
		t.pos++
	}
	if t.pos < len(t.src) && t.src[t.pos] == '.' {
		t.pos++
		for t.pos < len(t.src) && isDigit(t.src[t.pos]) {
			t.pos++
		}
	}
	if t.pos < len(t.src) && (t.src[t.pos] == 'e' || t.src[t.pos] == 'E') {
		mark := t.pos
		t.pos++
		if t.pos < len(t.src) && (t.src[t.pos] == '+' || t.src[t.pos] == '-') {
			t.pos++
		}
		if t.pos < len(t.src) && isDigit(t.src[t.pos]) {
			for t.pos < len(t.src) && isDigit(t.src[t.pos]) {
				t.pos++
			}
		} else {
			// not an exponent, leave the letter for the next token
			t.pos = mark
		}
	}
	v, err := strconv.ParseFloat(t.src[start:t.pos], 64)
	if err != nil {
		t.pos = start
		return Token{}, fmt.Errorf("invalid number at offset %d: %s", start, err)
	}
	return Token{Kind: TokenNumber, Value: v, Pos: start}, nil
}
