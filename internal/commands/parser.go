// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"fmt"
	"strings"
	"unicode"
)

// =============================================================================
// PARSE RESULT
// =============================================================================

// ParsedCommand is a tokenized input line: the command name followed by its
// arguments. An empty Name means the line held nothing to run.
type ParsedCommand struct {
	// Name is the first token (e.g., "open")
	Name string

	// Args are the remaining tokens with quotes removed
	Args []string
}

// Empty reports whether the line contained no tokens.
func (p ParsedCommand) Empty() bool {
	return p.Name == ""
}

// Tokens returns the name followed by the arguments.
func (p ParsedCommand) Tokens() []string {
	if p.Empty() {
		return nil
	}
	return append([]string{p.Name}, p.Args...)
}

// String renders the command back into a line that parses to the same tokens.
func (p ParsedCommand) String() string {
	return Join(p.Tokens())
}

// =============================================================================
// PARSE ERRORS
// =============================================================================

// ParseErrorKind classifies a ParseError.
type ParseErrorKind int

const (
	// UnterminatedQuote means a quote was opened and never closed.
	UnterminatedQuote ParseErrorKind = iota + 1
)

// String returns a short name for the kind.
func (k ParseErrorKind) String() string {
	switch k {
	case UnterminatedQuote:
		return "unterminated quote"
	default:
		return "unknown"
	}
}

// ParseError is returned by Parse when a line cannot be tokenized.
type ParseError struct {
	Kind ParseErrorKind

	// Quote is the quote character that was left open
	Quote rune

	// Offset is the rune offset of the opening quote in the input line
	Offset int
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %c opened at column %d", e.Kind, e.Quote, e.Offset+1)
}

// =============================================================================
// PARSER
// =============================================================================

// Parse tokenizes line into a ParsedCommand.
//
// Fields are split on runs of whitespace outside quotes. Single or double
// quotes group their contents verbatim; fragments that touch (a"b c") join
// into one token, and "" yields an empty token. A backslash directly before
// a quote character produces that quote literally, in or out of quotes.
// Every other backslash is kept as is.
//
// A line with an unclosed quote fails with *ParseError and no partial result.
func Parse(line string) (ParsedCommand, error) {
	tokens, err := Tokenize(line)
	if err != nil {
		return ParsedCommand{}, err
	}
	if len(tokens) == 0 {
		return ParsedCommand{}, nil
	}
	return ParsedCommand{Name: tokens[0], Args: tokens[1:]}, nil
}

// Tokenize splits line into tokens using the rules described on Parse.
func Tokenize(line string) ([]string, error) {
	var (
		tokens  []string
		current strings.Builder
		inToken bool
		quote   rune
		quoteAt int
	)

	runes := []rune(line)
	for i := 0; i < len(runes); i++ {
		r := runes[i]

		switch {
		case r == '\\' && i+1 < len(runes) && isQuote(runes[i+1]):
			current.WriteRune(runes[i+1])
			inToken = true
			i++

		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				current.WriteRune(r)
			}

		case isQuote(r):
			quote = r
			quoteAt = i
			inToken = true

		case unicode.IsSpace(r):
			if inToken {
				tokens = append(tokens, current.String())
				current.Reset()
				inToken = false
			}

		default:
			current.WriteRune(r)
			inToken = true
		}
	}

	if quote != 0 {
		return nil, &ParseError{Kind: UnterminatedQuote, Quote: quote, Offset: quoteAt}
	}
	if inToken {
		tokens = append(tokens, current.String())
	}
	return tokens, nil
}

func isQuote(r rune) bool {
	return r == '"' || r == '\''
}

// =============================================================================
// QUOTING
// =============================================================================

// Quote renders s as a single token that Tokenize reads back unchanged.
func Quote(s string) string {
	if s == "" {
		return `""`
	}

	var body strings.Builder
	needsQuotes := false
	for _, r := range s {
		switch {
		case isQuote(r):
			body.WriteRune('\\')
			body.WriteRune(r)
		case unicode.IsSpace(r):
			needsQuotes = true
			body.WriteRune(r)
		default:
			body.WriteRune(r)
		}
	}

	escaped := body.String()
	if !needsQuotes {
		return escaped
	}

	// A backslash right before the closing quote would escape it, so trailing
	// backslashes go after the quoted part.
	trimmed := strings.TrimRight(escaped, `\`)
	return `"` + trimmed + `"` + escaped[len(trimmed):]
}

// Join quotes each token as needed and joins them with single spaces.
func Join(tokens []string) string {
	quoted := make([]string, len(tokens))
	for i, tok := range tokens {
		quoted[i] = Quote(tok)
	}
	return strings.Join(quoted, " ")
}
