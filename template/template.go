// irsat: an iterative read subset assembly tool.
// Copyright (c) 2026 imec vzw.

// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version, and Additional Terms
// (see below).

// This program is distributed in the hope that it will be useful, but
// WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Affero General Public License for more details.

// You should have received a copy of the GNU Affero General Public
// License and Additional Terms along with this program. If not, see
// <https://github.com/exascience/irsat/blob/master/LICENSE.txt>.

package template

import (
	"errors"
	"fmt"
	"strings"
)

// Placeholder names that may appear as whole tokens in configured
// commands.
const (
	Index     = "INDEX"
	Mate1     = "PAIRED_READS_FILE_1"
	Mate2     = "PAIRED_READS_FILE_2"
	Unpaired  = "UNPAIRED_READS_FILE"
	Directory = "DIRECTORY"
	Reference = "REFERENCE"
)

var vocabulary = map[string]bool{
	Index:     true,
	Mate1:     true,
	Mate2:     true,
	Unpaired:  true,
	Directory: true,
	Reference: true,
}

// IsPlaceholder reports whether name belongs to the placeholder
// vocabulary. The comparison is exact and case-sensitive.
func IsPlaceholder(name string) bool {
	return vocabulary[name]
}

// Token is either a literal string or a named placeholder.
type Token struct {
	text        string
	placeholder bool
}

// Literal returns a token that is copied verbatim by Substitute.
func Literal(text string) Token {
	return Token{text: text}
}

// Placeholder returns a token that Substitute replaces by the value
// registered under name.
func Placeholder(name string) Token {
	return Token{text: name, placeholder: true}
}

// IsPlaceholder reports whether the token is a placeholder.
func (t Token) IsPlaceholder() bool {
	return t.placeholder
}

// Text is the literal text, or the placeholder name.
func (t Token) Text() string {
	return t.text
}

// Template is the ordered token list of one command.
type Template []Token

// Parse splits a configured command line on white space. A token that
// is exactly a vocabulary name becomes a placeholder, any other token
// (including one that merely contains a vocabulary name) is a literal.
func Parse(line string) Template {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	t := make(Template, len(fields))
	for i, field := range fields {
		if IsPlaceholder(field) {
			t[i] = Placeholder(field)
		} else {
			t[i] = Literal(field)
		}
	}
	return t
}

// Placeholders returns the distinct placeholder names used in t, in
// order of first occurrence.
func (t Template) Placeholders() (names []string) {
	seen := make(map[string]bool)
	for _, token := range t {
		if token.placeholder && !seen[token.text] {
			seen[token.text] = true
			names = append(names, token.text)
		}
	}
	return names
}

func (t Template) String() string {
	fields := make([]string, len(t))
	for i, token := range t {
		fields[i] = token.text
	}
	return strings.Join(fields, " ")
}

// Substitute resolves t against values. See the package function
// Substitute.
func (t Template) Substitute(values map[string]string) ([]string, error) {
	return Substitute(t, values)
}

// Substitute copies every literal of t and replaces every placeholder
// by its entry in values. A placeholder without an entry fails with an
// *UnresolvedPlaceholderError; nothing is skipped or defaulted.
func Substitute(t Template, values map[string]string) ([]string, error) {
	args := make([]string, len(t))
	for i, token := range t {
		if !token.placeholder {
			args[i] = token.text
			continue
		}
		value, ok := values[token.text]
		if !ok {
			return nil, &UnresolvedPlaceholderError{Name: token.text, Command: t.String()}
		}
		args[i] = value
	}
	return args, nil
}

// Check verifies statically that every placeholder in t is among
// available.
func Check(t Template, available ...string) error {
	allowed := make(map[string]bool, len(available))
	for _, name := range available {
		allowed[name] = true
	}
	for _, name := range t.Placeholders() {
		if !allowed[name] {
			return &UnresolvedPlaceholderError{Name: name, Command: t.String()}
		}
	}
	return nil
}

// Sequence is a multi-step stage: one template per command, run in
// order.
type Sequence []Template

// ParseSequence parses one template per non-blank line of text.
func ParseSequence(text string) (s Sequence) {
	for _, line := range strings.Split(text, "\n") {
		if t := Parse(line); t != nil {
			s = append(s, t)
		}
	}
	return s
}

// Substitute resolves every command of s, failing on the first
// unresolved placeholder.
func (s Sequence) Substitute(values map[string]string) ([][]string, error) {
	commands := make([][]string, len(s))
	for i, t := range s {
		args, err := Substitute(t, values)
		if err != nil {
			return nil, err
		}
		commands[i] = args
	}
	return commands, nil
}

// Check applies the package function Check to every command of s.
func (s Sequence) Check(available ...string) error {
	for _, t := range s {
		if err := Check(t, available...); err != nil {
			return err
		}
	}
	return nil
}

// ErrUnresolvedPlaceholder is matched by every *UnresolvedPlaceholderError.
var ErrUnresolvedPlaceholder = errors.New("unresolved placeholder")

// UnresolvedPlaceholderError reports a placeholder that has no value in
// the current context.
type UnresolvedPlaceholderError struct {
	Name    string
	Command string
}

func (err *UnresolvedPlaceholderError) Error() string {
	return fmt.Sprintf("unresolved placeholder %v in command %q", err.Name, err.Command)
}

// Unwrap returns ErrUnresolvedPlaceholder.
func (err *UnresolvedPlaceholderError) Unwrap() error {
	return ErrUnresolvedPlaceholder
}
