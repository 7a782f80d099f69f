// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package placeholder encodes, finds and strips the opaque reference tokens
// embedded in paragraph text. A token has the form [JATSREF::TYPE::VALUE] or
// [JATSREF::TYPE]; TYPE is upper case.
package placeholder

import (
	"regexp"
	"strconv"
	"strings"
)

// Namespace is the reserved prefix of every token.
const Namespace = "JATSREF"

// TypeRef is the token type pointing at a reference-table index.
const TypeRef = "REF"

// Pattern matches one token. Group 1 is the type, group 2 the optional value.
var Pattern = regexp.MustCompile(`\[` + Namespace + `::([A-Z0-9_-]+)(?:::([^\[\]]*))?\]`)

var (
	typeCleaner  = regexp.MustCompile(`[^A-Z0-9_-]+`)
	valueCleaner = strings.NewReplacer("[", "", "]", "", "::", ":")
)

// Token is a decoded placeholder and its byte offsets in the scanned text.
type Token struct {
	Type  string
	Value string
	Start int
	End   int
}

// Index returns the value parsed as a table index.
func (t Token) Index() (int, bool) {
	i, err := strconv.Atoi(t.Value)
	if err != nil || i < 0 {
		return 0, false
	}
	return i, true
}

// Encode builds a token. An empty value produces the [JATSREF::TYPE] form.
// Characters that would break the token's closed form are removed.
func Encode(kind, value string) string {
	kind = typeCleaner.ReplaceAllString(strings.ToUpper(kind), "_")
	value = valueCleaner.Replace(value)
	if value == "" {
		return "[" + Namespace + "::" + kind + "]"
	}
	return "[" + Namespace + "::" + kind + "::" + value + "]"
}

// EncodeIndex builds a token carrying a table index.
func EncodeIndex(kind string, idx int) string {
	return Encode(kind, strconv.Itoa(idx))
}

// Decode parses s, which must be exactly one token.
func Decode(s string) (Token, bool) {
	m := Pattern.FindStringSubmatchIndex(s)
	if m == nil || m[0] != 0 || m[1] != len(s) {
		return Token{}, false
	}
	return tokenAt(s, m), true
}

// FindAll returns every token in text, left to right.
func FindAll(text string) []Token {
	matches := Pattern.FindAllStringSubmatchIndex(text, -1)
	tokens := make([]Token, 0, len(matches))
	for _, m := range matches {
		tokens = append(tokens, tokenAt(text, m))
	}
	return tokens
}

func tokenAt(s string, m []int) Token {
	tok := Token{Type: s[m[2]:m[3]], Start: m[0], End: m[1]}
	if m[4] >= 0 {
		tok.Value = s[m[4]:m[5]]
	}
	return tok
}

// Strip removes every token of any type. Removal is repeated until no token
// is left, because deleting one token can join its neighbours into another;
// Strip(Strip(x)) == Strip(x) holds for every x.
func Strip(text string) string {
	for Pattern.MatchString(text) {
		text = Pattern.ReplaceAllLiteralString(text, "")
	}
	return text
}

// Contains reports whether text holds at least one token.
func Contains(text string) bool {
	return Pattern.MatchString(text)
}
