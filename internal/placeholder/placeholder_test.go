// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package placeholder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode(t *testing.T) {
	tests := []struct {
		kind, value string
		want        string
	}{
		{"ref", "3", "[JATSREF::REF::3]"},
		{"Ref", "", "[JATSREF::REF]"},
		{"table wrap", "x", "[JATSREF::TABLE_WRAP::x]"},
		{"ref", "a]b[c", "[JATSREF::REF::abc]"},
		{"ref", "a::b", "[JATSREF::REF::a:b]"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			got := Encode(tt.kind, tt.value)
			assert.Equal(t, tt.want, got)
			assert.True(t, Contains(got))
		})
	}
}

func TestDecode_RoundTrip(t *testing.T) {
	tok, ok := Decode(EncodeIndex("ref", 12))
	require.True(t, ok)
	assert.Equal(t, "REF", tok.Type)
	idx, ok := tok.Index()
	require.True(t, ok)
	assert.Equal(t, 12, idx)

	tok, ok = Decode(Encode("br", ""))
	require.True(t, ok)
	assert.Equal(t, "BR", tok.Type)
	assert.Empty(t, tok.Value)
	_, ok = tok.Index()
	assert.False(t, ok)

	_, ok = Decode("x" + EncodeIndex("ref", 1))
	assert.False(t, ok)
	_, ok = Decode("[OTHER::REF::1]")
	assert.False(t, ok)
}

func TestFindAll(t *testing.T) {
	text := "See 1" + EncodeIndex("ref", 0) + " and 2" + EncodeIndex("ref", 1) + Encode("note", "")
	tokens := FindAll(text)
	require.Len(t, tokens, 3)
	assert.Equal(t, "0", tokens[0].Value)
	assert.Equal(t, "1", tokens[1].Value)
	assert.Equal(t, "NOTE", tokens[2].Type)
	assert.Equal(t, EncodeIndex("ref", 0), text[tokens[0].Start:tokens[0].End])

	assert.Empty(t, FindAll("plain [text] with [brackets::x]"))
}

func TestStrip(t *testing.T) {
	tests := []struct {
		name, in, want string
	}{
		{"no tokens", "plain text [1] stays", "plain text [1] stays"},
		{"empty", "", ""},
		{"value form", "See 1[JATSREF::REF::0] and 1[JATSREF::REF::0] again.", "See 1 and 1 again."},
		{"type form", "a[JATSREF::BR]b", "ab"},
		{"spliced", "[JATSREF::[JATSREF::X]A::1]z", "z"},
		{"lowercase type is not a token", "[JATSREF::ref::1]", "[JATSREF::ref::1]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Strip(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, Strip(got))
			assert.False(t, Contains(got))
		})
	}
}

func TestStrip_Idempotent(t *testing.T) {
	inputs := []string{
		"",
		"[JATSREF::",
		"[JATSREF::[JATSREF::[JATSREF::X]Y]Z::9]",
		"[[JATSREF::REF::1]JATSREF::REF]",
		"text ] [ :: JATSREF",
	}
	for _, in := range inputs {
		once := Strip(in)
		assert.Equal(t, once, Strip(once), "input %q", in)
	}
}
