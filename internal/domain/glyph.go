package domain

import "strings"

// GlyphRule replaces every occurrence of Pattern with Glyph.
type GlyphRule struct {
	Pattern string
	Glyph   string
}

// DefaultGlyphRules turns telop text into a short symbol string. Rules are
// applied in order against the same string, so compound phrases (雪か雨,
// 後時々) must stay ahead of the single conditions they contain.
var DefaultGlyphRules = []GlyphRule{
	{"晴", "☀"},
	{"曇", "☁"},
	{"雪か雨", "☃"},
	{"雨か雪", "☃"},
	{"雨", "☂"},
	{"雪", "☃"},
	{"後時々", "/"},
	{"後", "/"},
	{"時々", "/"},
	{"一時", "/"},
	{"止む", "☁"},
}

// Glyphify applies rules in order.
func Glyphify(text string, rules []GlyphRule) string {
	for _, r := range rules {
		text = strings.ReplaceAll(text, r.Pattern, r.Glyph)
	}
	return text
}
