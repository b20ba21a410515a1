package markdown

import "strings"

// Taken from https://core.telegram.org/bots/api#markdownv2-style.
const mdV2SpecialChars = `\_*[]()~>#+-=|{}.!` + "`"

var mdV2Lookup = func() [256]bool {
	var m [256]bool
	for _, c := range []byte(mdV2SpecialChars) {
		m[c] = true
	}
	return m
}()

// EscapeV2 escapes text for a MarkdownV2 message.
func EscapeV2(input string) string {
	charsToEscape := 0

	for i := range len(input) {
		if mdV2Lookup[input[i]] {
			charsToEscape++
		}
	}
	if charsToEscape == 0 {
		return input
	}

	var b strings.Builder
	b.Grow(len(input) + charsToEscape)

	for i := range len(input) {
		c := input[i]
		if mdV2Lookup[c] {
			b.WriteByte('\\')
		}
		b.WriteByte(c)
	}

	return b.String()
}

// Bold escapes input and wraps it in bold markers.
func Bold(input string) string {
	return "*" + EscapeV2(input) + "*"
}

// Field renders a "Label: value" line with the label in bold.
func Field(label, value string) string {
	return Bold(label+":") + " " + EscapeV2(value)
}

// Link renders an inline link. Inside the URL only ")" and "\" need escaping.
func Link(text, url string) string {
	url = strings.NewReplacer(`\`, `\\`, `)`, `\)`).Replace(url)

	return "[" + EscapeV2(text) + "](" + url + ")"
}
