package filtergraph

import "strings"

var textEscaper = strings.NewReplacer(
	`\`, `\\`,
	`'`, `\'`,
	`:`, `\:`,
	`%`, `\%`,
)

var textUnescaper = strings.NewReplacer(
	`\\`, `\`,
	`\'`, `'`,
	`\:`, `:`,
	`\%`, `%`,
)

// EscapeText escapes drawtext text for use inside a quoted filter argument.
func EscapeText(text string) string {
	return textEscaper.Replace(text)
}

// UnescapeText reverses EscapeText.
func UnescapeText(text string) string {
	return textUnescaper.Replace(text)
}

// EscapePath normalizes path separators to '/' and escapes ':' so a path with
// a drive letter survives option parsing.
func EscapePath(path string) string {
	path = strings.ReplaceAll(path, `\`, "/")
	return strings.ReplaceAll(path, ":", `\:`)
}

// Quote wraps a value in single quotes.
func Quote(value string) string {
	return "'" + value + "'"
}
