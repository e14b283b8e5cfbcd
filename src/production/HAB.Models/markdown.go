package habmodels

import "strings"

var markdownEscaper = strings.NewReplacer("_", "\\_", "*", "\\*", "`", "\\`", "[", "\\[")

// EscapeMarkdown escapes text for Telegram's legacy Markdown parse mode
func EscapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}
