package domain

import "strings"

// TitleMaxRunes is the length a derived title is cut to before the ellipsis.
const TitleMaxRunes = 50

// DeriveTitle turns the first user message of a session into its title.
// Surrounding whitespace is not part of the title.
func DeriveTitle(content string) string {
	content = strings.TrimSpace(content)
	r := []rune(content)
	if len(r) <= TitleMaxRunes {
		return content
	}
	return string(r[:TitleMaxRunes]) + "..."
}
