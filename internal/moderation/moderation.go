// Package moderation checks user content against banned words.
package moderation

import (
	"fmt"
	"strings"

	"github.com/yatube-net/yatube/internal/entities"
)

// ValidationError is returned when text contains a banned word.
type ValidationError struct {
	Word entities.BannedWord
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("text contains banned word %s", e.Word)
}

// Validate returns text unchanged if no banned word is a substring of lower-cased text.
// Otherwise the first matched word is reported in ValidationError.
func Validate(text string, words []entities.BannedWord) (string, error) {
	lower := strings.ToLower(text)

	for _, w := range words {
		if strings.Contains(lower, string(w)) {
			return "", &ValidationError{Word: w}
		}
	}

	return text, nil
}
