package syntax

import (
	"errors"
	"fmt"

	"golang.org/x/text/language"
)

// ErrInvalidLanguage reports a string that is not a known BCP-47 language
// tag. Well-formed but unknown subtags (for example "english") are rejected,
// not just grammar violations.
var ErrInvalidLanguage = errors.New("invalid language tag")

// Language is a validated BCP-47 tag in canonical form: lowercase language
// subtag, titlecase script, uppercase region.
type Language string

func (l Language) String() string { return string(l) }

// ParseLanguage validates raw against BCP-47 and returns the canonical form.
func ParseLanguage(raw string) (Language, error) {
	tag, err := language.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidLanguage, err)
	}
	return Language(tag.String()), nil
}
