package i18n

// Translator retrieves human-readable messages for Issue codes.
// data provides optional metadata to embed in the message (for example,
// "max" or "key").
type Translator interface {
	Message(code string, data map[string]string) string
}

// dictTranslator is the built-in dictionary-based Translator.
type dictTranslator struct{}

func (dictTranslator) Message(code string, data map[string]string) string {
	switch code {
	case "invalid_type":
		return "invalid type"
	case "required":
		return "required property missing"
	case "unknown_key":
		return "unknown key"
	case "duplicate_key":
		return "duplicate key"
	case "too_short":
		return "too short"
	case "too_long":
		return "too long"
	case "too_few_graphemes":
		return "too few graphemes"
	case "too_many_graphemes":
		return "too many graphemes"
	case "too_few_items":
		return "too few items"
	case "too_many_items":
		return "too many items"
	case "out_of_range":
		return "out of range"
	case "invalid_enum":
		return "value not in enum"
	case "const_mismatch":
		return "value does not match const"
	case "invalid_format":
		return "invalid format"
	case "discriminator_missing":
		return "union value has no $type"
	case "discriminator_unknown":
		return "unknown union $type"
	case "token_mismatch":
		return "value does not match token"
	case "blob_too_large":
		return "blob exceeds maximum size"
	case "mime_not_allowed":
		return "mime type not allowed"
	case "invalid_key":
		return "invalid record key"
	case "parse_error":
		return "parse error"
	}
	return code
}

var currentTranslator Translator = dictTranslator{}

// SetTranslator replaces the Translator implementation. Passing nil restores
// the built-in dictionary.
func SetTranslator(tr Translator) {
	if tr == nil {
		currentTranslator = dictTranslator{}
		return
	}
	currentTranslator = tr
}

// T fetches a message for the given code using the current Translator.
func T(code string, data map[string]string) string { return currentTranslator.Message(code, data) }
