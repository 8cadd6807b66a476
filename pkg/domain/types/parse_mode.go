package types

import "fmt"

// ParseMode records which path produced the structured model response
type ParseMode string

const (
	// ParseModeStrict means the whole model output was one schema-valid JSON object
	ParseModeStrict ParseMode = "strict"
	// ParseModeLenient means a JSON block was extracted from surrounding text
	ParseModeLenient ParseMode = "lenient"
	// ParseModeFallback means nothing usable was found and defaults were used
	ParseModeFallback ParseMode = "fallback"
)

// IsValid checks if the parse mode is valid
func (m ParseMode) IsValid() bool {
	switch m {
	case ParseModeStrict, ParseModeLenient, ParseModeFallback:
		return true
	default:
		return false
	}
}

// String returns the string representation of the parse mode
func (m ParseMode) String() string {
	return string(m)
}

// ParseParseMode parses a string into a ParseMode
func ParseParseMode(s string) (ParseMode, error) {
	mode := ParseMode(s)
	if !mode.IsValid() {
		return "", fmt.Errorf("invalid parse mode: %s", s)
	}
	return mode, nil
}
