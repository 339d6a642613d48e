package messaging

import "github.com/OnekiDevs/oneki/internal/services/counting"

// Language selects the translation table for user-facing copy
type Language string

const (
	// LanguageEnglish is the default language
	LanguageEnglish Language = "en"

	// LanguageSpanish matches the original deployment's main audience
	LanguageSpanish Language = "es"
)

// ParseLanguage maps a configuration value to a supported language,
// falling back to English
func ParseLanguage(value string) Language {
	if Language(value) == LanguageSpanish {
		return LanguageSpanish
	}
	return LanguageEnglish
}

// Config holds configuration for the messaging service
type Config struct {
	// DefaultLanguage is used when an input leaves Language empty
	DefaultLanguage Language
}

// GetViolationMessageInput contains parameters for a rule-violation message
type GetViolationMessageInput struct {
	// Outcome is the validator decision being announced
	Outcome counting.Outcome

	// Mention is the offending member's mention string
	Mention string

	Language Language
}

// GetViolationMessageOutput contains the rendered violation message
type GetViolationMessageOutput struct {
	Message string
}

// GetConfirmCopyInput selects the copy for the disable confirmation flow
type GetConfirmCopyInput struct {
	Language Language
}

// GetConfirmCopyOutput carries every string the confirmation flow needs
type GetConfirmCopyOutput struct {
	Prompt    string
	Confirmed string
	Cancelled string
	TimedOut  string
}

// GetStatsCopyInput selects the copy for the stats embeds
type GetStatsCopyInput struct {
	Language Language
}

// GetStatsCopyOutput carries the static strings of the stats views
type GetStatsCopyOutput struct {
	// Global leaderboard. GlobalPageFooter is a format string taking
	// the page number.
	GlobalTitle      string
	GlobalEmpty      string
	GlobalEndOfPages string
	GlobalPageFooter string

	// Server stats embed
	ServerTitle         string
	ServerRecordField   string
	ServerRecordWhen    string
	ServerCurrentField  string
	ServerHolderField   string
	ServerNotConfigured string

	// User stats embed
	UserGlobalField string
	UserGuildField  string
	UserNoStats     string
}
