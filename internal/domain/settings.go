package domain

import (
	"fmt"
	"strings"
)

// Supported training languages.
const (
	LanguageJavaScript = "javascript"
	LanguageRuby       = "ruby"
)

// DefaultStrategy is the workout tier used when setup omits --strategy.
const DefaultStrategy = "kyu_8_workout"

// Settings holds the per-installation judging-service credentials and
// preferences. Mutated only by the setup command.
type Settings struct {
	Token    string `json:"token"`
	Language string `json:"language"`
	Strategy string `json:"strategy"`
}

// SupportedLanguage reports whether lang is a language the judging
// service can grade for us.
func SupportedLanguage(lang string) bool {
	switch strings.ToLower(lang) {
	case LanguageJavaScript, LanguageRuby:
		return true
	}
	return false
}

// Validate checks the invariants a loaded or about-to-be-saved settings
// record must hold.
func (s *Settings) Validate() error {
	if s.Token == "" {
		return fmt.Errorf("token is empty")
	}
	if !SupportedLanguage(s.Language) {
		return fmt.Errorf("unsupported language: %q", s.Language)
	}
	return nil
}
