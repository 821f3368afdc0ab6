package bot

import (
	"strings"

	"github.com/mark4carter/codewarsbot/internal/domain"
)

// Verb is a recognized command keyword.
type Verb int

const (
	// VerbUnknown is any unrecognized keyword after the trigger.
	VerbUnknown Verb = iota
	VerbSetup
	VerbTest
	VerbTrain
	VerbVerify
	VerbSubmit
	VerbPrint
	VerbYes
	VerbNo
	VerbHelp
)

// ParseVerb maps a token to its verb. Anything unrecognized maps to
// VerbUnknown, which the router reports explicitly.
func ParseVerb(token string) Verb {
	switch strings.ToLower(token) {
	case "setup":
		return VerbSetup
	case "test":
		return VerbTest
	case "train":
		return VerbTrain
	case "verify":
		return VerbVerify
	case "submit":
		return VerbSubmit
	case "print":
		return VerbPrint
	case "yes":
		return VerbYes
	case "no":
		return VerbNo
	case "help":
		return VerbHelp
	}
	return VerbUnknown
}

// extractVerb pulls the command verb out of raw chat text. The verb is
// the second whitespace-delimited token, truncated at the first newline
// so multi-line payloads (pasted solutions) can follow it.
func extractVerb(text string) (Verb, bool) {
	tokens := strings.Split(strings.TrimSpace(text), " ")
	if len(tokens) < 2 {
		return VerbUnknown, false
	}
	token := strings.SplitN(tokens[1], "\n", 2)[0]
	if token == "" {
		return VerbUnknown, false
	}
	return ParseVerb(token), true
}

// setupArgs are the named options accepted by the setup command.
type setupArgs struct {
	Token    string
	Language string
	Strategy string
}

// parseSetupArgs scans the message tokens for --token/-t, --language/-l
// and --strategy/-s option pairs, applying the documented defaults.
func parseSetupArgs(text string) setupArgs {
	args := setupArgs{}
	tokens := strings.Fields(text)
	for i := 0; i < len(tokens)-1; i++ {
		switch tokens[i] {
		case "--token", "-t":
			args.Token = tokens[i+1]
			i++
		case "--language", "-l":
			args.Language = strings.ToLower(tokens[i+1])
			i++
		case "--strategy", "-s":
			args.Strategy = strings.ToLower(tokens[i+1])
			i++
		}
	}
	if args.Language == "" {
		args.Language = domain.LanguageJavaScript
	}
	if args.Strategy == "" {
		args.Strategy = domain.DefaultStrategy
	}
	return args
}

// extractSolution returns everything after the first "verify" keyword,
// which is the candidate solution text. The keyword is matched
// case-insensitively, like the verb itself.
func extractSolution(text string) string {
	idx := strings.Index(strings.ToLower(text), "verify")
	if idx < 0 {
		return ""
	}
	return strings.TrimSpace(text[idx+len("verify"):])
}
