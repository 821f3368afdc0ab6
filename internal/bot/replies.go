package bot

import (
	_ "embed"
	"fmt"
)

//go:embed usage.txt
var usageText string

// Fixed reply texts. Kept close to the command handlers so the wording
// stays in one place.
const (
	replyRunSetup = "Unable to read settings please run `codewars setup` before codewars can run correctly"

	replySetupSaved = "All done. Settings saved!"

	replySetupMissingToken = "`Setup failed, missing required argument: --token`\n" +
		"Read your API access token here: https://www.codewars.com/users/edit\n" +
		"Usage: codewars setup --token <token>"

	replyTesting     = "Testing connection ..."
	replyTestSuccess = "Success - ready to rumble!!!"

	replyFindingChallenge = "Let's find you a challenge"
	replyTakeChallenge    = "\n\n*Take this challenge [`codewars yes`/`codewars no`]"

	replyDismissPrompt = "Hmmm, your current challenge will be dismissed. Continue? [`codewars yes`/`codewars no`]"
	replyKeepChallenge = "Ok, we will keep the current challenge. Type `codewars print` to review"
	replyNewChallenge  = "Ok, hold on as we get you a new challenge"
	replyDismissed     = "Ok, challenge dismissed. Use `codewars train` to fetch another."

	replyTrainFirst  = "Please use `codewars train` first."
	replyVerifyFirst = "Your solution has not passed verification yet. Use `codewars verify <solution>` before submitting."
	replyGradingBusy = "Hold on, your previous attempt is still being graded."

	replyNoJoke = "I seem to be all out of jokes right now. Try me again later."

	replySolutionValid   = "Well done! Solution is correct. :)"
	replyKataCompleted   = "## Kata completed"
	replyNoChallenge     = "no current challenge - run `codewars train` first"
	replyGradingTimedOut = "Grading timed out before a verdict arrived. Try `codewars verify` again."

	welcomeMessage = "Hi guys, roundhouse-kick anyone?\n" +
		"I can tell jokes, but very honest ones. Just say `Chuck Norris` to invoke me, " +
		"or type `codewars help` to start training."
)

func replyUnknown(text string) string {
	return fmt.Sprintf("`%s` is not a codewars function. Please use `codewars help` for a list of available functions.", text)
}

func replyUnsupportedLanguage(lang string) string {
	return fmt.Sprintf("Setup failed, unsupported language: `%s`", lang)
}

func replySolutionInvalid(reason string) string {
	return fmt.Sprintf("Nope. Your solution is incorrect. :(\n\n```## Stack trace\n%s```", reason)
}

func replyRemoteFailure(err error) string {
	return fmt.Sprintf("Something went wrong talking to codewars: %v", err)
}

func codeBlock(text string) string {
	return "```" + text + "```"
}
