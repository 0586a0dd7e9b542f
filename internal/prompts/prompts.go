// Package prompts holds the system instructions primed into the voice
// engine before the first turn.
package prompts

import "strings"

// DefaultSystem primes the model as a voice banking assistant. The output
// is spoken aloud, so it must stay plain text.
const DefaultSystem = "You are a helpful assistant for banking services. " +
	"You are interacting with a user over a voice interface, so respond to " +
	"voice commands in a natural and conversational manner. Do not use any " +
	"emojis or special characters. You will detect the language of the user " +
	"and respond in the same language."

// ForSession resolves the final system instruction for a voice session,
// appending the demo identity the tools operate on.
func ForSession(systemPrompt, userID, billerNickname string) string {
	base := systemPrompt
	if base == "" {
		base = DefaultSystem
	}
	var extras []string
	if userID != "" {
		extras = append(extras, "Your `user_id` is `"+userID+"`.")
	}
	if billerNickname != "" {
		extras = append(extras, "Your bill provider is `"+billerNickname+"`.")
	}
	if len(extras) == 0 {
		return base
	}
	return base + " " + strings.Join(extras, " ")
}
