package prompts

import "fmt"

// Summary returns the directive that asks for a recap of the conversation
// instead of a conversational reply.
func Summary(language string) string {
	return fmt.Sprintf(`Summarize this conversation in %[1]s.

Respond only with a markdown table with the columns "Negative thoughts", "Cognitive distortions" and "Reframed thoughts".
List each negative thought the user expressed in its own row, name the distortions it shows,
and suggest a balanced reframing. Write the table headers and contents in %[1]s.`, language)
}
