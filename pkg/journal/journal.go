// Package journal converts between a free-form journal document and the
// ordered message list sent to a chat provider.
//
// A document is a single text blob whose turns are separated by runs of three
// or more hyphens. The document carries no explicit role markers: a turn is an
// assistant turn only when it starts with the assistant header written by
// BuildAssistantReply, every other turn belongs to the user.
package journal

import (
	"iter"
	"regexp"
	"strings"

	"github.com/papercomputeco/chatcbt/pkg/llm"
)

// Delimiter is the separator written between turns.
const Delimiter = "---"

// padding separates appended text from what precedes it.
const padding = "\n\n"

var (
	delimiterRe         = regexp.MustCompile(`---+`)
	trailingDelimiterRe = regexp.MustCompile(`---+\s*$`)
)

// ParseTurns splits text on turn delimiters and yields each trimmed fragment
// in document order. A document with n delimiters always yields n+1 turns;
// empty fragments are yielded as empty strings so indexes stay aligned with
// the document. The sequence is lazy and may be ranged over more than once.
func ParseTurns(text string) iter.Seq[string] {
	return func(yield func(string) bool) {
		rest := text
		for {
			loc := delimiterRe.FindStringIndex(rest)
			if loc == nil {
				yield(strings.TrimSpace(rest))
				return
			}

			if !yield(strings.TrimSpace(rest[:loc[0]])) {
				return
			}
			rest = rest[loc[1]:]
		}
	}
}

// AssistantHeader returns the visible header that marks an assistant turn.
func AssistantHeader(assistantName string) string {
	return "**" + assistantName + ":**"
}

// TurnToMessage classifies a single turn. The turn is an assistant message when,
// after trimming, it begins with the assistant header for assistantName; the
// header is then stripped from the content. An empty assistantName never
// matches, so every turn is a user message.
func TurnToMessage(turn, assistantName string) llm.Message {
	turn = strings.TrimSpace(turn)

	if assistantName != "" {
		if rest, ok := strings.CutPrefix(turn, AssistantHeader(assistantName)); ok {
			return llm.Message{
				Role:    llm.RoleAssistant,
				Content: strings.TrimSpace(rest),
			}
		}
	}

	return llm.NewUserMessage(turn)
}

// BuildMessages parses a whole document into conversation history.
func BuildMessages(text, assistantName string) []llm.Message {
	var msgs []llm.Message
	for turn := range ParseTurns(text) {
		msgs = append(msgs, TurnToMessage(turn, assistantName))
	}
	return msgs
}

// BuildAssistantReply renders a provider reply as document text. TurnToMessage
// classifies the result as an assistant turn whose content is the reply.
func BuildAssistantReply(responseText, assistantName string) string {
	return padding + AssistantHeader(assistantName) + " " + responseText
}

// BuildSummaryAppend renders a summary reply as document text. Summaries are
// not conversational turns, so no header is added.
func BuildSummaryAppend(responseText string) string {
	return padding + responseText
}

// ReplyAppend returns the text to append to doc for an assistant reply: the
// reply is fenced by delimiters so it forms its own turn and the user's next
// entry starts a new one. No leading delimiter is written when doc already
// ends with one.
func ReplyAppend(doc, responseText, assistantName string) string {
	var b strings.Builder
	if !EndsWithDelimiter(doc) {
		b.WriteString(padding + Delimiter)
	}
	b.WriteString(BuildAssistantReply(responseText, assistantName))
	b.WriteString(padding + Delimiter + padding)
	return b.String()
}

// EndsWithDelimiter reports whether the last non-whitespace text in doc is a
// turn delimiter.
func EndsWithDelimiter(doc string) bool {
	return trailingDelimiterRe.MatchString(doc)
}

// AwaitingReply reports whether doc ends with a delimiter closing a user turn,
// the signal that the user has finished writing and wants a reply. A document
// whose last non-empty turn is an assistant reply is never awaiting one.
func AwaitingReply(doc, assistantName string) bool {
	if !EndsWithDelimiter(doc) {
		return false
	}

	last := llm.Message{}
	for turn := range ParseTurns(doc) {
		if turn != "" {
			last = TurnToMessage(turn, assistantName)
		}
	}
	return last.Role == llm.RoleUser
}
