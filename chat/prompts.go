package chat

import "fmt"

// FallbackAnswer is returned when no snippet is relevant to the question.
const FallbackAnswer = "I couldn't find any relevant decks or slides for your request. Please try rephrasing your question or using different keywords."

const systemPrompt = `You are a presentation assistant helping internal teams reuse slides and sections from existing decks.

You receive:
- A user request.
- A list of snippets describing topics and slides from existing decks.

Your goals:
- Suggest how the user can structure their story.
- Recommend specific decks and slide numbers.
- For each recommendation, explain in 1-2 sentences why it is relevant.
- Only use information from the provided snippets. If something is not covered, say that it is not available.

Your answer should be concise and practical. Explicitly call out 'Deck: [title], Slides: [numbers]' when you reference material.`

const userPromptFormat = `User request: %s

Available snippets:
%s

Provide a helpful recommendation based on the available snippets.`

func buildUserPrompt(message, snippets string) string {
	return fmt.Sprintf(userPromptFormat, message, snippets)
}
