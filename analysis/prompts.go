package analysis

import "strings"

const deckTextPlaceholder = "{{DECK_TEXT}}"
const slideTextPlaceholder = "{{SLIDE_TEXT}}"

const deckPrompt = `
You are analyzing a presentation deck used in an agency or consulting context.

You receive the deck text, slide by slide, in this format:

"Slide 1:
[text]

Slide 2:
[text]

..."

Your goal is to produce a JSON object with this exact shape:

{
  "deck_title": "cleaned up title in one line",
  "deck_summary": "2-4 sentences in plain language that explain what this deck is about and what problem it addresses.",
  "main_themes": ["short phrase", "short phrase", "..."],
  "primary_audiences": ["job roles or industries", "..."],
  "use_cases_for_other_presentations": [
    "Short sentence describing when this deck is useful to reuse in another presentation.",
    "..."
  ]
}

Rules:

Only use information clearly present in the text.

If you are not sure about a field, use an empty string or an empty array as appropriate.

Respond with JSON only, no commentary.

Deck text:
{{DECK_TEXT}}
`

const topicsPrompt = `
You are analyzing a full presentation deck and must segment it into logical topics that represent distinct parts of the story.

You will receive the deck text, slide by slide, in this format:

"Slide 1:
[text]

Slide 2:
[text]

..."

Return a JSON object with a single key "topics" holding an array of topics. Each topic is one object with this exact shape:

{
  "topic_title": "short name for this topic",
  "topic_summary": "3-5 sentence description of what this topic covers in plain language.",
  "story_context": "one of: 'credibility', 'market_problem', 'solution_vision', 'implementation', 'results', 'other'. Choose the closest.",
  "topics": ["short keyword or phrase", "..."],
  "reuse_suggestions": [
    "Short sentence describing how this topic or group of slides could be reused in another presentation.",
    "..."
  ],
  "slide_numbers": [list of slide numbers this topic covers]
}

Rules:

Use only information clearly present in the deck text.

Create around 5 to 12 topics for a typical deck.

Slide numbers must match the input slide numbers.

Respond with JSON only, no commentary.

Deck text:
{{DECK_TEXT}}
`

const slidePrompt = `
You are labeling a single presentation slide.

You receive the text content of a slide. Return a JSON object with this exact shape:

{
  "slide_type": "one of: 'case_study', 'vision', 'market_context', 'data_chart', 'model', 'process', 'roadmap', 'cover', 'credits', 'other'",
  "slide_caption": "one sentence in plain language that explains what this slide is about.",
  "topics": ["short keyword or phrase", "..."],
  "reusable": "yes" or "no" or "needs_edit"
}

Rules:

Use only the information present in the slide text.

Keep slide_caption short and concrete.

Respond with JSON only, no commentary.

Slide text:
{{SLIDE_TEXT}}
`

func buildDeckPrompt(deckText string) string {
	return strings.Replace(deckPrompt, deckTextPlaceholder, deckText, 1)
}

func buildTopicsPrompt(deckText string) string {
	return strings.Replace(topicsPrompt, deckTextPlaceholder, deckText, 1)
}

func buildSlidePrompt(slideText string) string {
	return strings.Replace(slidePrompt, slideTextPlaceholder, slideText, 1)
}
