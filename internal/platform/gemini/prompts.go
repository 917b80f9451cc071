package gemini

import "fmt"

// Prompts instruct the model to answer with a single JSON object so the
// response can be parsed without stripping prose.

const termsInstructions = `You are building a study glossary from course material.
Identify the key terms a learner must know: named concepts, techniques,
definitions, and acronyms. For each term give the definition as stated or
clearly implied by the material itself. If the material never defines the
term, leave the definition empty rather than inventing one.

Respond with a single JSON object:
{"terms": [{"term": "...", "definition": "...", "context": "short quote of where the term appears"}]}
`

const cardsInstructions = `You are writing study flashcards from course material.
Create question/answer cards covering the important ideas, relationships,
and facts in the material. Questions must be answerable from the material
alone. Tag each card with 1-3 short lowercase topic tags.

Respond with a single JSON object:
{"cards": [{"front": "...", "back": "...", "tags": ["..."]}]}
`

func termsPrompt(text string) string {
	return fmt.Sprintf("%s\nMaterial:\n%s", termsInstructions, text)
}

func cardsPrompt(text string) string {
	return fmt.Sprintf("%s\nMaterial:\n%s", cardsInstructions, text)
}
