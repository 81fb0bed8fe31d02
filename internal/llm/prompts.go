package llm

import "fmt"

// PoemLocationsPromptTemplate asks the model for the geography of a single
// poem. The model may infer settings from context (ecological or cultural
// clues), not just explicit mentions.
const PoemLocationsPromptTemplate = `You are analyzing a poem to identify specific geographic locations. Return a JSON array of strings, where each string is a location that is either explicitly mentioned, strongly implied, or clearly associated with the content of the poem. You may use general world knowledge to infer settings from context, such as ecological or cultural clues (e.g., polar bears -> Arctic).

The locations must be specific enough to geocode. For example:
- Valid: cities, states, regions, named rivers, mountains, parks, or landmarks.
- Not valid: country names or generic regions such as "the coast", "the mountains", "the tropics", or "the countryside".

If no valid location can be determined, return exactly: ["N/A"].

Return only the JSON array - no explanation, comments, markdown formatting, or additional text.

Example outputs:
["Portland, OR, US"]
["Columbia River, US", "Sahara Desert, Africa"]
["N/A"]

Title: %s
Text: %s`

// AuthorLocationsPromptTemplate asks the model where a poet was born, lived,
// worked, or explicitly wrote about. General knowledge about the poet is
// allowed even when the provided biography does not mention a place.
const AuthorLocationsPromptTemplate = `You are analyzing information about a poet to identify geographic locations where the poet was born, lived, worked, or explicitly wrote about. You may also use general knowledge you have about the poet to infer relevant locations, even if those locations do not explicitly appear in the provided poet information.

Rules:
- Output: Return only a JSON array of strings.
- Specificity: Each location must be precise enough to geocode (e.g., city, town, state, named rivers, lakes, mountains, parks, or landmarks).
- Relevant locations only: Do not include places merely mentioned in passing or unrelated to the poet's personal history or creative work.
- Invalid locations: Do not include country names or generic geographic terms such as "the coast", "the mountains", or "the countryside".
- If no valid locations are found, return exactly: ["N/A"].
- Do not include explanations, comments, markdown formatting, or additional text - only the JSON array.

Example outputs:
["Portland, OR, US"]
["Columbia River, US", "Sahara Desert, Africa"]
["N/A"]

Poet Information to Analyze:
Poet Name: %s
%s`

// BuildPoemLocationsPrompt renders the extraction prompt for a poem.
func BuildPoemLocationsPrompt(title, body string) string {
	return fmt.Sprintf(PoemLocationsPromptTemplate, title, body)
}

// BuildAuthorLocationsPrompt renders the extraction prompt for a poet.
func BuildAuthorLocationsPrompt(name, bio string) string {
	return fmt.Sprintf(AuthorLocationsPromptTemplate, name, bio)
}
