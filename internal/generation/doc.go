// Package generation provides the per-job pipeline that turns a text
// prompt into validated flashcards, and the ModelClient boundary that
// abstracts the remote text-generation service (Ollama, Gemini, OpenAI)
// behind a single interface. Retry policy, output repair, and failure
// classification all live here so the rest of the application only ever
// sees a terminal outcome.
package generation
