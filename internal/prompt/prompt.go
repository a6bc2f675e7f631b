// Package prompt builds the styled chat prompts sent to the model.
// Each style pairs a system prompt with optional few-shot examples
// that anchor the tone before the real question arrives.
package prompt

import (
	"strings"

	"github.com/firebase/genkit/go/ai"
)

// Response styles.
const (
	StyleDefault = "default"
	StylePirate  = "pirate"
	StyleKid     = "kid"
	StyleBullets = "bullets"
)

const noContextPlaceholder = "No relevant context found."

var systemPrompts = map[string]string{
	StyleDefault: "You are a helpful assistant that answers questions based on Wikipedia content. " +
		"Provide accurate, informative responses using the given context. " +
		"If the context doesn't contain enough information to answer the question, " +
		"say so clearly and provide what information you can.",
	StylePirate: "You are a pirate who answers questions based on Wikipedia content. " +
		"Respond in pirate speak with 'arr', 'matey', 'ye', and other pirate expressions. " +
		"Still provide accurate information from the context, but make it fun and pirate-like. " +
		"If ye don't have enough information in the context, say so like a true pirate!",
	StyleKid: "You are a friendly teacher who explains things to children. " +
		"Use simple words, short sentences, and fun examples. " +
		"Make complex topics easy to understand for kids. " +
		"Use the Wikipedia context to give accurate but kid-friendly explanations. " +
		"If the context doesn't have enough info, explain that in a nice way kids can understand.",
	StyleBullets: "You are an assistant that provides clear, organized answers in bullet point format. " +
		"Structure your responses using bullet points and sub-bullets when helpful. " +
		"Base your answers on the Wikipedia context provided. " +
		"Use bullet points to break down complex information into digestible pieces. " +
		"If context is insufficient, clearly state this in bullet format.",
}

// fewShotExamples anchor a style's voice with one worked exchange.
var fewShotExamples = map[string][]*ai.Message{
	StylePirate: {
		ai.NewUserMessage(ai.NewTextPart("Context: The ocean covers 71% of Earth's surface.\n\nWhat percentage of Earth is covered by ocean?")),
		ai.NewModelMessage(ai.NewTextPart("Arr matey! According to me trusty knowledge, the mighty ocean covers 71% of our beautiful Earth's surface! " +
			"That be more than two-thirds of our planet, ye savvy sailor! The seas be vast and full of treasures!")),
	},
	StyleKid: {
		ai.NewUserMessage(ai.NewTextPart("Context: Elephants are the largest land animals. They can weigh up to 6,000 kilograms.\n\nHow big are elephants?")),
		ai.NewModelMessage(ai.NewTextPart("Wow! Elephants are REALLY big! They're the biggest animals that walk on land. " +
			"An elephant can weigh as much as 6,000 kilograms - that's like 4 cars put together! " +
			"Isn't that amazing? They're like gentle giants!")),
	},
	StyleBullets: {
		ai.NewUserMessage(ai.NewTextPart("Context: Python is a programming language created by Guido van Rossum in 1991. It emphasizes code readability.\n\nTell me about Python programming language.")),
		ai.NewModelMessage(ai.NewTextPart("• **Creator**: Guido van Rossum\n" +
			"• **Year Created**: 1991\n" +
			"• **Key Feature**: Emphasizes code readability\n" +
			"• **Type**: Programming language\n" +
			"• **Philosophy**: Makes code easy to read and understand")),
	},
}

// Styles returns the available response styles in display order.
func Styles() []string {
	return []string{StyleDefault, StylePirate, StyleKid, StyleBullets}
}

// Valid reports whether name is a known style.
func Valid(name string) bool {
	_, ok := systemPrompts[name]
	return ok
}

// System returns the system prompt for the given style.
// Unknown styles fall back to the default style.
func System(style string) string {
	if text, ok := systemPrompts[style]; ok {
		return text
	}
	return systemPrompts[StyleDefault]
}

// Build assembles the message sequence for one question: few-shot
// examples for the style (if any) followed by a user message carrying
// the retrieved context and the question. The system prompt is returned
// separately by System.
func Build(context []string, question, style string) []*ai.Message {
	if !Valid(style) {
		style = StyleDefault
	}

	messages := make([]*ai.Message, 0, 3)
	messages = append(messages, fewShotExamples[style]...)

	formatted := noContextPlaceholder
	if len(context) > 0 {
		formatted = strings.Join(context, "\n\n")
	}

	messages = append(messages, ai.NewUserMessage(ai.NewTextPart(
		"Context from Wikipedia:\n"+formatted+"\n\nQuestion: "+question)))

	return messages
}

// FormatPreview renders a short single-line preview of the retrieved
// context, truncated at a word boundary.
func FormatPreview(context []string, maxLen int) string {
	if len(context) == 0 {
		return "No context available"
	}

	full := strings.Join(context, " ")
	if len(full) <= maxLen {
		return full
	}

	preview := full[:maxLen]
	if i := strings.LastIndex(preview, " "); i > 0 {
		preview = preview[:i]
	}
	return preview + "..."
}
