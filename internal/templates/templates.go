// Package templates holds the question phrasings used to turn topics into
// questions, keyed by Bloom level.
package templates

import (
	"strings"

	"github.com/p-n-ai/pai-papers/internal/bloom"
)

// Placeholder is replaced with a topic when a template is rendered.
const Placeholder = "{topic}"

// Set maps each Bloom level to its question templates.
type Set map[bloom.Level][]string

// Default returns the built-in template set.
func Default() Set {
	return Set{
		bloom.Remember: {
			"Define {topic}.",
			"What is {topic}?",
			"List the main features of {topic}.",
			"State the key components of {topic}.",
			"Identify the characteristics of {topic}.",
			"Recall the fundamental principles of {topic}.",
			"Name the types of {topic}.",
		},
		bloom.Understand: {
			"Explain {topic} in your own words.",
			"Describe the concept of {topic}.",
			"Summarize the main points of {topic}.",
			"Discuss the significance of {topic}.",
			"Illustrate {topic} with an example.",
			"Interpret the meaning of {topic}.",
			"Compare {topic} with related concepts.",
		},
		bloom.Apply: {
			"Demonstrate how {topic} can be implemented.",
			"Apply the principles of {topic} to solve a practical problem.",
			"Show how {topic} works in a real-world scenario.",
			"Use {topic} to develop a solution.",
			"Implement {topic} in a given context.",
			"Execute the steps involved in {topic}.",
		},
		bloom.Analyze: {
			"Analyze the structure of {topic}.",
			"Break down {topic} into its constituent parts.",
			"Examine the relationship between {topic} and related concepts.",
			"Compare and contrast different aspects of {topic}.",
			"Investigate the factors that influence {topic}.",
			"Distinguish between the components of {topic}.",
		},
		bloom.Evaluate: {
			"Evaluate the effectiveness of {topic}.",
			"Assess the advantages and disadvantages of {topic}.",
			"Critique the approach used in {topic}.",
			"Judge the validity of {topic}.",
			"Justify the importance of {topic}.",
			"Recommend improvements for {topic}.",
		},
		bloom.Create: {
			"Design a system that implements {topic}.",
			"Develop a new approach for {topic}.",
			"Construct a model demonstrating {topic}.",
			"Propose a solution using {topic}.",
			"Formulate a hypothesis about {topic}.",
			"Generate alternative methods for {topic}.",
		},
	}
}

// For returns the templates for a level, falling back to the built-in list
// when the set has none.
func (s Set) For(level bloom.Level) []string {
	if t := s[level]; len(t) > 0 {
		return t
	}
	return Default()[level]
}

// Render substitutes topic into a template.
func Render(template, topic string) string {
	return strings.ReplaceAll(template, Placeholder, topic)
}
