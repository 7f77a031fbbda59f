package bloom

import "regexp"

// keywords lists the verbs and phrases that signal each level. Some entries
// appear under more than one level on purpose ("compare", "classify", "show").
var keywords = map[Level][]string{
	Remember: {
		"define", "list", "state", "identify", "name", "label", "recall",
		"recognize", "select", "what is", "who", "when", "where", "match",
		"choose", "find", "show", "spell", "tell", "write",
	},
	Understand: {
		"explain", "describe", "summarize", "discuss", "interpret", "paraphrase",
		"illustrate", "classify", "compare", "translate", "outline", "review",
		"restate", "express", "locate", "report", "recognize", "give example",
	},
	Apply: {
		"apply", "demonstrate", "use", "implement", "solve", "show", "execute",
		"construct", "compute", "modify", "operate", "prepare", "produce",
		"relate", "develop", "organize", "utilize", "sketch", "calculate",
	},
	Analyze: {
		"analyze", "examine", "compare", "contrast", "distinguish", "differentiate",
		"investigate", "categorize", "breakdown", "separate", "infer", "arrange",
		"classify", "order", "connect", "divide", "select", "survey", "inspect",
	},
	Evaluate: {
		"evaluate", "assess", "judge", "critique", "justify", "argue", "defend",
		"support", "rate", "prioritize", "recommend", "conclude", "predict",
		"criticize", "weigh", "measure", "validate", "prove", "disprove",
	},
	Create: {
		"create", "design", "develop", "construct", "plan", "produce", "invent",
		"formulate", "propose", "compose", "generate", "derive", "modify",
		"assemble", "set up", "devise", "imagine", "integrate", "synthesize",
	},
}

// keywordPatterns holds one whole-word matcher per keyword, compiled once.
var keywordPatterns = compileKeywords()

func compileKeywords() map[Level][]*regexp.Regexp {
	out := make(map[Level][]*regexp.Regexp, len(keywords))
	for level, words := range keywords {
		for _, w := range words {
			out[level] = append(out[level], regexp.MustCompile(`\b`+regexp.QuoteMeta(w)+`\b`))
		}
	}
	return out
}

// Keywords returns a copy of the keyword list for a level.
func Keywords(l Level) []string {
	return append([]string(nil), keywords[l]...)
}
