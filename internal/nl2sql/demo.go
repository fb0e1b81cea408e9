package nl2sql

import "strings"

// DemoComputerScienceSQL answers questions about computer science students.
const DemoComputerScienceSQL = "SELECT full_name, major FROM students WHERE major = 'Computer Science'"

// DemoPattern maps a phrase, matched as a case-insensitive substring, to a
// fixed SQL statement that is returned without consulting the model.
type DemoPattern struct {
	Phrase string
	SQL    string
}

var DefaultDemoPatterns = []DemoPattern{
	{Phrase: "computer science", SQL: DemoComputerScienceSQL},
}

// matchDemoPattern returns the first pattern in table order whose phrase
// occurs in text.
func matchDemoPattern(patterns []DemoPattern, text string) (DemoPattern, bool) {
	lowered := strings.ToLower(text)
	for _, pattern := range patterns {
		phrase := strings.ToLower(strings.TrimSpace(pattern.Phrase))
		if phrase == "" {
			continue
		}
		if strings.Contains(lowered, phrase) {
			return pattern, true
		}
	}
	return DemoPattern{}, false
}
