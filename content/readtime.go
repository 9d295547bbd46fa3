package content

import "strings"

const wordsPerMinute = 200

// EstimateReadTime returns ceil(words/200) minutes, never less than one.
func EstimateReadTime(body string) int {
	words := len(strings.Fields(body))
	minutes := (words + wordsPerMinute - 1) / wordsPerMinute
	if minutes < 1 {
		return 1
	}
	return minutes
}
