package core

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	// literal underscores and percent signs of a name survive a FileStem/NameFromStem round trip
	stemEscaper   = strings.NewReplacer("%", "%25", "_", "%5F")
	stemUnescaper = strings.NewReplacer("%5F", "_", "%25", "%")
)

// CleanString trims all leading and trailing whitespace in `s` and optionally lowers it.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

// CleanName collapses the whitespace of `s` to single spaces and normalizes it to NFC,
// so that names typed on different systems ("й" precomposed or not) end up as the same key.
func CleanName(s string) string {
	return norm.NFC.String(strings.Join(strings.Fields(s), " "))
}

// FileStem joins the words of `s` with underscores: "Математика Гр1" -> "Математика_Гр1".
// Underscores and percent signs inside words are escaped ("Intro_Go" -> "Intro%5FGo").
func FileStem(s string) string {
	words := strings.Fields(CleanName(s))
	for i, w := range words {
		words[i] = stemEscaper.Replace(w)
	}
	return strings.Join(words, "_")
}

// NameFromStem is the reverse of FileStem.
func NameFromStem(stem string) string {
	words := strings.Split(stem, "_")
	for i, w := range words {
		words[i] = stemUnescaper.Replace(w)
	}
	return strings.Join(words, " ")
}
