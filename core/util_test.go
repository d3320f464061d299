package core

import (
	"testing"
)

func TestCleanName(t *testing.T) {
	decomposed := "Русски\u0438\u0306 язык" // и + combining breve
	tests := []struct {
		in   string
		want string
	}{
		{in: "  Math  ", want: "Math"},
		{in: decomposed, want: "Русский язык"},
		{in: "\tМатематика Гр1\n", want: "Математика Гр1"},
		{in: "Math  \t Гр2", want: "Math Гр2"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := CleanName(tt.in); got != tt.want {
				t.Errorf("CleanName(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestFileStem(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "Математика Гр1", want: "Математика_Гр1"},
		{in: " Русский   язык Гр1 ", want: "Русский_язык_Гр1"},
		{in: "Math", want: "Math"},
		{in: "Intro_Go Гр1", want: "Intro%5FGo_Гр1"},
		{in: "100% Math", want: "100%25_Math"},
		{in: "a%5F b", want: "a%255F_b"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := FileStem(tt.in)
			if got != tt.want {
				t.Errorf("FileStem(%q) = %q, want %q", tt.in, got, tt.want)
			}
			if back := NameFromStem(got); back != CleanName(tt.in) {
				t.Errorf("NameFromStem(%q) = %q, want %q", got, back, CleanName(tt.in))
			}
		})
	}
}

func TestArgumentError(t *testing.T) {
	err := NewArgumentError("no header row")
	if !IsInvalidArgument(err) {
		t.Errorf("IsInvalidArgument(%v) = false", err)
	}
	if got, want := err.Error(), "invalid argument: no header row"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}
