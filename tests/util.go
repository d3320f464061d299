package testutil

import (
	"fmt"
	"math/rand"
	"sync"
	"testing"

	"github.com/trezcool/cohortgen/core"
)

// Logger is a core.Logger writing to the test log and keeping every message.
// A nil testing.TB only keeps the messages.
type Logger struct {
	t    testing.TB
	mu   sync.Mutex
	Msgs []string
}

var _ core.Logger = (*Logger)(nil)

func NewLogger(t testing.TB) *Logger {
	return &Logger{t: t}
}

func (l *Logger) log(level, msg string, args []interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	line := fmt.Sprintf("[%s] %s", level, msg)
	l.Msgs = append(l.Msgs, line)
	if l.t != nil {
		l.t.Log(append([]interface{}{line}, args...)...)
	}
}

func (l *Logger) Debug(msg string, args ...interface{}) { l.log("DEBUG", msg, args) }
func (l *Logger) Info(msg string, args ...interface{})  { l.log("INFO", msg, args) }
func (l *Logger) Warn(msg string, args ...interface{})  { l.log("WARN", msg, args) }
func (l *Logger) Error(msg string, args ...interface{}) { l.log("ERROR", msg, args) }

func (l *Logger) Fatal(msg string, args ...interface{}) {
	l.log("FATAL", msg, args)
	if l.t != nil {
		l.t.FailNow()
	}
}

// Rand returns a deterministic random source for `seed`.
func Rand(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

// Seed returns a pointer to `seed`, for optional seed fields.
func Seed(seed int64) *int64 {
	return &seed
}

// Config returns a test configuration with defaults and the given generator settings.
func Config(students int, seed int64) *core.Config {
	return &core.Config{
		AppName:  "Cohortgen",
		Env:      "TEST",
		Debug:    true,
		TestMode: true,
		Generator: core.GeneratorConfig{
			StudentsAmount: students,
			RandomSeed:     Seed(seed),
			Archetypes: []core.ArchetypeConfig{
				{Kind: "weak", GroupSizeMin: 10, GroupSizeMax: 10},
				{Kind: "strong", GroupSizeMin: 10, GroupSizeMax: 10},
			},
			Courses:        []core.CourseConfig{{Name: "Math", Lessons: 5, Webinars: 2, Tests: 4}},
			Lessons:        core.Range{Min: 4, Max: 10},
			Webinars:       core.Range{Min: 2, Max: 4},
			Tests:          core.Range{Min: 1, Max: 4},
			MixedLowUpper:  15,
			MixedHighLower: 90,
		},
		Output:   core.OutputConfig{Sink: "memory"},
		Database: core.DatabaseConfig{Engine: "sqlite", Path: ":memory:"},
		Server:   core.ServerConfig{Host: ":0"},
	}
}
