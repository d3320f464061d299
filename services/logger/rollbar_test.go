package logsvc

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/cohortgen/core"
	"github.com/trezcool/cohortgen/core/cohort"
)

func newTestLogger(t *testing.T, conf *core.Config) (*RollbarLogger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	std, closer, err := NewStdLogger(&buf, conf)
	require.NoError(t, err)
	t.Cleanup(func() { _ = closer.Close() })

	logger := NewRollbarLogger(std, conf)
	logger.Enable(false)
	return logger, &buf
}

func TestRollbarLogger_print(t *testing.T) {
	logger, buf := newTestLogger(t, &core.Config{AppName: "Cohortgen", Env: "TEST"})
	logger.Warn("skipped Math/weak", cohort.UnitError{Course: "Math", Archetype: cohort.Weak, Err: core.ErrInvalidArgument})

	out := buf.String()
	assert.Contains(t, out, "Cohortgen : ")
	assert.Contains(t, out, "skipped Math/weak")
	assert.Contains(t, out, "Math/weak: invalid argument")
}

func TestRollbarLogger_prepare(t *testing.T) {
	logger, _ := newTestLogger(t, &core.Config{})
	args := logger.prepare("msg", []interface{}{
		cohort.Run{ID: "r1", Seed: 5, StudentsAmount: 30},
		"plain",
	})
	assert.Equal(t, []interface{}{
		"msg",
		map[string]interface{}{"run_id": "r1", "seed": int64(5), "students_amount": 30},
		"plain",
	}, args)
}

func TestNewStdLogger_logFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs.txt")
	logger, buf := newTestLogger(t, &core.Config{AppName: "Cohortgen", LogFile: path})
	logger.Info("run started")

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(content), "run started"))
	assert.Equal(t, buf.String(), string(content))
}
