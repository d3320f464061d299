package core

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestViper(values map[string]interface{}) *viper.Viper {
	v := viper.New()
	setDefaults(v)
	for key, val := range values {
		v.Set(key, val)
	}
	return v
}

func TestConfigFromViper_defaults(t *testing.T) {
	conf, err := configFromViper(newTestViper(nil), "TEST")
	require.NoError(t, err)

	assert.Equal(t, "TEST", conf.Env)
	assert.Equal(t, 100, conf.Generator.StudentsAmount)
	assert.Nil(t, conf.Generator.RandomSeed)
	assert.Equal(t, Range{Min: 4, Max: 10}, conf.Generator.Lessons)
	assert.Equal(t, Range{Min: 2, Max: 4}, conf.Generator.Webinars)
	assert.Equal(t, Range{Min: 1, Max: 4}, conf.Generator.Tests)
	assert.Equal(t, 15, conf.Generator.MixedLowUpper)
	assert.Equal(t, 90, conf.Generator.MixedHighLower)

	require.Len(t, conf.Generator.Courses, len(DefaultCourseNames))
	for i, name := range DefaultCourseNames {
		assert.Equal(t, CourseConfig{Name: name}, conf.Generator.Courses[i])
	}
	assert.Equal(t, []ArchetypeConfig{
		{Kind: "weak", GroupSizeMin: 10, GroupSizeMax: 25},
		{Kind: "average", GroupSizeMin: 10, GroupSizeMax: 25},
		{Kind: "strong", GroupSizeMin: 10, GroupSizeMax: 25},
		{Kind: "mixed", GroupSizeMin: 10, GroupSizeMax: 25},
	}, conf.Generator.Archetypes)

	assert.Equal(t, "csv", conf.Output.Sink)
	assert.Equal(t, "generated_students", conf.Output.Dir)
	assert.Equal(t, "sqlite", conf.Database.Engine)
	assert.Equal(t, "localhost:5432", conf.Database.Address())
}

func TestConfigFromViper_overrides(t *testing.T) {
	conf, err := configFromViper(newTestViper(map[string]interface{}{
		"randomSeed":    "0",
		"webinarsRange": "3-7",
		"coursesFile":   "courses.csv",
		"archetypes": []map[string]interface{}{
			{"kind": "strong", "group_size_min": 3, "group_size_max": 5},
		},
	}), "DEV")
	require.NoError(t, err)

	require.NotNil(t, conf.Generator.RandomSeed)
	assert.Equal(t, int64(0), *conf.Generator.RandomSeed)
	assert.Equal(t, Range{Min: 3, Max: 7}, conf.Generator.Webinars)
	assert.Empty(t, conf.Generator.Courses, "courses come from the courses file")
	assert.Equal(t, []ArchetypeConfig{{Kind: "strong", GroupSizeMin: 3, GroupSizeMax: 5}}, conf.Generator.Archetypes)
}

func TestConfigFromViper_unknownWebinarsRange(t *testing.T) {
	_, err := configFromViper(newTestViper(map[string]interface{}{"webinarsRange": "1-2"}), "DEV")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}
