package core

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	// CourseConfig is a course entry of the configuration.
	// Zero activity counts are generated randomly once per run.
	CourseConfig struct {
		Name     string `mapstructure:"name" json:"name" validate:"notblank"`
		Lessons  int    `mapstructure:"lessons" json:"lessons"`
		Webinars int    `mapstructure:"webinars" json:"webinars"`
		Tests    int    `mapstructure:"tests" json:"tests"`
	}

	ArchetypeConfig struct {
		Kind         string `mapstructure:"kind" json:"kind" validate:"archetype"`
		GroupSizeMin int    `mapstructure:"group_size_min" json:"group_size_min" validate:"gte=0"`
		GroupSizeMax int    `mapstructure:"group_size_max" json:"group_size_max" validate:"gtefield=GroupSizeMin"`
	}

	// Range is an inclusive integer range.
	Range struct {
		Min int `mapstructure:"min" json:"min" validate:"gte=1"`
		Max int `mapstructure:"max" json:"max" validate:"gtefield=Min"`
	}

	GeneratorConfig struct {
		StudentsAmount int               `json:"students_amount" validate:"gte=1"`
		RandomSeed     *int64            `json:"random_seed"`
		Archetypes     []ArchetypeConfig `json:"archetypes" validate:"required,dive"`
		Courses        []CourseConfig    `json:"courses" validate:"dive"`
		CoursesFile    string            `json:"courses_file"`
		Lessons        Range             `json:"lessons"`
		Webinars       Range             `json:"webinars"`
		Tests          Range             `json:"tests"`
		MixedLowUpper  int               `json:"mixed_low_upper" validate:"gt=0,ltfield=MixedHighLower"`
		MixedHighLower int               `json:"mixed_high_lower" validate:"lte=100"`
	}

	OutputConfig struct {
		Sink string `json:"sink" validate:"oneof=csv database memory"`
		Dir  string `json:"dir"`
	}

	DatabaseConfig struct {
		Engine        string `validate:"oneof=postgres sqlite"`
		Host          string
		Port          int
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
		Path          string // sqlite file or ":memory:"
	}

	RedisConfig struct {
		Enabled  bool
		Addr     string
		Password string
		DB       int
	}

	ServerConfig struct {
		Host            string
		ShutdownTimeout time.Duration
	}

	Config struct {
		AppName      string
		Env          string
		Build        string
		Debug        bool
		TestMode     bool
		RollbarToken string
		LogFile      string

		Generator GeneratorConfig
		Output    OutputConfig
		Database  DatabaseConfig
		Redis     RedisConfig
		Server    ServerConfig
	}
)

func (c DatabaseConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// WebinarRanges are the webinar count ranges accepted by "webinarsRange".
var WebinarRanges = map[string]Range{
	"2-4": {Min: 2, Max: 4},
	"3-7": {Min: 3, Max: 7},
}

// DefaultCourseNames are used when no course is configured.
var DefaultCourseNames = []string{"Русский язык Гр1", "Математика Гр1", "Математика Гр2"}

func setDefaults(v *viper.Viper) {
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("appName", "Cohortgen")
	v.SetDefault("build", "develop")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("logFile", "")

	v.SetDefault("studentsAmount", 100)
	v.SetDefault("randomSeed", "")
	v.SetDefault("configFile", "")
	v.SetDefault("coursesFile", "")
	v.SetDefault("webinarsRange", "2-4")
	v.SetDefault("mixedLowUpper", 15)
	v.SetDefault("mixedHighLower", 90)
	v.SetDefault("groupSizeMin", 10)
	v.SetDefault("groupSizeMax", 25)

	v.SetDefault("outputSink", "csv")
	v.SetDefault("outputDir", "generated_students")

	v.SetDefault("dbEngine", "sqlite")
	v.SetDefault("dbHost", "localhost")
	v.SetDefault("dbPort", 5432)
	v.SetDefault("dbName", "cohortgen")
	v.SetDefault("dbUser", "")
	v.SetDefault("dbPassword", "")
	v.SetDefault("dbAdminUser", "")
	v.SetDefault("dbAdminPassword", "")
	v.SetDefault("dbDisableTLS", true)
	v.SetDefault("dbPath", "cohortgen.db")

	v.SetDefault("redisEnabled", false)
	v.SetDefault("redisAddr", "localhost:6379")
	v.SetDefault("redisPassword", "")
	v.SetDefault("redisDB", 0)

	v.SetDefault("serverHost", ":8000")
	v.SetDefault("serverShutdownTimeout", 5*time.Second)
}

// NewConfig loads the configuration from the environment, an optional `.env.<env>` file
// and an optional YAML file pointed to by `<ENV>_CONFIGFILE`.
func NewConfig() *Config {
	v := viper.New()
	setDefaults(v)

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, PROD
	if env == "" {
		env = "DEV"
	}
	if env == "TEST" {
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join("config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	if file := v.GetString("configFile"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			log.Fatalf("config.ReadInConfig(%s): %v", file, err)
		}
	}

	conf, err := configFromViper(v, env)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	return conf
}

func configFromViper(v *viper.Viper, env string) (*Config, error) {
	webinars, ok := WebinarRanges[v.GetString("webinarsRange")]
	if !ok {
		return nil, NewArgumentError(fmt.Sprintf("unknown webinars range %q", v.GetString("webinarsRange")))
	}

	conf := &Config{
		AppName:      v.GetString("appName"),
		Env:          env,
		Build:        v.GetString("build"),
		Debug:        v.GetBool("debug"),
		TestMode:     v.GetBool("testMode"),
		RollbarToken: v.GetString("rollbarToken"),
		LogFile:      v.GetString("logFile"),
		Generator: GeneratorConfig{
			StudentsAmount: v.GetInt("studentsAmount"),
			CoursesFile:    v.GetString("coursesFile"),
			Lessons:        Range{Min: 4, Max: 10},
			Webinars:       webinars,
			Tests:          Range{Min: 1, Max: 4},
			MixedLowUpper:  v.GetInt("mixedLowUpper"),
			MixedHighLower: v.GetInt("mixedHighLower"),
		},
		Output: OutputConfig{
			Sink: v.GetString("outputSink"),
			Dir:  v.GetString("outputDir"),
		},
		Database: DatabaseConfig{
			Engine:        v.GetString("dbEngine"),
			Host:          v.GetString("dbHost"),
			Port:          v.GetInt("dbPort"),
			Name:          v.GetString("dbName"),
			User:          v.GetString("dbUser"),
			Password:      v.GetString("dbPassword"),
			AdminUser:     v.GetString("dbAdminUser"),
			AdminPassword: v.GetString("dbAdminPassword"),
			DisableTLS:    v.GetBool("dbDisableTLS"),
			Path:          v.GetString("dbPath"),
		},
		Redis: RedisConfig{
			Enabled:  v.GetBool("redisEnabled"),
			Addr:     v.GetString("redisAddr"),
			Password: v.GetString("redisPassword"),
			DB:       v.GetInt("redisDB"),
		},
		Server: ServerConfig{
			Host:            v.GetString("serverHost"),
			ShutdownTimeout: v.GetDuration("serverShutdownTimeout"),
		},
	}

	if s := v.GetString("randomSeed"); s != "" {
		seed := v.GetInt64("randomSeed")
		conf.Generator.RandomSeed = &seed
	}

	// courses & archetypes are lists: only a config file can provide them
	if err := v.UnmarshalKey("courses", &conf.Generator.Courses); err != nil {
		return nil, NewArgumentError(fmt.Sprintf("decoding courses: %v", err))
	}
	if err := v.UnmarshalKey("archetypes", &conf.Generator.Archetypes); err != nil {
		return nil, NewArgumentError(fmt.Sprintf("decoding archetypes: %v", err))
	}
	if len(conf.Generator.Courses) == 0 && conf.Generator.CoursesFile == "" {
		for _, name := range DefaultCourseNames {
			conf.Generator.Courses = append(conf.Generator.Courses, CourseConfig{Name: name})
		}
	}
	if len(conf.Generator.Archetypes) == 0 {
		for _, kind := range []string{"weak", "average", "strong", "mixed"} {
			conf.Generator.Archetypes = append(conf.Generator.Archetypes, ArchetypeConfig{
				Kind:         kind,
				GroupSizeMin: v.GetInt("groupSizeMin"),
				GroupSizeMax: v.GetInt("groupSizeMax"),
			})
		}
	}
	return conf, nil
}
