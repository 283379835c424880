package config

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/file"
	"github.com/pkg/errors"
)

type (
	// A Config holds the kernel configuration.
	Config struct {
		Namespace      string   `koanf:"namespace"        validate:"required,excludesall=/"`
		MaxMessageSize int      `koanf:"max_message_size" validate:"gte=2"`
		Log            Log      `koanf:"log"`
		Database       Database `koanf:"database"`
		Inbox          Inbox    `koanf:"inbox"`
	}

	// Log defines the logger output.
	Log struct {
		Level string `koanf:"level" validate:"oneof=trace debug info warn warning error fatal panic"`
		File  string `koanf:"file"`
	}

	// Database defines the key-value backend.
	Database struct {
		Backend string `koanf:"backend" validate:"oneof=storm sql redis s3"`
		Path    string `koanf:"path"    validate:"required_if=Backend storm"`
		SQL     SQL    `koanf:"sql"`
		Redis   Redis  `koanf:"redis"`
		S3      S3     `koanf:"s3"`
	}

	// SQL defines a database/sql backend.
	SQL struct {
		Driver string `koanf:"driver" validate:"oneof=sqlite3 postgres"`
		DSN    string `koanf:"dsn"`
	}

	// Redis defines a Redis backend.
	Redis struct {
		URL string `koanf:"url"`
	}

	// S3 defines an S3 compatible backend.
	S3 struct {
		Bucket    string `koanf:"bucket"`
		Region    string `koanf:"region"`
		Endpoint  string `koanf:"endpoint"`
		AccessKey string `koanf:"access_key"`
		SecretKey string `koanf:"secret_key"`
	}

	// Inbox defines where messages are pulled from.
	Inbox struct {
		Kind  string `koanf:"kind"  validate:"oneof=file kafka"`
		Path  string `koanf:"path"  validate:"required_if=Kind file"`
		Kafka Kafka  `koanf:"kafka"`
	}

	// Kafka defines a Kafka topic consumed as inbox.
	Kafka struct {
		Brokers     []string      `koanf:"brokers"`
		Topic       string        `koanf:"topic"`
		Group       string        `koanf:"group"`
		IdleTimeout time.Duration `koanf:"idle_timeout"`
	}
)

// Defaults returns the default configuration values.
func Defaults() map[string]any {
	return map[string]any{
		"namespace":                "todo",
		"max_message_size":         2048,
		"log.level":                "info",
		"database.backend":         "storm",
		"database.path":            "todokernel.db",
		"database.sql.driver":      "sqlite3",
		"inbox.kind":               "file",
		"inbox.path":               "inputs.json",
		"inbox.kafka.topic":        "todo-messages",
		"inbox.kafka.group":        "todokernel",
		"inbox.kafka.idle_timeout": "10s",
	}
}

// Load reads the given YAML file on top of the defaults.
// An empty filename only loads the defaults.
func Load(filename string) (Config, error) {
	konf := koanf.New(".")
	if err := konf.Load(confmap.Provider(Defaults(), "."), nil); err != nil {
		return Config{}, errors.Wrap(err, "could not load defaults")
	}

	if filename != "" {
		if err := konf.Load(file.Provider(filename), yaml.Parser()); err != nil {
			return Config{}, errors.Wrap(err, "could not load configuration file")
		}
	}

	var cfg Config
	if err := konf.Unmarshal("", &cfg); err != nil {
		return Config{}, errors.Wrap(err, "could not parse configuration")
	}

	return cfg, cfg.Validate()
}

// Validate checks the configuration consistency.
func (c Config) Validate() error {
	err := validator.New().Struct(c)
	if err == nil {
		return c.validateBackend()
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]string, 0, len(verrs))
		for _, verr := range verrs {
			fields = append(fields, verr.Namespace()+" ("+verr.Tag()+")")
		}
		return errors.Errorf("invalid configuration: %s", strings.Join(fields, ", "))
	}
	return errors.Wrap(err, "invalid configuration")
}

func (c Config) validateBackend() error {
	switch c.Database.Backend {
	case "sql":
		if c.Database.SQL.DSN == "" {
			return errors.New("invalid configuration: database.sql.dsn is required")
		}
	case "redis":
		if c.Database.Redis.URL == "" {
			return errors.New("invalid configuration: database.redis.url is required")
		}
	case "s3":
		if c.Database.S3.Bucket == "" {
			return errors.New("invalid configuration: database.s3.bucket is required")
		}
	}

	if c.Inbox.Kind == "kafka" && (len(c.Inbox.Kafka.Brokers) == 0 || c.Inbox.Kafka.Topic == "") {
		return errors.New("invalid configuration: inbox.kafka.brokers and inbox.kafka.topic are required")
	}
	return nil
}
