package app

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/uniprot-graph/internal/data/graph"
	"github.com/yungbote/uniprot-graph/internal/ingestion/source"
	"github.com/yungbote/uniprot-graph/internal/platform/logger"
	"github.com/yungbote/uniprot-graph/internal/platform/neo4jdb"
	"github.com/yungbote/uniprot-graph/internal/utils"
)

// ConfigPathEnv names the YAML file used when no -config flag is given.
const ConfigPathEnv = "UNIPROT_GRAPH_CONFIG"

type Neo4jConfig struct {
	URI         string        `yaml:"uri"`
	User        string        `yaml:"user"`
	Password    string        `yaml:"password"`
	Database    string        `yaml:"database"`
	Timeout     time.Duration `yaml:"timeout"`
	MaxPoolSize int           `yaml:"max_pool_size"`
}

type StorageConfig struct {
	GCSEmulatorHost string `yaml:"gcs_emulator_host"`
	S3Region        string `yaml:"s3_region"`
	S3Endpoint      string `yaml:"s3_endpoint"`
	S3PathStyle     bool   `yaml:"s3_path_style"`
}

type OpsConfig struct {
	Addr        string   `yaml:"addr"`
	CORSOrigins []string `yaml:"cors_origins"`
}

// Config is the process configuration. Values come from built-in defaults,
// then the optional YAML file, then environment variables.
type Config struct {
	Source       string        `yaml:"source"`
	WriteMode    string        `yaml:"write_mode"`
	StageTimeout time.Duration `yaml:"stage_timeout"`
	MaxParallel  int           `yaml:"max_parallel"`

	Neo4j   Neo4jConfig   `yaml:"neo4j"`
	Storage StorageConfig `yaml:"storage"`
	Ops     OpsConfig     `yaml:"ops"`
}

func defaultConfig() Config {
	return Config{
		WriteMode:    string(graph.ModeCreate),
		StageTimeout: 10 * time.Minute,
		Neo4j: Neo4jConfig{
			User:        "neo4j",
			Database:    neo4jdb.DefaultDatabase,
			Timeout:     10 * time.Second,
			MaxPoolSize: 50,
		},
		Ops: OpsConfig{Addr: ":8080"},
	}
}

// LoadConfig reads path (or $UNIPROT_GRAPH_CONFIG when path is empty) and
// applies environment overrides. A missing path is not an error; a path that
// cannot be read or decoded is.
func LoadConfig(log *logger.Logger, path string) (Config, error) {
	cfg := defaultConfig()

	if strings.TrimSpace(path) == "" {
		path = utils.GetEnv(ConfigPathEnv, "", log)
	}
	if path = strings.TrimSpace(path); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := decodeYAML(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("decode config %s: %w", path, err)
		}
		if log != nil {
			log.Info("Loaded config file", "path", path)
		}
	}

	cfg.applyEnv(log)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func decodeYAML(raw []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (c *Config) applyEnv(log *logger.Logger) {
	c.Source = utils.GetEnv("INGEST_SOURCE", c.Source, log)
	c.WriteMode = utils.GetEnv("GRAPH_WRITE_MODE", c.WriteMode, log)
	c.StageTimeout = utils.GetEnvAsDuration("INGEST_STAGE_TIMEOUT", c.StageTimeout, log)
	c.MaxParallel = utils.GetEnvAsInt("INGEST_MAX_PARALLEL", c.MaxParallel, log)

	c.Neo4j.URI = utils.GetEnv("NEO4J_URI", c.Neo4j.URI, log)
	c.Neo4j.User = utils.GetEnv("NEO4J_USER", c.Neo4j.User, log)
	c.Neo4j.Password = utils.GetEnv("NEO4J_PASSWORD", c.Neo4j.Password, log)
	c.Neo4j.Database = utils.GetEnv("NEO4J_DATABASE", c.Neo4j.Database, log)
	c.Neo4j.Timeout = utils.GetEnvAsDuration("NEO4J_TIMEOUT_SECONDS", c.Neo4j.Timeout, log)
	c.Neo4j.MaxPoolSize = utils.GetEnvAsInt("NEO4J_MAX_POOL_SIZE", c.Neo4j.MaxPoolSize, log)

	c.Storage.GCSEmulatorHost = utils.GetEnv("GCS_EMULATOR_HOST", c.Storage.GCSEmulatorHost, log)
	c.Storage.S3Region = utils.GetEnv("S3_REGION", c.Storage.S3Region, log)
	c.Storage.S3Endpoint = utils.GetEnv("S3_ENDPOINT", c.Storage.S3Endpoint, log)
	c.Storage.S3PathStyle = utils.GetEnvAsBool("S3_PATH_STYLE", c.Storage.S3PathStyle, log)

	c.Ops.Addr = utils.GetEnv("OPS_ADDR", c.Ops.Addr, log)
	if v := strings.TrimSpace(utils.GetEnv("OPS_CORS_ORIGINS", "", log)); v != "" {
		c.Ops.CORSOrigins = strings.Split(v, ",")
	}
}

func (c Config) Validate() error {
	if _, err := graph.ParseMode(c.WriteMode); err != nil {
		return err
	}
	if c.StageTimeout < 0 {
		return fmt.Errorf("stage_timeout must not be negative")
	}
	if c.MaxParallel < 0 {
		return fmt.Errorf("max_parallel must not be negative")
	}
	return nil
}

func (c Config) Mode() graph.Mode {
	m, _ := graph.ParseMode(c.WriteMode)
	return m
}

func (c Neo4jConfig) driverConfig() neo4jdb.Config {
	return neo4jdb.Config{
		URI:         c.URI,
		User:        c.User,
		Password:    c.Password,
		Database:    c.Database,
		Timeout:     c.Timeout,
		MaxPoolSize: c.MaxPoolSize,
	}
}

func (c StorageConfig) sourceConfig() source.Config {
	return source.Config{
		GCSEmulatorHost: c.GCSEmulatorHost,
		S3Region:        c.S3Region,
		S3Endpoint:      c.S3Endpoint,
		S3PathStyle:     c.S3PathStyle,
	}
}
