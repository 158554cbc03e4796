package temporalx

import (
	"strings"
	"time"

	"github.com/yungbote/uniprot-graph/internal/platform/logger"
	"github.com/yungbote/uniprot-graph/internal/utils"
)

type Config struct {
	Address   string
	Namespace string
	TaskQueue string

	ClientCertPath string
	ClientKeyPath  string
	ClientCAPath   string

	DialTimeout    time.Duration
	DialMaxWait    time.Duration
	DialBackoff    time.Duration
	DialBackoffMax time.Duration

	AutoRegisterNamespace  bool
	NamespaceRetentionDays int

	WorkerConcurrency  int
	WorkerStartMaxWait time.Duration

	// ActivityTimeout bounds one stage activity (StartToClose).
	ActivityTimeout time.Duration
}

func LoadConfig(log *logger.Logger) Config {
	return Config{
		Address:   strings.TrimSpace(utils.GetEnv("TEMPORAL_ADDRESS", "", log)),
		Namespace: stringsOr(utils.GetEnv("TEMPORAL_NAMESPACE", "", log), "uniprot-graph"),
		TaskQueue: stringsOr(utils.GetEnv("TEMPORAL_TASK_QUEUE", "", log), "uniprot-graph"),

		ClientCertPath: strings.TrimSpace(utils.GetEnv("TEMPORAL_CLIENT_CERT_PATH", "", log)),
		ClientKeyPath:  strings.TrimSpace(utils.GetEnv("TEMPORAL_CLIENT_KEY_PATH", "", log)),
		ClientCAPath:   strings.TrimSpace(utils.GetEnv("TEMPORAL_CLIENT_CA_PATH", "", log)),

		DialTimeout:    utils.GetEnvAsDuration("TEMPORAL_DIAL_TIMEOUT_SECONDS", 5*time.Second, log),
		DialMaxWait:    utils.GetEnvAsDuration("TEMPORAL_DIAL_MAX_WAIT_SECONDS", 60*time.Second, log),
		DialBackoff:    time.Duration(utils.GetEnvAsInt("TEMPORAL_DIAL_BACKOFF_MS", 250, log)) * time.Millisecond,
		DialBackoffMax: time.Duration(utils.GetEnvAsInt("TEMPORAL_DIAL_BACKOFF_MAX_MS", 5000, log)) * time.Millisecond,

		AutoRegisterNamespace:  utils.GetEnvAsBool("TEMPORAL_AUTO_REGISTER_NAMESPACE", false, log),
		NamespaceRetentionDays: utils.GetEnvAsInt("TEMPORAL_NAMESPACE_RETENTION_DAYS", 7, log),

		WorkerConcurrency:  utils.GetEnvAsInt("WORKER_CONCURRENCY", 4, log),
		WorkerStartMaxWait: utils.GetEnvAsDuration("TEMPORAL_WORKER_START_MAX_WAIT_SECONDS", 60*time.Second, log),

		ActivityTimeout: utils.GetEnvAsDuration("TEMPORAL_ACTIVITY_TIMEOUT", 10*time.Minute, log),
	}
}

func (c Config) Enabled() bool { return strings.TrimSpace(c.Address) != "" }

func (c Config) mTLS() bool {
	return c.ClientCertPath != "" || c.ClientKeyPath != "" || c.ClientCAPath != ""
}

func stringsOr(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return strings.TrimSpace(v)
}
