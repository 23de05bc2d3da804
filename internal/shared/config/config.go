package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	ctopics "github.com/wafflestudio/23-5-team7-web/pkg/contracts/topics"
)

// Config centraliza variáveis de ambiente e parâmetros de execução do cliente
// Inclui URLs do backend, sessão, feed de odds, relay Kafka e portas
type Config struct {
	Env         string // "local", "dev", "prod"
	ServiceName string // ex: "toto-watcher", "toto"

	APIBaseURL  string        // base HTTP do backend SnuToto
	WSBaseURL   string        // base explícita do feed; vazio = derivada de APIBaseURL
	HTTPTimeout time.Duration // timeout por requisição REST

	// Sessão persistida
	SessionBackend string // "file" | "redis"
	SessionDir     string
	SessionKey     string // chave no Redis quando SessionBackend=redis
	RedisAddr      string

	// Relay de odds (vazio = desligado)
	KafkaBrokers         string // "a:9092,b:9092"
	TopicOddsChanges     string
	KafkaTopicAutoCreate bool
	// grava o último snapshot no Redis e publica no canal
	RelayRedis    bool
	RelayRedisTTL time.Duration

	// Paginação da lista de eventos
	ListPageSize int
	ListTimeout  time.Duration

	// Feed de odds
	FeedBackoffBase time.Duration
	FeedBackoffMax  time.Duration

	// Simulador local
	SimDriftInterval time.Duration

	// Portas do processo atual
	HTTPPort    string // API local de depuração do watcher
	MetricsPort string // Porta exclusiva para /metrics e /healthz
}

// Load carrega o .env (se existir), lê variáveis de ambiente e define defaults
func Load() Config { return LoadFor("toto") }

// LoadFor é Load com outro SERVICE_NAME padrão (ex.: "toto-watcher")
func LoadFor(defaultService string) Config {
	_ = godotenv.Load()

	svc := getEnv("SERVICE_NAME", defaultService)
	env := getEnv("ENV", "local")

	cfg := Config{
		Env:         env,
		ServiceName: svc,

		APIBaseURL:  strings.TrimRight(getEnv("TOTO_API_BASE_URL", "http://localhost:8000"), "/"),
		WSBaseURL:   strings.TrimRight(getEnv("TOTO_WS_BASE_URL", ""), "/"),
		HTTPTimeout: getDuration("TOTO_HTTP_TIMEOUT", 15*time.Second),

		SessionBackend: getEnv("TOTO_SESSION_BACKEND", "file"),
		SessionDir:     getEnv("TOTO_SESSION_DIR", defaultSessionDir()),
		SessionKey:     getEnv("TOTO_SESSION_KEY", "toto:session"),
		RedisAddr:      getEnv("REDIS_ADDR", "localhost:6379"),

		KafkaBrokers:         getEnv("KAFKA_BROKERS", ""),
		TopicOddsChanges:     getEnv("KAFKA_TOPIC_ODDS_CHANGES", ctopics.OddsChanges),
		KafkaTopicAutoCreate: env == "local" || env == "dev",
		RelayRedis:           getEnv("TOTO_RELAY_REDIS", "") == "true",
		RelayRedisTTL:        getDuration("TOTO_RELAY_REDIS_TTL", time.Minute),

		ListPageSize: getInt("TOTO_LIST_PAGE_SIZE", 10),
		ListTimeout:  getDuration("TOTO_LIST_TIMEOUT", 10*time.Second),

		FeedBackoffBase: getDuration("TOTO_FEED_BACKOFF_BASE", time.Second),
		FeedBackoffMax:  getDuration("TOTO_FEED_BACKOFF_MAX", 30*time.Second),

		SimDriftInterval: getDuration("TOTO_SIM_DRIFT_INTERVAL", 3*time.Second),
	}

	// Define portas padrão para cada processo
	switch svc {
	case "toto-watcher":
		cfg.HTTPPort = getEnv("HTTP_PORT_WATCHER", "8090")
		cfg.MetricsPort = getEnv("METRICS_PORT_WATCHER", "9190")
	case "toto-simulator":
		cfg.HTTPPort = getEnv("HTTP_PORT_SIMULATOR", "8000")
		cfg.MetricsPort = getEnv("METRICS_PORT_SIMULATOR", "9100")
	default:
		cfg.HTTPPort = getEnv("HTTP_PORT", "")
		cfg.MetricsPort = getEnv("METRICS_PORT", "")
	}

	return cfg
}

// Brokers devolve a lista de brokers Kafka, vazia quando o relay está desligado
func (c Config) Brokers() []string {
	var out []string
	for _, b := range strings.Split(c.KafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

// getEnv retorna o valor da variável de ambiente ou o default
func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}

func getInt(key string, def int) int {
	v, ok := os.LookupEnv(key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n <= 0 {
		return def
	}
	return n
}

// getDuration aceita "10s"/"1m" ou um número simples em segundos
func getDuration(key string, def time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok {
		return def
	}
	v = strings.TrimSpace(v)
	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil && n > 0 {
		return time.Duration(n) * time.Second
	}
	return def
}

func defaultSessionDir() string {
	h, err := os.UserHomeDir()
	if err != nil {
		return ".snutoto"
	}
	return h + string(os.PathSeparator) + ".snutoto"
}
