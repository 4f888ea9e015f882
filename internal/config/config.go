package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPAddr    string

	OTLPEndpoint string
	Telemetry    TelemetryConfig

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBPath            string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	NATSURL           string
	NATSSubjectPrefix string

	Contract ContractConfig

	// SequencerBackend selects how operations are serialized: "local" or "redis".
	SequencerBackend string
	// VoteTallyBackend selects where governance votes are buffered: "memory" or "redis".
	VoteTallyBackend string

	DevFaucetEnabled bool

	RateLimit RateLimitConfig

	CallerAuth CallerAuthConfig
}

// CallerAuthConfig bounds how far a signed request timestamp may drift from the server clock.
type CallerAuthConfig struct {
	MaxSkewSeconds int
}

// TelemetryConfig selects log output and OpenTelemetry export.
type TelemetryConfig struct {
	LogLevel      string
	LogFormat     string
	OtelEnabled   bool
	OtelProtocol  string
	SamplingRatio float64
}

// RateLimitConfig bounds mutating requests per caller address.
type RateLimitConfig struct {
	Enabled     bool
	CallerRate  float64
	CallerBurst int
}

// ContractConfig carries the identities wired at deployment time.
type ContractConfig struct {
	OwnerAddress       string
	TreasuryAddress    string
	ControllerAddress  string
	FirstAirline       string
	FirstAirlineName   string
	RejectedRecipients []string
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	environment := getenv("ENVIRONMENT", "development")

	cfg := Config{
		AppName:      getenv("APP_SERVICE", "flightsurety"),
		AppVersion:   getenv("APP_VERSION", "0.1.0"),
		Environment:  environment,
		HTTPAddr:     getenv("HTTP_ADDR", ":8080"),
		OTLPEndpoint: getenv("OTEL_EXPORTER_OTLP_ENDPOINT", getenv("OTLP_ENDPOINT", "localhost:4317")),

		Telemetry: TelemetryConfig{
			LogLevel:      strings.ToLower(strings.TrimSpace(getenv("LOG_LEVEL", "info"))),
			LogFormat:     strings.ToLower(strings.TrimSpace(getenv("LOG_FORMAT", "json"))),
			OtelEnabled:   getenvBool("OTEL_ENABLED", false),
			OtelProtocol:  strings.ToLower(strings.TrimSpace(getenv("OTEL_EXPORTER_OTLP_PROTOCOL", "grpc"))),
			SamplingRatio: getenvFloat("OTEL_SAMPLING_RATIO", 0.1),
		},

		DBType:            getenv("DATABASE_TYPE", "sqlite"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "flightsurety"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBPath:            getenv("DATABASE_PATH", "flightsurety.db"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 5),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 20),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 300),
		DBConnMaxIdleTime: getenvInt("DATABASE_CONN_MAX_IDLE_TIME", 60),

		RedisAddr:     strings.TrimSpace(getenv("REDIS_ADDR", "")),
		RedisPassword: getenv("REDIS_PASSWORD", ""),
		RedisDB:       getenvInt("REDIS_DB", 0),

		NATSURL:           strings.TrimSpace(getenv("NATS_URL", "")),
		NATSSubjectPrefix: getenv("NATS_SUBJECT_PREFIX", "flightsurety.events"),

		Contract: ContractConfig{
			OwnerAddress:       strings.TrimSpace(getenv("CONTRACT_OWNER", "0x627306090abaB3A6e1400e9345bC60c78a8BEf57")),
			TreasuryAddress:    strings.TrimSpace(getenv("CONTRACT_TREASURY", "0x8f0483125FCb9aaAEFA9209D8E9d7b9C8B9Fb90F")),
			ControllerAddress:  strings.TrimSpace(getenv("CONTRACT_CONTROLLER", "0xC5fdf4076b8F3A5357c5E395ab970B5B54098Fef")),
			FirstAirline:       strings.TrimSpace(getenv("FIRST_AIRLINE", "0xf17f52151EbEF6C7334FAD080c5704D77216b732")),
			FirstAirlineName:   getenv("FIRST_AIRLINE_NAME", "Founding Air"),
			RejectedRecipients: parseList(getenv("WALLET_REJECTED_RECIPIENTS", "")),
		},

		SequencerBackend: strings.ToLower(getenv("SEQUENCER_BACKEND", "local")),
		VoteTallyBackend: strings.ToLower(getenv("VOTE_TALLY_BACKEND", "memory")),
		DevFaucetEnabled: getenvBool("DEV_FAUCET_ENABLED", environment != "production"),

		RateLimit: RateLimitConfig{
			Enabled:     getenvBool("RATE_LIMIT_ENABLED", false),
			CallerRate:  getenvFloat("RATE_LIMIT_CALLER_RATE", 5),
			CallerBurst: getenvInt("RATE_LIMIT_CALLER_BURST", 20),
		},

		CallerAuth: CallerAuthConfig{
			MaxSkewSeconds: getenvInt("CALLER_SIGNATURE_MAX_SKEW", 300),
		},
	}

	return cfg
}

// IsProduction reports whether the service runs in the production environment.
func (c Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.Environment), "production")
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func getenvFloat(key string, def float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return def
	}
	return parsed
}

func parseList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}
