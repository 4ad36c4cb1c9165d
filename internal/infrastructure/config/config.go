package config

import "time"

// Config is the root application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	AWS       AWSConfig       `yaml:"aws"`
	Auth      AuthConfig      `yaml:"auth"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Redis     RedisConfig     `yaml:"redis"`
	Scoring   ScoringConfig   `yaml:"scoring"`
	Cleanup   CleanupConfig   `yaml:"cleanup"`
	Log       LogConfig       `yaml:"log"`
	CORS      CORSConfig      `yaml:"cors"`
	Client    ClientConfig    `yaml:"client"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"             env:"PORT"                    env-default:"8080"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`
}

// AWSConfig holds DynamoDB connection settings. Local DynamoDB does not
// validate credentials but the SDK requires them, hence the defaults.
type AWSConfig struct {
	Region          string `yaml:"region"            env:"AWS_REGION"              env-default:"us-east-1"`
	AccessKeyID     string `yaml:"access_key_id"     env:"AWS_ACCESS_KEY_ID"       env-default:"local"`
	SecretAccessKey string `yaml:"secret_access_key" env:"AWS_SECRET_ACCESS_KEY"   env-default:"local"`
	Endpoint        string `yaml:"endpoint"          env:"DYNAMODB_ENDPOINT"`
	AuditsTable     string `yaml:"audits_table"      env:"DYNAMODB_AUDITS_TABLE"   env-default:"audits"`
	UsersTable      string `yaml:"users_table"       env:"DYNAMODB_USERS_TABLE"    env-default:"users"`
	CreateTables    bool   `yaml:"create_tables"     env:"DYNAMODB_CREATE_TABLES"  env-default:"false"`
}

// AuthConfig holds token and password settings.
type AuthConfig struct {
	JWTSecret  string        `yaml:"jwt_secret"  env:"JWT_SECRET"`
	JWTIssuer  string        `yaml:"jwt_issuer"  env:"JWT_ISSUER"  env-default:"auditalex"`
	JWTTTL     time.Duration `yaml:"jwt_ttl"     env:"JWT_TTL"     env-default:"168h"`
	BcryptCost int           `yaml:"bcrypt_cost" env:"BCRYPT_COST" env-default:"10"`
}

// RateLimitConfig holds request throttling settings.
type RateLimitConfig struct {
	RPS         float64       `yaml:"rps"          env:"RATE_LIMIT_RPS"   env-default:"10"`
	Burst       int           `yaml:"burst"        env:"RATE_LIMIT_BURST" env-default:"20"`
	LoginLimit  int           `yaml:"login_limit"  env:"LOGIN_LIMIT"      env-default:"5"`
	LoginWindow time.Duration `yaml:"login_window" env:"LOGIN_WINDOW"     env-default:"15m"`
}

// RedisConfig enables the shared login limiter when Addr is set.
type RedisConfig struct {
	Addr     string `yaml:"addr"     env:"REDIS_ADDR"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db"       env:"REDIS_DB" env-default:"0"`
}

type ScoringConfig struct {
	FinePerKO float64 `yaml:"fine_per_ko" env:"SCORING_FINE_PER_KO" env-default:"2250"`
}

// CleanupConfig schedules the duplicate audit sweep. Empty disables it.
type CleanupConfig struct {
	Cron string `yaml:"cron" env:"CLEANUP_CRON"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins string `yaml:"allowed_origins" env:"CORS_ORIGINS" env-default:"*"`
}

// ClientConfig configures the draft/sync client used by auditctl.
type ClientConfig struct {
	APIURL        string        `yaml:"api_url"        env:"AUDITAPI_URL"        env-default:"http://localhost:8080/v1"`
	Timeout       time.Duration `yaml:"timeout"        env:"AUDITAPI_TIMEOUT"    env-default:"30s"`
	LocalDBPath   string        `yaml:"local_db_path"  env:"LOCAL_DB_PATH"       env-default:"./data/drafts.db"`
	ReconcileCron string        `yaml:"reconcile_cron" env:"SYNC_RECONCILE_CRON" env-default:"@every 5m"`
	ShortWindow   time.Duration `yaml:"short_window"   env:"SYNC_SHORT_WINDOW"   env-default:"1s"`
	LongWindow    time.Duration `yaml:"long_window"    env:"SYNC_LONG_WINDOW"    env-default:"2500ms"`
	Email         string        `yaml:"email"          env:"AUDITAPI_EMAIL"`
	Password      string        `yaml:"password"       env:"AUDITAPI_PASSWORD"`
}
