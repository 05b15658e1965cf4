package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"restaurant/internal/adapters/out/broadcast"
	"restaurant/internal/adapters/out/persistence"
	"restaurant/internal/adapters/out/rabbitmq"
	"restaurant/internal/adapters/presenter"
	"restaurant/internal/core/application/services"
	"restaurant/internal/core/application/usecases/commands"
	"restaurant/internal/jobs"

	"github.com/joho/godotenv"
	"golang.org/x/time/rate"
)

const defaultQRBaseURL = "https://api.qrserver.com/v1/create-qr-code/?size=200x200&data="

type Config struct {
	HTTPPort        string
	ShutdownTimeout time.Duration
	LogLevel        string

	DBDriver       string
	DBHost         string
	DBPort         string
	DBUser         string
	DBPassword     string
	DBName         string
	DBSslMode      string
	DBMaxOpenConns int
	SQLitePath     string

	BroadcastWriteTimeout time.Duration
	BroadcastParallelism  int
	ViewerAdmissionRate   float64
	ViewerAdmissionBurst  int

	MutationAttempts   int
	MutationBackoff    time.Duration
	TableRetryAttempts int
	TableRetryBackoff  time.Duration

	ReconcileSchedule string
	ReconcileTimeout  time.Duration
	HeartbeatSchedule string

	AMQPURL      string
	AMQPExchange string

	QRBaseURL      string
	RestaurantName string
}

// LoadConfig reads the configuration from the environment. Variables from envFile are
// loaded first when the file exists; variables already set in the environment win.
func LoadConfig(envFile string) (Config, error) {
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load %s: %w", envFile, err)
	}

	r := envReader{}
	cfg := Config{
		HTTPPort:        r.str("HTTP_PORT", "8080"),
		ShutdownTimeout: r.duration("SHUTDOWN_TIMEOUT", 10*time.Second),
		LogLevel:        r.str("LOG_LEVEL", "info"),

		DBDriver:       r.str("DB_DRIVER", persistence.DriverPostgres),
		DBHost:         r.str("DB_HOST", "localhost"),
		DBPort:         r.str("DB_PORT", "5432"),
		DBUser:         r.str("DB_USER", "postgres"),
		DBPassword:     r.str("DB_PASSWORD", ""),
		DBName:         r.str("DB_NAME", "restaurant"),
		DBSslMode:      r.str("DB_SSLMODE", "disable"),
		DBMaxOpenConns: r.integer("DB_MAX_OPEN_CONNS", 10),
		SQLitePath:     r.str("SQLITE_PATH", "restaurant.db"),

		BroadcastWriteTimeout: r.duration("BROADCAST_WRITE_TIMEOUT", 5*time.Second),
		BroadcastParallelism:  r.integer("BROADCAST_PARALLELISM", 32),
		ViewerAdmissionRate:   r.float("VIEWER_ADMISSION_RATE", 50),
		ViewerAdmissionBurst:  r.integer("VIEWER_ADMISSION_BURST", 100),

		MutationAttempts:   r.integer("MUTATION_ATTEMPTS", 3),
		MutationBackoff:    r.duration("MUTATION_BACKOFF", 20*time.Millisecond),
		TableRetryAttempts: r.integer("TABLE_RETRY_ATTEMPTS", 3),
		TableRetryBackoff:  r.duration("TABLE_RETRY_BACKOFF", 50*time.Millisecond),

		ReconcileSchedule: r.str("RECONCILE_SCHEDULE", jobs.DefaultSchedules().Reconciliation),
		ReconcileTimeout:  r.duration("RECONCILE_TIMEOUT", jobs.DefaultSchedules().ReconciliationTimeout),
		HeartbeatSchedule: r.str("HEARTBEAT_SCHEDULE", jobs.DefaultSchedules().Heartbeat),

		AMQPURL:      r.str("AMQP_URL", ""),
		AMQPExchange: r.str("AMQP_EXCHANGE", rabbitmq.DefaultExchange),

		QRBaseURL:      r.str("QR_BASE_URL", defaultQRBaseURL),
		RestaurantName: r.str("RESTAURANT_NAME", "Restaurant"),
	}

	if err := errors.Join(r.errs...); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Database() persistence.Config {
	return persistence.Config{
		Driver:        c.DBDriver,
		Host:          c.DBHost,
		Port:          c.DBPort,
		User:          c.DBUser,
		Password:      c.DBPassword,
		Name:          c.DBName,
		SSLMode:       c.DBSslMode,
		SQLitePath:    c.SQLitePath,
		MaxOpenConns:  c.DBMaxOpenConns,
		SlowThreshold: 200 * time.Millisecond,
	}
}

func (c Config) Broadcast() broadcast.Config {
	return broadcast.Config{
		WriteTimeout:   c.BroadcastWriteTimeout,
		Parallelism:    c.BroadcastParallelism,
		AdmissionRate:  rate.Limit(c.ViewerAdmissionRate),
		AdmissionBurst: c.ViewerAdmissionBurst,
		AdmissionWait:  2 * time.Second,
	}
}

func (c Config) OrderService() services.OrderServiceConfig {
	return services.OrderServiceConfig{Attempts: c.MutationAttempts, Backoff: c.MutationBackoff}
}

func (c Config) TableCoordinator() commands.TableCoordinatorConfig {
	return commands.TableCoordinatorConfig{Attempts: c.TableRetryAttempts, Backoff: c.TableRetryBackoff}
}

func (c Config) Schedules() jobs.Schedules {
	return jobs.Schedules{
		Reconciliation:        c.ReconcileSchedule,
		ReconciliationTimeout: c.ReconcileTimeout,
		Heartbeat:             c.HeartbeatSchedule,
	}
}

func (c Config) Relay() rabbitmq.Config {
	return rabbitmq.Config{URL: c.AMQPURL, Exchange: c.AMQPExchange, PublishTimeout: c.BroadcastWriteTimeout}
}

func (c Config) QR() presenter.QRConfig {
	return presenter.QRConfig{BaseURL: c.QRBaseURL, Restaurant: c.RestaurantName}
}

// envReader collects parse errors so that every bad variable is reported at once.
type envReader struct {
	errs []error
}

func (r *envReader) str(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func (r *envReader) integer(key string, fallback int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return n
}

func (r *envReader) float(key string, fallback float64) float64 {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return f
}

func (r *envReader) duration(key string, fallback time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return d
}
