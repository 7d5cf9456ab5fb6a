package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/spf13/viper"
	"github.com/tdex-network/tdex-execd/pkg/retry"
)

const (
	// HTTPListeningPortKey is the port where the HTTP and websocket interface
	// listens on
	HTTPListeningPortKey = "HTTP_LISTENING_PORT"
	// AllowedOriginsKey is the list of origins allowed by CORS
	AllowedOriginsKey = "ALLOWED_ORIGINS"
	// DatadirKey is the local data directory to store the internal state of daemon
	DatadirKey = "DATADIR"
	// LogLevelKey are the different logging levels. For reference on the values https://godoc.org/github.com/sirupsen/logrus#Level
	LogLevelKey = "LOG_LEVEL"
	// DBTypeKey is used to switch database type between those supported
	DBTypeKey = "DB_TYPE"

	// WorkerConcurrencyKey is the max number of orders processed at the same time
	WorkerConcurrencyKey = "WORKER_CONCURRENCY"
	// RateLimitMaxKey is the max number of jobs dispatched every RATE_LIMIT_WINDOW
	RateLimitMaxKey    = "RATE_LIMIT_MAX"
	RateLimitWindowKey = "RATE_LIMIT_WINDOW"
	// JobMaxAttemptsKey is the number of times an order is run before being
	// definitively failed
	JobMaxAttemptsKey = "JOB_MAX_ATTEMPTS"
	JobBackoffBaseKey = "JOB_BACKOFF_BASE"
	// JobTimeoutKey bounds the time spent by a worker on a single attempt
	JobTimeoutKey = "JOB_TIMEOUT"
	// MaxStalledCountKey is the number of times a job interrupted by a crash is
	// run again before being failed
	MaxStalledCountKey = "MAX_STALLED_COUNT"

	// QuoteMaxAttemptsKey is the number of quote rounds attempted for a
	// single routing decision
	QuoteMaxAttemptsKey       = "QUOTE_MAX_ATTEMPTS"
	QuoteBackoffBaseKey       = "QUOTE_BACKOFF_BASE"
	QuoteBackoffMaxKey        = "QUOTE_BACKOFF_MAX"
	QuoteBackoffMultiplierKey = "QUOTE_BACKOFF_MULTIPLIER"

	// HeartbeatIntervalKey is the interval between liveness probes of the
	// websocket subscribers
	HeartbeatIntervalKey = "HEARTBEAT_INTERVAL"

	// VenuesKey is the list of venues orders are routed to
	VenuesKey = "VENUES"
	// DefaultVenueKey is the venue winning ties between equal quotes
	DefaultVenueKey = "DEFAULT_VENUE"
	// EnableVenueBreakerKey puts a circuit breaker in front of every venue
	EnableVenueBreakerKey = "ENABLE_VENUE_BREAKER"
	// Simulation knobs applied to every mock venue
	MockQuoteLatencyKey         = "MOCK_QUOTE_LATENCY"
	MockBuildLatencyKey         = "MOCK_BUILD_LATENCY"
	MockExecutionLatencyKey     = "MOCK_EXECUTION_LATENCY"
	MockQuoteFailureRateKey     = "MOCK_QUOTE_FAILURE_RATE"
	MockExecutionFailureRateKey = "MOCK_EXECUTION_FAILURE_RATE"

	// WebhookEndpointsKey is the list of endpoints notified of terminal order
	// statuses
	WebhookEndpointsKey = "WEBHOOK_ENDPOINTS"
	// WebhookSecretKey, if set, is used to sign webhook requests
	WebhookSecretKey = "WEBHOOK_SECRET"

	// EnableMetricsKey exposes prometheus metrics at /metrics
	EnableMetricsKey = "ENABLE_METRICS"
	// EnableProfilerKey enables periodic logging of memory statistics
	EnableProfilerKey = "ENABLE_PROFILER"
	// StatsIntervalKey defines interval in seconds for printing memory statistics
	StatsIntervalKey = "STATS_INTERVAL"

	DbLocation       = "db"
	ProfilerLocation = "stats"

	DBBadger   = "badger"
	DBInMemory = "inmemory"

	// MaxWorstCaseAttempts caps the number of venue calls a single order can
	// cause when both job and quote retry budgets are exhausted.
	MaxWorstCaseAttempts = 100
)

var (
	vip            *viper.Viper
	defaultDatadir = btcutil.AppDataDir("tdex-execd", false)

	supportedDBTypes = map[string]struct{}{
		DBBadger:   {},
		DBInMemory: {},
	}
)

func InitConfig() error {
	vip = viper.New()
	vip.SetEnvPrefix("EXECD")
	vip.AutomaticEnv()

	vip.SetDefault(HTTPListeningPortKey, 3000)
	vip.SetDefault(AllowedOriginsKey, []string{"*"})
	vip.SetDefault(DatadirKey, defaultDatadir)
	vip.SetDefault(LogLevelKey, 4)
	vip.SetDefault(DBTypeKey, DBBadger)

	vip.SetDefault(WorkerConcurrencyKey, 10)
	vip.SetDefault(RateLimitMaxKey, 100)
	vip.SetDefault(RateLimitWindowKey, time.Minute)
	vip.SetDefault(JobMaxAttemptsKey, 3)
	vip.SetDefault(JobBackoffBaseKey, 2*time.Second)
	vip.SetDefault(JobTimeoutKey, 5*time.Minute)
	vip.SetDefault(MaxStalledCountKey, 1)

	vip.SetDefault(QuoteMaxAttemptsKey, 3)
	vip.SetDefault(QuoteBackoffBaseKey, 200*time.Millisecond)
	vip.SetDefault(QuoteBackoffMaxKey, 2*time.Second)
	vip.SetDefault(QuoteBackoffMultiplierKey, 2.0)

	vip.SetDefault(HeartbeatIntervalKey, 30*time.Second)

	vip.SetDefault(VenuesKey, []string{"raydium", "meteora"})
	vip.SetDefault(EnableVenueBreakerKey, true)
	vip.SetDefault(MockQuoteLatencyKey, 200*time.Millisecond)
	vip.SetDefault(MockBuildLatencyKey, 100*time.Millisecond)
	vip.SetDefault(MockExecutionLatencyKey, 2*time.Second)
	vip.SetDefault(MockQuoteFailureRateKey, 0.0)
	vip.SetDefault(MockExecutionFailureRateKey, 0.0)

	vip.SetDefault(EnableMetricsKey, true)
	vip.SetDefault(EnableProfilerKey, false)
	vip.SetDefault(StatsIntervalKey, 600)

	if err := validate(); err != nil {
		return fmt.Errorf("error while validating config: %s", err)
	}

	if err := initDatadir(); err != nil {
		return fmt.Errorf("error while creating datadir: %s", err)
	}

	return nil
}

func GetString(key string) string {
	return vip.GetString(key)
}

func GetInt(key string) int {
	return vip.GetInt(key)
}

func GetFloat(key string) float64 {
	return vip.GetFloat64(key)
}

// GetStringSlice returns the list for the given key, accepting also comma
// separated values as set through environment.
func GetStringSlice(key string) []string {
	list := make([]string, 0)
	for _, v := range vip.GetStringSlice(key) {
		for _, s := range strings.Split(v, ",") {
			if s = strings.TrimSpace(s); s != "" {
				list = append(list, s)
			}
		}
	}
	return list
}

func GetDuration(key string) time.Duration {
	return vip.GetDuration(key)
}

func GetBool(key string) bool {
	return vip.GetBool(key)
}

func GetDatadir() string {
	return GetString(DatadirKey)
}

// GetDbDir returns the directory for the persisted state, empty if the
// state is kept in memory.
func GetDbDir() string {
	if GetString(DBTypeKey) == DBInMemory {
		return ""
	}
	return filepath.Join(GetDatadir(), DbLocation)
}

// GetJobRetryPolicy returns the policy for running a failed order again.
func GetJobRetryPolicy() retry.Policy {
	return retry.Policy{
		MaxAttempts: GetInt(JobMaxAttemptsKey),
		BaseDelay:   GetDuration(JobBackoffBaseKey),
		Multiplier:  2,
	}
}

// GetQuoteRetryPolicy returns the policy for running a failed quote round
// again.
func GetQuoteRetryPolicy() retry.Policy {
	return retry.Policy{
		MaxAttempts: GetInt(QuoteMaxAttemptsKey),
		BaseDelay:   GetDuration(QuoteBackoffBaseKey),
		MaxDelay:    GetDuration(QuoteBackoffMaxKey),
		Multiplier:  GetFloat(QuoteBackoffMultiplierKey),
	}
}

func validate() error {
	datadir := GetString(DatadirKey)
	if len(datadir) <= 0 {
		return fmt.Errorf("missing datadir")
	}

	port := GetInt(HTTPListeningPortKey)
	if port <= 0 || port > 65535 {
		return fmt.Errorf("%s must be in range [1, 65535]", HTTPListeningPortKey)
	}

	if _, ok := supportedDBTypes[GetString(DBTypeKey)]; !ok {
		return fmt.Errorf(
			"%s must be one of %s, %s", DBTypeKey, DBBadger, DBInMemory,
		)
	}

	if GetInt(WorkerConcurrencyKey) <= 0 {
		return fmt.Errorf("%s must be greater than zero", WorkerConcurrencyKey)
	}
	if GetInt(RateLimitMaxKey) <= 0 {
		return fmt.Errorf("%s must be greater than zero", RateLimitMaxKey)
	}
	if GetDuration(RateLimitWindowKey) <= 0 {
		return fmt.Errorf("%s must be greater than zero", RateLimitWindowKey)
	}
	if GetDuration(JobTimeoutKey) <= 0 {
		return fmt.Errorf("%s must be greater than zero", JobTimeoutKey)
	}
	if GetInt(MaxStalledCountKey) < 0 {
		return fmt.Errorf("%s must not be negative", MaxStalledCountKey)
	}

	jobPolicy, quotePolicy := GetJobRetryPolicy(), GetQuoteRetryPolicy()
	if err := jobPolicy.Validate(); err != nil {
		return fmt.Errorf("invalid job retry policy: %s", err)
	}
	if err := quotePolicy.Validate(); err != nil {
		return fmt.Errorf("invalid quote retry policy: %s", err)
	}
	if n := retry.WorstCaseAttempts(jobPolicy, quotePolicy); n > MaxWorstCaseAttempts {
		return fmt.Errorf(
			"worst case of %d quote rounds per order exceeds the limit of %d, "+
				"reduce %s or %s", n, MaxWorstCaseAttempts,
			JobMaxAttemptsKey, QuoteMaxAttemptsKey,
		)
	}

	venues := GetStringSlice(VenuesKey)
	if len(venues) <= 0 {
		return fmt.Errorf("%s must not be empty", VenuesKey)
	}
	if defaultVenue := GetString(DefaultVenueKey); defaultVenue != "" {
		found := false
		for _, v := range venues {
			if v == defaultVenue {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf(
				"%s %s is not one of %s", DefaultVenueKey, defaultVenue, VenuesKey,
			)
		}
	}

	for _, key := range []string{
		MockQuoteFailureRateKey, MockExecutionFailureRateKey,
	} {
		if rate := GetFloat(key); rate < 0 || rate > 1 {
			return fmt.Errorf("%s must be in range [0, 1]", key)
		}
	}

	return nil
}

func initDatadir() error {
	datadir := GetDatadir()
	if GetString(DBTypeKey) == DBBadger {
		if err := makeDirectoryIfNotExists(filepath.Join(datadir, DbLocation)); err != nil {
			return err
		}
	}

	profilerEnabled := GetBool(EnableProfilerKey)
	if profilerEnabled {
		if err := makeDirectoryIfNotExists(filepath.Join(datadir, ProfilerLocation)); err != nil {
			return err
		}
	}
	return nil
}

func makeDirectoryIfNotExists(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return os.MkdirAll(path, os.ModeDir|0755)
	}
	return nil
}
