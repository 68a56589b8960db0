// Package constants provides shared constants for the loan-calculator application.
package constants

// DateTimeLayout is the format expected for the optional schedule start month
// and is also the output date format.
const DateTimeLayout = "2006-01"

// Financial constants
const (
	// MonthsPerYear is the number of months in a year
	MonthsPerYear = 12

	// DecimalPlaces is the number of decimal places shown for currency values
	DecimalPlaces = 2

	// AnnualExtraPaymentPercent is the share of the principal paid as an extra
	// lump sum every 12th month when extra payments are enabled
	AnnualExtraPaymentPercent = 5.0

	// PercentageMultiplier is used for percentage conversions
	PercentageMultiplier = 100.0

	// MaxTermMonths bounds the length of a simulated schedule. Loans that
	// would take longer to repay are rejected rather than simulated.
	MaxTermMonths = 100000

	// MaxFixedPeriodYears is the longest fixed-rate period accepted.
	MaxFixedPeriodYears = MaxTermMonths / MonthsPerYear
)

// Tolerance constants
const (
	// RelativeTolerance is the relative tolerance used when comparing sums of
	// simulated amounts with their expected totals
	RelativeTolerance = 1e-6
)

// Currency display constants
const (
	// CurrencySymbol prefixes amounts shown on screen
	CurrencySymbol = "€"

	// CurrencyCode prefixes amounts written to documents and exports
	CurrencyCode = "EUR"
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "config.yaml"

	// DefaultServerConfigFile is the default server configuration file name
	DefaultServerConfigFile = "server-config.yaml"

	// EnvPrefix prefixes environment variables that override configuration
	EnvPrefix = "LOANCALC"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address
	DefaultServerAddress = ":8080"

	// DefaultMaxBodySizeBytes is the default maximum request body size (256 KB)
	DefaultMaxBodySizeBytes int64 = 256 * 1024

	// DefaultCacheTTLSeconds is the default lifetime of cached results
	DefaultCacheTTLSeconds = 600

	// DefaultShutdownTimeoutSeconds bounds graceful shutdown of the HTTP server
	DefaultShutdownTimeoutSeconds = 10
)

// Cache backend constants
const (
	// CacheBackendNone disables result caching
	CacheBackendNone = "none"

	// CacheBackendMemory keeps results in process memory
	CacheBackendMemory = "memory"

	// CacheBackendRedis keeps results in Redis
	CacheBackendRedis = "redis"
)
