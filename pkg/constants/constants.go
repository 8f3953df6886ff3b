// Package constants provides shared constants for the coop-lending engine.
package constants

import "time"

// DateLayout is the date format expected in config files and used for due
// dates in output.
const DateLayout = "2006-01-02"

// Rate table constants
const (
	// MaxTerms is the number of term slots a rate table or header can hold.
	MaxTerms = 22

	// PercentageMultiplier is used for percentage conversions
	PercentageMultiplier = 100

	// DecimalPlaces is the currency precision (2 decimal places)
	DecimalPlaces = 2
)

// Calendar constants used for due date generation.
const (
	// FixedMonthDays is the length of a monthly period when the exact day
	// flag is not set.
	FixedMonthDays = 30

	// DaysPerWeek is the length of a weekly period.
	DaysPerWeek = 7

	// QuarterMonths is the length of a quarterly period.
	QuarterMonths = 3

	// SemiAnnualMonths is the length of a semi-annual period.
	SemiAnnualMonths = 6

	// AnnualMonths is the length of an annual period.
	AnnualMonths = 12

	// MaxExclusionShift bounds how far a due date may be pushed forward by
	// excluded days before the calendar is considered unusable.
	MaxExclusionShift = 366
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

	// DefaultDatabasePath is used when the configuration names no database.
	DefaultDatabasePath = "coop-lending.db"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address for the API
	DefaultServerAddress = ":8080"

	// DefaultMaxBodySizeBytes is the default maximum request body size (256 KB)
	DefaultMaxBodySizeBytes int64 = 256 * 1024

	// DefaultReadHeaderTimeout bounds how long a client may take to send headers
	DefaultReadHeaderTimeout = 10 * time.Second

	// DefaultShutdownTimeout bounds the graceful shutdown of the API
	DefaultShutdownTimeout = 15 * time.Second
)

// Reprocessing defaults
const (
	// DefaultReprocessWorkers is the pool size used when none is configured.
	DefaultReprocessWorkers = 4
)
