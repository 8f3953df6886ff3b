package validation

import (
	"fmt"
	"strings"

	"github.com/iwvelando/coop-lending/pkg/constants"
)

var (
	outputFormats = []string{constants.OutputFormatPretty, constants.OutputFormatCSV}
	logFormats    = []string{"json", "console"}
	logLevels     = []string{"debug", "info", "warn", "warning", "error"}
)

func oneOf(kind, value string, allowed []string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return fmt.Errorf("expected %s of %s, got %q", kind, strings.Join(allowed, " or "), value)
}

// ValidateOutputFormat checks if the output format is one of the supported formats.
func ValidateOutputFormat(format string) error {
	return oneOf("output format", format, outputFormats)
}

// ValidateLogFormat checks the logging encoder name.
func ValidateLogFormat(format string) error {
	return oneOf("log format", format, logFormats)
}

// ValidateLogLevel checks the logging level name.
func ValidateLogLevel(level string) error {
	return oneOf("log level", level, logLevels)
}
