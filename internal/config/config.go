// Package config defines the data structures related to configuration and
// includes functions for loading and parsing the config.
package config

import (
	"fmt"

	"github.com/iwvelando/coop-lending/pkg/constants"
	"github.com/iwvelando/coop-lending/pkg/validation"
	"github.com/spf13/viper"
)

// DateLayout is the format expected for dates in config files.
const DateLayout = constants.DateLayout

// Configuration holds all configuration for coop-lending.
type Configuration struct {
	Branch   Branch
	Schemes  []Scheme
	Holidays []string
	Loans    []Loan
	Logging  LoggingConfig  `yaml:"logging,omitempty"`
	Output   OutputConfig   `yaml:"output,omitempty"`
	Database DatabaseConfig `yaml:"database,omitempty"`
}

// Branch holds the branch-level settings the engine treats as inputs.
type Branch struct {
	Name string
	// LoanAppliedEqualToBalance re-syncs a loan's applied amount to the
	// balance of its accounts when it is reprocessed.
	LoanAppliedEqualToBalance bool
	// TaxInterest is the percentage of interest withheld as tax.
	TaxInterest float64
	// DiminishingStraightPeriods is the number of leading Straight periods of
	// a Diminishing Straight loan.
	DiminishingStraightPeriods int
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty"`      // debug, info, warn, error
	Format     string `yaml:"format,omitempty"`     // json, console
	OutputFile string `yaml:"outputFile,omitempty"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `yaml:"format,omitempty"` // pretty, csv
}

// DatabaseConfig locates the SQLite database used when serving.
type DatabaseConfig struct {
	Path string `yaml:"path,omitempty"`
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there.
func LoadConfiguration(configPath string) (*Configuration, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.AutomaticEnv()

	v.SetConfigType("yml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file, %s", err)
	}

	var configuration Configuration
	err := v.Unmarshal(&configuration)
	if err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %s", err)
	}

	if configuration.Database.Path == "" {
		configuration.Database.Path = constants.DefaultDatabasePath
	}

	return &configuration, nil
}

// ValidateConfiguration performs general validation of the configuration and
// returns warnings. Hard errors surface later, when the loans are converted.
func (c *Configuration) ValidateConfiguration() []string {
	validator := validation.ConfigValidator{
		TaxInterest:                c.Branch.TaxInterest,
		DiminishingStraightPeriods: c.Branch.DiminishingStraightPeriods,
		Holidays:                   c.Holidays,
	}
	for _, s := range c.Schemes {
		validator.Schemes = append(validator.Schemes, validation.SchemeConfig{
			Name:         s.Name,
			CurrencyID:   s.CurrencyID,
			MemberTypeID: s.MemberTypeID,
			Terms:        len(s.Header),
		})
	}
	for _, l := range c.Loans {
		validator.Loans = append(validator.Loans, validation.LoanConfig{
			Name:            l.Name,
			CurrencyID:      l.CurrencyID,
			MemberTypeID:    l.MemberTypeID,
			Terms:           l.Terms,
			ComputationType: l.ComputationType,
			ExcludeHoliday:  l.ExcludeHoliday,
			Charges:         l.Charges,
		})
	}
	return validator.ValidateAll()
}
