package config

import (
	"testing"
)

const testConfigPath = "../../test/test_config.yaml"

func TestLoadConfiguration(t *testing.T) {
	tests := []struct {
		name       string
		configPath string
		wantError  bool
	}{
		{
			name:       "Non-existent config file",
			configPath: "nonexistent.yaml",
			wantError:  true,
		},
		{
			name:       "Example config file",
			configPath: testConfigPath,
			wantError:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config, err := LoadConfiguration(tt.configPath)
			if tt.wantError {
				if err == nil {
					t.Errorf("LoadConfiguration() expected error but got none")
				}
				return
			}
			if err != nil {
				t.Errorf("LoadConfiguration() error = %v", err)
				return
			}
			if config == nil {
				t.Errorf("LoadConfiguration() returned nil config")
			}
		})
	}
}

func TestLoadConfigurationExample(t *testing.T) {
	config, err := LoadConfiguration(testConfigPath)
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}

	if !config.Branch.LoanAppliedEqualToBalance {
		t.Errorf("Branch.LoanAppliedEqualToBalance = false, expected true")
	}
	if config.Branch.TaxInterest != 20 {
		t.Errorf("Branch.TaxInterest = %v, expected 20", config.Branch.TaxInterest)
	}
	if config.Branch.DiminishingStraightPeriods != 3 {
		t.Errorf("Branch.DiminishingStraightPeriods = %d, expected 3", config.Branch.DiminishingStraightPeriods)
	}
	if len(config.Holidays) != 3 || config.Holidays[2] != "2025-12-25" {
		t.Errorf("Holidays = %v", config.Holidays)
	}
	if len(config.Schemes) != 3 {
		t.Fatalf("Schemes = %d, expected 3", len(config.Schemes))
	}
	weekly := config.Schemes[0].ByTerm[1]
	if weekly.Mode != "weekly" || len(weekly.Rates) != 6 || weekly.Rates[3] != nil {
		t.Errorf("weekly rates = %+v, expected 6 rates with the 4th unset", weekly)
	}
	if len(config.Loans) != 2 {
		t.Fatalf("Loans = %d, expected 2", len(config.Loans))
	}
	salary := config.Loans[0]
	if salary.MemberTypeID != "regular" || salary.Principal != 100000 || !salary.ExactDay || len(salary.Charges) != 2 {
		t.Errorf("salary loan = %+v", salary)
	}
	if config.Logging.Level != "info" || config.Output.Format != "pretty" {
		t.Errorf("logging/output = %+v/%+v", config.Logging, config.Output)
	}
	if config.Database.Path != "coop-lending.db" {
		t.Errorf("Database.Path = %q", config.Database.Path)
	}
}

func TestValidateConfiguration(t *testing.T) {
	config, err := LoadConfiguration(testConfigPath)
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	if warnings := config.ValidateConfiguration(); len(warnings) != 0 {
		t.Errorf("ValidateConfiguration() = %v, expected no warnings", warnings)
	}

	config.Branch.DiminishingStraightPeriods = 0
	config.Loans[0].Charges = append(config.Loans[0].Charges, "penalty")
	warnings := config.ValidateConfiguration()
	if len(warnings) != 2 {
		t.Errorf("ValidateConfiguration() = %v, expected 2 warnings", warnings)
	}
}
