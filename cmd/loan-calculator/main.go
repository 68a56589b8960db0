package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/iwvelando/loan-calculator/internal/calculation"
	"github.com/iwvelando/loan-calculator/internal/config"
	"github.com/iwvelando/loan-calculator/internal/logging"
	"github.com/iwvelando/loan-calculator/pkg/constants"
	"github.com/iwvelando/loan-calculator/pkg/output"
	"github.com/iwvelando/loan-calculator/pkg/validation"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// loadConfiguration reads the calculation file, or standard input when the
// location is "-".
func loadConfiguration(location string) (*config.Configuration, error) {
	if location == "-" {
		return config.LoadConfigurationFromReader(os.Stdin)
	}
	return config.LoadConfiguration(location)
}

func main() {
	// Environment overrides may come from a .env file.
	_ = godotenv.Load()

	// Process command line flags first to get config location
	configLocation := flag.String("config", constants.DefaultConfigFile, "path to configuration file, - for stdin")
	outputFormatFlag := flag.String("output-format", "", "type of output override: pretty, csv")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	showSchedule := flag.Bool("schedule", false, "include the monthly schedule in pretty output")
	flag.Parse()

	// Load the config file to get logging configuration
	conf, err := loadConfiguration(*configLocation)
	if err != nil {
		fmt.Fprintf(os.Stderr, "{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load configuration at %s\", \"error\": \"%v\"}\n", *configLocation, err)
		os.Exit(1)
	}

	// Initialize logging based on config and CLI override
	logger, err := logging.New(conf.Logging, *logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	// Determine output format (CLI override takes precedence over config)
	outputFormat := conf.Output.Format
	if *outputFormatFlag != "" {
		outputFormat = *outputFormatFlag
	}
	if outputFormat == "" {
		outputFormat = constants.OutputFormatPretty
	}

	if err := validation.ValidateOutputFormat(outputFormat); err != nil {
		logger.Fatal(err.Error(),
			zap.String("op", "main"),
		)
	}

	if err := conf.Validate(); err != nil {
		logger.Fatal("invalid configuration",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}

	result, err := calculation.Calculate(logger, conf.Loan)
	if err != nil {
		logger.Fatal("failed to calculate amortization schedule",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}

	// Handle output.
	switch outputFormat {
	case constants.OutputFormatPretty:
		err = output.PrettyFormat(os.Stdout, result, output.PrettyOptions{
			ShowSchedule: conf.Output.ShowSchedule || *showSchedule,
			CurrencyCode: conf.Output.CurrencyCode,
		})
	case constants.OutputFormatCSV:
		err = output.CsvFormat(os.Stdout, result)
	}
	if err != nil {
		logger.Fatal("failed to write output",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}
}
