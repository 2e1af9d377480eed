// Package log configures a process-wide zerolog logger and exposes leveled
// printf-style helpers.
package log

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	LogLevel                = flag.String("app.log_level", "info", "The desired log level. Logs with a level >= this level will be emitted. One of {'fatal', 'error', 'warn', 'info', 'debug'}")
	EnableStructuredLogging = flag.Bool("app.enable_structured_logging", false, "If true, log messages will be json-formatted.")
	IncludeShortFileName    = flag.Bool("app.log_include_short_file_name", false, "If true, log messages will include shortened originating file name.")
)

// Skipping 3 frames prints the correct source file + line number, rather than
// printing a line number in this file or in the zerolog library.
const callerSkipFrameCount = 3

func init() {
	if err := Configure(); err != nil {
		fmt.Printf("Error configuring logging: %v", err)
		os.Exit(1) // in case log.Fatalf does not work.
	}
}

func LocalWriter() io.Writer {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	output := &zerolog.ConsoleWriter{Out: os.Stderr}
	output.FormatCaller = func(i interface{}) string {
		s, ok := i.(string)
		if !ok {
			return ""
		}
		return fmt.Sprintf("%24s >", filepath.Base(s))
	}
	output.TimeFormat = "2006/01/02 15:04:05.000"
	return output
}

func StructuredWriter() io.Writer {
	// These overrides configure the logger to emit structured events
	// compatible with GCP's logging infrastructure.
	zerolog.LevelFieldName = "severity"
	zerolog.TimestampFieldName = "timestamp"
	zerolog.TimeFieldFormat = time.RFC3339Nano
	return os.Stdout
}

func NewConsoleWriter() io.Writer {
	if *EnableStructuredLogging {
		return StructuredWriter()
	}
	return LocalWriter()
}

func Configure() error {
	logger := zerolog.New(NewConsoleWriter()).With().Timestamp().Logger()
	l, err := zerolog.ParseLevel(*LogLevel)
	if err != nil {
		return err
	}
	logger = logger.Level(l)
	if *IncludeShortFileName {
		logger = logger.With().CallerWithSkipFrameCount(callerSkipFrameCount).Logger()
	}
	log.Logger = logger
	return nil
}

// Debugf logs to the DEBUG log. Arguments are handled in the manner of fmt.Printf.
func Debugf(format string, args ...interface{}) {
	log.Debug().Msgf(format, args...)
}

// Infof logs to the INFO log. Arguments are handled in the manner of fmt.Printf.
func Infof(format string, args ...interface{}) {
	log.Info().Msgf(format, args...)
}

// Warningf logs to the WARNING log. Arguments are handled in the manner of fmt.Printf.
func Warningf(format string, args ...interface{}) {
	log.Warn().Msgf(format, args...)
}

// Errorf logs to the ERROR log. Arguments are handled in the manner of fmt.Printf.
func Errorf(format string, args ...interface{}) {
	log.Error().Msgf(format, args...)
}

// Fatalf logs to the FATAL log and exits with status 1. Arguments are handled
// in the manner of fmt.Printf.
func Fatalf(format string, args ...interface{}) {
	log.Fatal().Msgf(format, args...)
}
