// Copyright 2020 Anapaya Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package launcher contains the harness shared by the server applications:
// command line parsing, configuration loading, logging setup and signal
// handling.
package launcher

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hsrprp/hsrprp/pkg/log"
	"github.com/hsrprp/hsrprp/pkg/private/prom"
	"github.com/hsrprp/hsrprp/pkg/private/serrors"
	libconfig "github.com/hsrprp/hsrprp/private/config"
	"github.com/hsrprp/hsrprp/private/env"
)

// Configuration keys read by the launcher itself.
const (
	cfgConfigFile                = "config"
	cfgGeneralID                 = "general.id"
	cfgLogConsoleLevel           = "log.console.level"
	cfgLogConsoleFormat          = "log.console.format"
	cfgLogConsoleStacktraceLevel = "log.console.stacktrace_level"
	cfgLogConsoleDisableCaller   = "log.console.disable_caller"
)

// Version is reported by the version subcommand. It is set at link time.
var Version = "dev"

// Application models a server application.
type Application struct {
	// TOMLConfig holds the application-specific TOML configuration. It is
	// decoded from the file given with --config, defaulted and validated
	// before Main runs.
	TOMLConfig libconfig.Config

	// ShortName is the short name of the application. If empty, the
	// executable name is used.
	ShortName string

	// Main is the custom logic of the application. If nil, only the
	// setup/teardown harness runs. Main must return once ctx is done.
	Main func(ctx context.Context) error

	// ErrorWriter specifies where error output should be printed. If nil,
	// os.Stderr is used.
	ErrorWriter io.Writer

	// Registerer is used for the log entry counter. If nil, the default
	// registerer is used.
	Registerer prometheus.Registerer

	cmd    *cobra.Command
	config *viper.Viper
}

// Run sets up the common server harness, and then passes control to the Main
// function (if one exists). It cancels the context passed to Main on SIGINT
// and SIGTERM.
//
// Run uses the following globals:
//
//	os.Args
//
// Run will exit the application if it encounters a fatal error.
func (a *Application) Run() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	if err := a.run(ctx, filepath.Base(os.Args[0]), os.Args[1:]); err != nil {
		fmt.Fprintf(a.getErrorWriter(), "fatal error: %v\n", err)
		cancel()
		os.Exit(1)
	}
}

func (a *Application) run(ctx context.Context, executable string, args []string) error {
	shortName := a.getShortName(executable)

	a.cmd = newCommandTemplate(executable, shortName, a.TOMLConfig)
	a.cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		return a.executeCommand(cmd.Context(), shortName)
	}
	a.cmd.SetArgs(args)
	a.cmd.SetErr(a.getErrorWriter())

	a.config = viper.New()
	a.config.SetDefault(cfgLogConsoleLevel, log.DefaultConsoleLevel)
	a.config.SetDefault(cfgLogConsoleFormat, log.DefaultConsoleFormat)
	a.config.SetDefault(cfgLogConsoleStacktraceLevel, log.DefaultStacktraceLevel)
	a.config.SetDefault(cfgLogConsoleDisableCaller, false)
	a.config.SetDefault(cfgGeneralID, executable)
	// The configuration file location is specified through command-line
	// flags. Once they are parsed, the location is available from viper.
	if err := a.config.BindPFlag(cfgConfigFile, a.cmd.Flags().Lookup(cfgConfigFile)); err != nil {
		return err
	}
	return a.cmd.ExecuteContext(ctx)
}

func (a *Application) executeCommand(ctx context.Context, shortName string) error {
	os.Setenv("TZ", "UTC")

	// Load launcher configurations from the same config file as the custom
	// application configuration.
	file := a.config.GetString(cfgConfigFile)
	a.config.SetConfigType("toml")
	a.config.SetConfigFile(file)
	if err := a.config.ReadInConfig(); err != nil {
		return serrors.Wrap("loading generic server config from file", err, "file", file)
	}
	if err := libconfig.LoadFile(file, a.TOMLConfig); err != nil {
		return serrors.Wrap("loading config from file", err, "file", file)
	}
	a.TOMLConfig.InitDefaults()

	reg := a.Registerer
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	logEntriesTotal := prom.SafeRegister(reg, prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lib_log_emitted_entries_total",
			Help: "Total number of log entries emitted.",
		},
		[]string{prom.LabelLevel},
	)).(*prometheus.CounterVec)
	opt := log.WithEntriesCounter(log.EntriesCounter{
		Debug: logEntriesTotal.With(prometheus.Labels{prom.LabelLevel: "debug"}),
		Info:  logEntriesTotal.With(prometheus.Labels{prom.LabelLevel: "info"}),
		Error: logEntriesTotal.With(prometheus.Labels{prom.LabelLevel: "error"}),
	})
	if err := log.Setup(a.getLogging(), opt); err != nil {
		return serrors.Wrap("initialize logging", err)
	}
	defer log.Flush()

	id := a.config.GetString(cfgGeneralID)
	if err := env.LogAppStarted(shortName, id); err != nil {
		return err
	}
	defer env.LogAppStopped(shortName, id)
	defer log.HandlePanic()

	if err := a.TOMLConfig.Validate(); err != nil {
		return serrors.Wrap("validate config", err)
	}
	if a.Main == nil {
		return nil
	}
	return a.Main(ctx)
}

func (a *Application) getLogging() log.Config {
	return log.Config{
		Console: log.ConsoleConfig{
			Level:           a.config.GetString(cfgLogConsoleLevel),
			Format:          a.config.GetString(cfgLogConsoleFormat),
			StacktraceLevel: a.config.GetString(cfgLogConsoleStacktraceLevel),
			DisableCaller:   a.config.GetBool(cfgLogConsoleDisableCaller),
		},
	}
}

func (a *Application) getShortName(executable string) string {
	if a.ShortName != "" {
		return a.ShortName
	}
	return executable
}

func (a *Application) getErrorWriter() io.Writer {
	if a.ErrorWriter != nil {
		return a.ErrorWriter
	}
	return os.Stderr
}

func newCommandTemplate(executable, shortName string, config libconfig.Sampler) *cobra.Command {
	cmd := &cobra.Command{
		Use:           executable,
		Short:         shortName,
		Example:       fmt.Sprintf("  %s --config %s", executable, "lre.toml"),
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
	}
	cmd.Flags().String(cfgConfigFile, "", "Configuration file (required)")
	cmd.MarkFlagRequired(cfgConfigFile)

	cmd.AddCommand(
		&cobra.Command{
			Use:   "sample",
			Short: "Display a sample configuration file",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				config.Sample(cmd.OutOrStdout(), nil,
					libconfig.CtxMap{libconfig.ID: executable})
				return nil
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Show the version information",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", shortName, Version)
			},
		},
	)
	return cmd
}
