package main

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/genrestats/internal/shared"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	logger     *log.Logger
	output     io.Writer
	httpClient *http.Client
	lookupEnv  func(string) (string, bool)
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	// Config is used as-is when set; otherwise each command loads --config.
	Config *shared.Config
	Logger *log.Logger
	Output io.Writer
	// HTTPClient is handed to the Spotify service; nil uses a client with the configured timeout.
	HTTPClient *http.Client
	// LookupEnv resolves CLIENT_ID and CLIENT_SECRET, defaulting to [os.LookupEnv].
	LookupEnv func(string) (string, bool)
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.LookupEnv == nil {
		opts.LookupEnv = os.LookupEnv
	}

	return &Runner{
		config:     opts.Config,
		logger:     opts.Logger,
		output:     opts.Output,
		httpClient: opts.HTTPClient,
		lookupEnv:  opts.LookupEnv,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		runCommand, historyCommand, setupCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// loadConfig resolves the configuration for a command.
//
// A preset config is used when --config was not passed. Otherwise the file is read, falling back to defaults
// when it does not exist, and the environment (after loading --env) overrides the credentials.
func (r *Runner) loadConfig(cmd *cli.Command) (*shared.Config, error) {
	if envPath := cmd.String("env"); envPath != "" {
		if err := shared.LoadDotEnv(envPath); err != nil {
			return nil, err
		}
	}

	config := r.config
	if config == nil || cmd.IsSet("config") {
		path := cmd.String("config")
		loaded, err := shared.LoadConfig(path)
		switch {
		case errors.Is(err, shared.ErrMissingConfig):
			r.logger.Warn("config file not found, using defaults", "path", path)
			loaded = shared.DefaultConfig()
		case err != nil:
			return nil, err
		}
		config = loaded
	}

	config.ApplyEnv(r.lookupEnv)
	r.config = config
	return config, nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
