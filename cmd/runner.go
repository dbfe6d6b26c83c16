// submodule cmd contains command definitions
package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/20uf/tidy-ur-spotify/internal/services"
	"github.com/20uf/tidy-ur-spotify/internal/shared"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	spotify    *services.SpotifyService
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Spotify    *services.SpotifyService
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		spotify:    opts.Spotify,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, classifyCommand, exportCommand, sessionCommand, cacheCommand, updateCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// loadConfig resolves the effective configuration for a command: the --config
// flag wins over the config the runner was constructed with.
func (r *Runner) loadConfig(cmd *cli.Command) (*shared.Config, string, error) {
	configPath := cmd.String("config")
	if configPath == "" {
		configPath = r.configPath
	}
	if configPath != r.configPath || r.config == nil {
		if _, err := os.Stat(configPath); err != nil {
			return nil, configPath, fmt.Errorf("%w: %s (run 'tidy setup' first)", shared.ErrMissingConfig, configPath)
		}
		config, err := shared.LoadConfig(configPath)
		if err != nil {
			return nil, configPath, err
		}
		return config, configPath, nil
	}
	return r.config, configPath, nil
}

// openDatabase opens the local track cache and applies pending migrations.
func (r *Runner) openDatabase(config *shared.Config) (*sql.DB, error) {
	db, err := shared.NewDatabase(config.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)
	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return db, nil
}

// newSpotify builds an authenticated Spotify client from saved credentials.
func (r *Runner) newSpotify(config *shared.Config) (*services.SpotifyService, error) {
	if r.spotify != nil {
		return r.spotify, nil
	}
	if config.Credentials.Spotify.ClientID == "" || config.Credentials.Spotify.ClientSecret == "" {
		return nil, fmt.Errorf("%w: spotify client_id and client_secret must be set in %s", shared.ErrMissingCredentials, r.configPath)
	}
	return services.NewSpotifyService(config.Credentials.Spotify.Map())
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

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

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
