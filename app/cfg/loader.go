package cfg

import (
	"cmp"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type publishCmd struct {
	Project string `short:"p" long:"project" required:"true" description:"Project name (file name of its .yml config)"`
	History string `long:"history" description:"Publish from an exported build listing (JSON) instead of the build store"`
}

type recordCmd struct {
	Project   string   `short:"p" long:"project" required:"true" description:"Project name"`
	Number    int      `short:"n" long:"number" required:"true" description:"Build number"`
	Status    string   `short:"s" long:"status" default:"SUCCESS" description:"Build status (SUCCESS, FAILURE or anything else)"`
	Artifacts []string `short:"a" long:"artifact" description:"Artifact file produced by the build (repeatable)"`
	Changes   []string `short:"c" long:"change" description:"Change message (repeatable, oldest first)"`
	Publish   bool     `long:"publish" description:"Publish the appcast after recording"`
}

type listCmd struct {
	Project string `short:"p" long:"project" required:"true" description:"Project name"`
}

type serveCmd struct{}

type rawCfg struct {
	// Storage configuration
	ProjectsDir  string `long:"projects-dir" env:"PROJECTS_DIR" default:"./projects" description:"Directory containing project configuration files"`
	DBPath       string `long:"db-path" env:"DB_PATH" default:"./data/appcaster.db" description:"SQLite build history database"`
	ArtifactsDir string `long:"artifacts-dir" env:"ARTIFACTS_DIR" default:"." description:"Directory that relative artifact paths resolve against"`

	// Server configuration
	Port         string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	WorkerCount  int    `long:"worker-count" env:"WORKER_COUNT" default:"2" description:"Number of background publish workers"`
	APIAccessKey string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key enabling build ingestion (optional)"`

	// Application metadata
	Timezone string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, America/New_York)"`
	Debug    bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`

	Publish publishCmd `command:"publish" description:"Publish the appcast of a project"`
	Record  recordCmd  `command:"record" description:"Record a build in the build history"`
	List    listCmd    `command:"list" description:"List the releases in a published appcast"`
	Serve   serveCmd   `command:"serve" description:"Run the HTTP server and publish workers"`
}

// Load parses the process arguments. It returns nil, nil when help was
// requested.
func Load() (*Cfg, error) {
	return LoadArgs(os.Args[1:])
}

func LoadArgs(args []string) (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.ParseArgs(args); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		ProjectsDir:  raw.ProjectsDir,
		DBPath:       raw.DBPath,
		ArtifactsDir: raw.ArtifactsDir,
		Port:         raw.Port,
		WorkerCount:  raw.WorkerCount,
		APIAccessKey: raw.APIAccessKey,
		Timezone:     raw.Timezone,
		Debug:        raw.Debug,
		Version:      GetVersion(),
	}

	if parser.Active != nil {
		cfg.Command = parser.Active.Name
	}

	switch cfg.Command {
	case CommandPublish:
		cfg.Project = raw.Publish.Project
		cfg.HistoryFile = raw.Publish.History
	case CommandRecord:
		if raw.Record.Number <= 0 {
			return nil, fmt.Errorf("build number must be positive: %d", raw.Record.Number)
		}
		cfg.Project = raw.Record.Project
		cfg.Publish = raw.Record.Publish
		cfg.Build = BuildInput{
			Number:    raw.Record.Number,
			Status:    raw.Record.Status,
			Artifacts: raw.Record.Artifacts,
			Changes:   raw.Record.Changes,
		}
	case CommandList:
		cfg.Project = raw.List.Project
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	return cfg, nil
}

func applyTimezone(timezone string) error {
	if timezone == "" {
		return nil
	}

	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return err
	}
	time.Local = loc
	return nil
}
