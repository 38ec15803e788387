package cfg

type Cfg struct {
	// Storage configuration
	ProjectsDir  string
	DBPath       string
	ArtifactsDir string

	// Server configuration
	Port         string
	WorkerCount  int
	APIAccessKey string

	// Application metadata
	Timezone string
	Debug    bool
	Version  string

	// Command selects the sub-command; the fields below are its arguments.
	Command     string
	Project     string
	HistoryFile string
	Build       BuildInput
	Publish     bool
}

// BuildInput is a build recorded from the command line.
type BuildInput struct {
	Number    int
	Status    string
	Artifacts []string
	Changes   []string
}

const (
	CommandPublish = "publish"
	CommandRecord  = "record"
	CommandList    = "list"
	CommandServe   = "serve"
)
