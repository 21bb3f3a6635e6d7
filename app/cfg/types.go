package cfg

import "time"

type Cfg struct {
	// Storage and jobs
	JobsDir string
	DBPath  string

	// HTTP server and scheduling
	Port              string
	SchedulerInterval int
	APIAccessKey      string

	// Search and extraction
	SearchProvider     string
	SerpAPIKeys        []string
	DiffbotTokens      []string
	PublisherDomains   []string
	Language           string
	Region             string
	MinContentLength   int
	RespectRobots      bool
	RetryOnEmptyWindow bool
	PairDelayMin       time.Duration
	PairDelayMax       time.Duration
	FetchTimeout       time.Duration

	// Delivery
	SMTPHost string
	SMTPPort int

	// Run mode
	Once bool
	Jobs []string

	// Application metadata
	UserAgent string
	Timezone  string
	Location  *time.Location
	Debug     bool
	LogJSON   bool
	Version   string
}
