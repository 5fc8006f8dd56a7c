package cfg

type Cfg struct {
	// Application configuration
	SourcesFile  string
	Port         string
	FetchTimeout int
	APIAccessKey string

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
