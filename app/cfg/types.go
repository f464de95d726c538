package cfg

type Cfg struct {
	// Storage configuration
	DBPath string

	// Application configuration
	SitesDir       string
	Port           string
	UpdateInterval int
	FetchTimeout   int
	NetProbeAddr   string
	APIAccessKey   string

	// Notification preferences, passed through to the notifier
	KeepAwake     bool
	NotifyVibrate bool
	NotifyLight   bool

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
