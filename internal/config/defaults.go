package config

const (
	defaultPollIntervalSeconds = 5
	defaultDiscoveryEvery      = 6
	defaultFetchLimit          = 500
	defaultFetchTimeoutSeconds = 30
	defaultMaxLookbackSeconds  = 900
	defaultFilterMode          = FilterModeIntersect
	defaultBackoffBaseSeconds  = 1
	defaultBackoffCapSeconds   = 60
	defaultMaxFailures         = 8
	defaultStartTimeoutSeconds = 600
	defaultAPITimeoutSeconds   = 15
	defaultRecordDir           = "~/.local/share/lantern/records"
	defaultLogLevel            = "info"
	defaultLogFormat           = "console"
)

// Filter modes for combining a group-name prefix with a pattern.
const (
	// FilterModeIntersect narrows the listing with the prefix, then applies
	// the pattern to the result.
	FilterModeIntersect = "intersect"
	// FilterModePattern evaluates the pattern over the full listing and
	// ignores the prefix.
	FilterModePattern = "pattern"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		API: API{
			TimeoutSeconds: defaultAPITimeoutSeconds,
		},
		Watch: Watch{
			PollIntervalSeconds: defaultPollIntervalSeconds,
			DiscoveryEvery:      defaultDiscoveryEvery,
			FetchLimit:          defaultFetchLimit,
			FetchTimeoutSeconds: defaultFetchTimeoutSeconds,
			MaxLookbackSeconds:  defaultMaxLookbackSeconds,
			FilterMode:          defaultFilterMode,
			BackoffBaseSeconds:  defaultBackoffBaseSeconds,
			BackoffCapSeconds:   defaultBackoffCapSeconds,
			MaxFailures:         defaultMaxFailures,
			StartTimeoutSeconds: defaultStartTimeoutSeconds,
		},
		Record: Record{
			Dir: defaultRecordDir,
		},
		LogLevel:  defaultLogLevel,
		LogFormat: defaultLogFormat,
	}
}
