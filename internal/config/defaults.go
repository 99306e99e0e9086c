package config

const (
	defaultOutputDir         = "~/encoded"
	defaultStagingDir        = "~/.local/share/hopper/staging"
	defaultLogDir            = "~/.local/share/hopper/logs"
	defaultLogRetentionDays  = 60
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
	defaultConcurrency       = 1
	defaultStopGraceSeconds  = 10
	defaultQuiescenceSeconds = 2
	defaultNotifyTimeout     = 10
	defaultShutdownGraceMS   = 500
)

func defaultVideoExtensions() []string {
	return []string{"mkv", "mp4", "m4v", "avi", "mov", "ts", "m2ts", "webm", "wmv", "mpg", "mpeg"}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			OutputDir:  defaultOutputDir,
			StagingDir: defaultStagingDir,
			LogDir:     defaultLogDir,
		},
		Encoding: Encoding{
			Concurrency:      defaultConcurrency,
			UseLibrary:       true,
			StopGraceSeconds: defaultStopGraceSeconds,
		},
		Watch: Watch{
			QuiescenceSeconds: defaultQuiescenceSeconds,
			Extensions:        defaultVideoExtensions(),
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			QueueStarted:   true,
			QueueCompleted: true,
			Errors:         true,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
		History: History{
			Enabled: true,
			Path:    defaultHistoryPath(),
		},
		Workflow: Workflow{
			ShutdownGraceMS: defaultShutdownGraceMS,
		},
	}
}
