package config

const (
	defaultDataDir           = "~/.local/share/shuttle/data"
	defaultLogDir            = "~/.local/share/shuttle/logs"
	defaultTempDir           = "/tmp/shuttle"
	defaultAPIBind           = "127.0.0.1:7519"
	defaultRadarrPort        = 7878
	defaultRadarrTimeout     = 30
	defaultQueuePollInterval = 1
	defaultHistoryLimit      = 10
	defaultSourceCodec       = "dts"
	defaultSourceLayout      = "5.1(side)"
	defaultTargetCodec       = "flac"
	defaultTargetLayout      = "7.1"
	defaultCompressionLevel  = 8
	defaultTrackTitle        = "FLAC 7.1"
	defaultTrackLanguage     = "eng"
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
			TempDir: defaultTempDir,
			APIBind: defaultAPIBind,
		},
		Radarr: Radarr{
			Port:           defaultRadarrPort,
			RequestTimeout: defaultRadarrTimeout,
		},
		Tools: Tools{
			Rsync:    "rsync",
			FFmpeg:   "ffmpeg",
			FFprobe:  "ffprobe",
			MKVMerge: "mkvmerge",
			Ionice:   "ionice",
			Nice:     "nice",
		},
		Convert: Convert{
			SourceCodec:      defaultSourceCodec,
			SourceLayout:     defaultSourceLayout,
			TargetCodec:      defaultTargetCodec,
			TargetLayout:     defaultTargetLayout,
			CompressionLevel: defaultCompressionLevel,
			TrackTitle:       defaultTrackTitle,
			TrackLanguage:    defaultTrackLanguage,
		},
		Workflow: Workflow{
			QueuePollInterval: defaultQueuePollInterval,
			HistoryLimit:      defaultHistoryLimit,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
