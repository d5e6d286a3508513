package config

const (
	defaultConfigPath          = "~/.config/videomixer/config.toml"
	defaultLogDir              = "~/.local/share/videomixer/logs"
	defaultTranscriptDir       = "~/.local/share/videomixer/transcripts"
	defaultHistoryDB           = "~/.local/share/videomixer/history.db"
	defaultAPIBind             = "127.0.0.1:7590"
	defaultFFmpeg              = "ffmpeg"
	defaultFFprobe             = "ffprobe"
	defaultProbeTimeoutSeconds = 30
	defaultCaptionMargin       = 50
	defaultCaptionSize         = 90
	defaultCaptionColor        = "0xffffff"
	defaultCaptionBorderColor  = "0x000000"
	defaultBorderWidthRatio    = 0.05
	defaultCaptionDisplay      = 5
	defaultTimezoneOffsetHours = 9
	defaultBackgroundColor     = "0xffffff"
	defaultPreset              = "slow"
	defaultCodec               = "h264"
	defaultNotifyTimeout       = 10
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LogDir:        defaultLogDir,
			TranscriptDir: defaultTranscriptDir,
			HistoryDB:     defaultHistoryDB,
			APIBind:       defaultAPIBind,
		},
		Tools: Tools{
			FFmpeg:              defaultFFmpeg,
			FFprobe:             defaultFFprobe,
			ProbeTimeoutSeconds: defaultProbeTimeoutSeconds,
		},
		Caption: Caption{
			Margin:              defaultCaptionMargin,
			Size:                defaultCaptionSize,
			Color:               defaultCaptionColor,
			BorderColor:         defaultCaptionBorderColor,
			BorderWidthRatio:    defaultBorderWidthRatio,
			DisplaySeconds:      defaultCaptionDisplay,
			TimezoneOffsetHours: defaultTimezoneOffsetHours,
		},
		Output: Output{
			BackgroundColor: defaultBackgroundColor,
			Preset:          defaultPreset,
			Codec:           defaultCodec,
		},
		Notifications: Notifications{
			RequestTimeoutSeconds: defaultNotifyTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
