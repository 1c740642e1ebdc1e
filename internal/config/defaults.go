package config

const (
	defaultConfigPath            = "~/.config/clipdeck/config.toml"
	defaultStateDir              = "~/.local/share/clipdeck"
	defaultDownloadDir           = "~/Downloads/clipdeck"
	defaultLogDir                = "~/.local/share/clipdeck/logs"
	defaultBaseURL               = "http://127.0.0.1:8000"
	defaultBackendTimeoutSeconds = 120
	defaultUploadTimeoutSeconds  = 1800
	defaultUserAgent             = "clipdeck/dev"
	defaultMaxDurationSeconds    = 1200
	defaultFFprobeBinary         = "ffprobe"
	defaultCaptionTimeline       = TimelineClip
	defaultNotifyRequestTimeout  = 10
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
)

// Caption timelines accepted by captions.timeline.
const (
	TimelineClip   = "clip"
	TimelineSource = "source"
)

// defaultAllowedTypes mirrors the upload picker's accepted media types plus
// the registered aliases operating systems report for the same containers.
var defaultAllowedTypes = []string{
	"video/mp4",
	"video/mov",
	"video/quicktime",
	"video/avi",
	"video/x-msvideo",
	"video/mkv",
	"video/x-matroska",
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir:    defaultStateDir,
			HandleDir:   defaultHandleDir(),
			DownloadDir: defaultDownloadDir,
			LogDir:      defaultLogDir,
		},
		Backend: Backend{
			TimeoutSeconds:       defaultBackendTimeoutSeconds,
			UploadTimeoutSeconds: defaultUploadTimeoutSeconds,
			UserAgent:            defaultUserAgent,
		},
		Upload: Upload{
			MaxDurationSeconds: defaultMaxDurationSeconds,
			AllowedTypes:       append([]string(nil), defaultAllowedTypes...),
			FFprobeBinary:      defaultFFprobeBinary,
		},
		Captions: Captions{
			Visible:  true,
			Timeline: defaultCaptionTimeline,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
			Console:        true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
