package config

const (
	defaultArchiveDir         = "~/archive"
	defaultDataDir            = "~/.local/share/shellac"
	defaultLogDir             = "~/.local/share/shellac/logs"
	defaultSceneSeparator     = ":"
	defaultMinEpisodeMinutes  = 12
	defaultMaxEpisodeMinutes  = 35
	defaultCataloguePageLimit = 50
	defaultDownloaderBinary   = "yt-dlp"
	defaultAudioFormat        = "mp3"
	defaultAudioQuality       = "192K"
	defaultDownloadTimeout    = 900
	defaultDownloadRetries    = 3
	defaultMergeDriftSeconds  = 15
	defaultFFmpegBinary       = "ffmpeg"
	defaultFFprobeBinary      = "ffprobe"
	defaultFingerprintBinary  = "olaf"
	defaultFileListPath       = "~/.olaf/file_list.json"
	defaultConfidence         = 0.6
	defaultMinSamples         = 3
	defaultClipOffsetSeconds  = 30
	defaultClipLengthSeconds  = 60
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			ArchiveDir: defaultArchiveDir,
			DataDir:    defaultDataDir,
			LogDir:     defaultLogDir,
		},
		Show: Show{
			SceneSeparator:    defaultSceneSeparator,
			MinEpisodeMinutes: defaultMinEpisodeMinutes,
			MaxEpisodeMinutes: defaultMaxEpisodeMinutes,
		},
		Sources: Sources{
			CataloguePageLimit: defaultCataloguePageLimit,
		},
		Downloader: Downloader{
			Binary:                     defaultDownloaderBinary,
			AudioFormat:                defaultAudioFormat,
			AudioQuality:               defaultAudioQuality,
			TimeoutSeconds:             defaultDownloadTimeout,
			Retries:                    defaultDownloadRetries,
			MergeDriftToleranceSeconds: defaultMergeDriftSeconds,
		},
		Media: Media{
			FFmpegBinary:  defaultFFmpegBinary,
			FFprobeBinary: defaultFFprobeBinary,
		},
		Fingerprint: Fingerprint{
			Binary:              defaultFingerprintBinary,
			FileListPath:        defaultFileListPath,
			ConfidenceThreshold: defaultConfidence,
			MinSamples:          defaultMinSamples,
			ClipOffsetSeconds:   defaultClipOffsetSeconds,
			ClipLengthSeconds:   defaultClipLengthSeconds,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
