package config

const (
	defaultLibraryDir = "~/music"
	defaultOutputDir  = "~/mixes"
	defaultStagingDir = "~/.local/share/mixdown/staging"
	defaultLogDir     = "~/.local/share/mixdown/logs"
	defaultCacheDir   = "~/.cache/mixdown"

	defaultCrossfadeSeconds = 6.0
	defaultFormat           = "flac"
	defaultMP3BitrateKbps   = 320
	defaultTargetLoudness   = -14.0
	defaultTruePeak         = -1.5
	defaultLoudnessRange    = 11.0

	defaultFFmpegBinary  = "ffmpeg"
	defaultProbeBinary   = "ffprobe"
	defaultRenderTimeout = 3600

	defaultAnalysisWorkers = 4
	defaultEnergyPoints    = 200

	defaultLogFormat = "console"
	defaultLogLevel  = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LibraryDir: defaultLibraryDir,
			OutputDir:  defaultOutputDir,
			StagingDir: defaultStagingDir,
			LogDir:     defaultLogDir,
			CacheDir:   defaultCacheDir,
		},
		Export: Export{
			CrossfadeSeconds: defaultCrossfadeSeconds,
			Format:           defaultFormat,
			MP3BitrateKbps:   defaultMP3BitrateKbps,
			Normalization:    true,
			TargetLoudness:   defaultTargetLoudness,
			TruePeak:         defaultTruePeak,
			LoudnessRange:    defaultLoudnessRange,
		},
		FFmpeg: FFmpeg{
			Binary:        defaultFFmpegBinary,
			ProbeBinary:   defaultProbeBinary,
			RenderTimeout: defaultRenderTimeout,
		},
		Analysis: Analysis{
			Workers:      defaultAnalysisWorkers,
			EnergyPoints: defaultEnergyPoints,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
