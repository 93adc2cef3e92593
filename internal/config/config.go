// Package config defines process configuration structures and loading hooks.
//
// Conventions:
// - Defaults come from New; file and environment layers override them.
// - Durations are expressed as milliseconds in flat integer fields.
// - External errors must be wrapped via this package's error helpers.
package config

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// FrameWidth and FrameHeight set the expected frame dimensions.
	FrameWidth  int `koanf:"frame_width"`
	FrameHeight int `koanf:"frame_height"`

	// FrameRate is the source frame rate in frames per second.
	FrameRate int `koanf:"frame_rate"`

	// QueueSize bounds the in-memory frame ingestion queue.
	QueueSize int `koanf:"queue_size"`

	// SamplingFrequency is the uniform resampling grid rate in Hz.
	SamplingFrequency float64 `koanf:"sampling_frequency"`

	// EstimationIntervalMS sets how often an estimate is attempted.
	EstimationIntervalMS int `koanf:"estimation_interval_ms"`

	// WindowMS and MinWindowMS bound the signal window handed to
	// spectral estimation.
	WindowMS    int `koanf:"window_ms"`
	MinWindowMS int `koanf:"min_window_ms"`

	// HorizonMS sets how much signal history the buffer retains.
	HorizonMS int `koanf:"horizon_ms"`

	// MaxGapMS is the largest inter-sample gap interpolation may bridge.
	MaxGapMS int `koanf:"max_gap_ms"`

	// RescanIntervalMS forces a full-frame detector scan this often.
	RescanIntervalMS int `koanf:"rescan_interval_ms"`

	// MaxMisses is how many consecutive empty detections are tolerated
	// before the track is declared lost.
	MaxMisses int `koanf:"max_misses"`

	// MinBpm and MaxBpm bound the plausible heart-rate band.
	MinBpm float64 `koanf:"min_bpm"`
	MaxBpm float64 `koanf:"max_bpm"`

	// FilterMode selects the denoising pipeline: detrend or bandpass.
	FilterMode string `koanf:"filter_mode"`

	// Channel selects the sampled color channel: red, green or blue.
	Channel string `koanf:"channel"`

	// DetrendWindow is the moving-average window length in samples.
	// Zero derives it from the sampling frequency.
	DetrendWindow int `koanf:"detrend_window"`

	// AggregatorWindow and AggregatorMinCount shape the rolling bpm
	// aggregate.
	AggregatorWindow   int `koanf:"aggregator_window"`
	AggregatorMinCount int `koanf:"aggregator_min_count"`

	// HistorySize bounds the in-memory estimate history.
	HistorySize int `koanf:"history_size"`

	// FaceCascadePath and EyeCascadePath point at Haar cascade files.
	// Empty paths select the scripted synthetic detectors instead.
	FaceCascadePath string `koanf:"face_cascade_path"`
	EyeCascadePath  string `koanf:"eye_cascade_path"`

	// NATSURL enables estimate publishing when non-empty.
	NATSURL     string `koanf:"nats_url"`
	NATSSubject string `koanf:"nats_subject"`

	// Synthetic source parameters for demo runs.
	SyntheticBpm   float64 `koanf:"synthetic_bpm"`
	SyntheticNoise float64 `koanf:"synthetic_noise"`
	SyntheticDrift float64 `koanf:"synthetic_drift"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:             "info",
		Addr:                 ":9080",
		FrameWidth:           640,
		FrameHeight:          480,
		FrameRate:            30,
		QueueSize:            8,
		SamplingFrequency:    30,
		EstimationIntervalMS: 1000,
		WindowMS:             8000,
		MinWindowMS:          3000,
		HorizonMS:            10000,
		MaxGapMS:             500,
		RescanIntervalMS:     1000,
		MaxMisses:            5,
		MinBpm:               42,
		MaxBpm:               240,
		FilterMode:           "bandpass",
		Channel:              "green",
		AggregatorWindow:     10,
		AggregatorMinCount:   3,
		HistorySize:          256,
		NATSSubject:          "rppg.estimates",
		SyntheticBpm:         72,
		SyntheticNoise:       0.5,
		SyntheticDrift:       0.3,
	}
}
