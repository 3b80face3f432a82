package config

// Sampling defaults.
const (
	DefaultSamplingCount    = 100000
	DefaultSamplingWorkers  = 0
	DefaultSamplingSeed     = 0
	DefaultSamplingMaxIters = 10000
)

// Logging defaults.
const (
	DefaultLoggingLevel = "info"
	DefaultLoggingJSON  = false
)

// Server defaults.
const (
	DefaultServerAddr           = ":8080"
	DefaultServerReadTimeout    = "10s"
	DefaultServerWriteTimeout   = "60s"
	DefaultServerMaxSampleCount = 1000000
)

// Telemetry defaults.
const (
	DefaultTelemetryOTLPEndpoint = ""
	DefaultTelemetryOTLPInsecure = false
	DefaultTelemetrySampleRatio  = 0.0
	DefaultTelemetryEnvironment  = ""
)
