package config

import "time"

// Application metadata
const (
	AppName    = "invictus2obc"
	Version    = "0.1.0"
	ConfigFile = "obc.yaml"
)

// Logging defaults
const (
	LogLevel  = "info"
	LogFormat = "console"
)

// Sampler defaults (§4.2)
const (
	HydraSampleMS = 100
	LiftSampleMS  = 200
)

// Bus transaction timeout default (§5 "bounded bus timeout")
const (
	BusTimeout = 50 * time.Millisecond
)

// Controller worker defaults
const (
	WorkQueueDepth = 64
)

// Abort-entry pressurizing delay default (§9 open question — left to config)
const (
	AbortPressurizingDelay = 2 * time.Second
)

// Fixed radio frame layout (§6)
const (
	PacketSize        = 128
	PacketHeaderSize  = 4
	PacketPayloadSize = PacketSize - PacketHeaderSize
	PacketVersion     = 1
)

// Default periodic telemetry push interval (original_source lora_thrd.c)
const (
	StatusReportInterval = 1 * time.Second
)

// Config hot-reload debounce (watcher)
const (
	ConfigWatchDebounce = 500 * time.Millisecond
)
