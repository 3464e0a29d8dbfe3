package config

import "time"

// Central place for all application-wide timing constants and other
// defaults. Changing a value here immediately affects every component that
// imports github.com/eggybricks/trainctl/internal/config.

const (
	// Follower loop cadences.
	SwitchPollInterval      = 50 * time.Millisecond
	TrainSensorPollInterval = 50 * time.Millisecond
	TrainHeartbeatInterval  = 2 * time.Second

	// Sensor noise floor: readings further than this are treated as no
	// surface detected and discarded.
	SensorDistanceThreshold = 15.0
	// Pattern ring-buffer sizing: keep the last RingBufferFactor*len(pattern)
	// accepted readings before consolidation.
	RingBufferFactor = 4

	// Executor retry/timeout policy.
	SwitchCommandTimeout = 5 * time.Second
	SwitchCommandRetries = 3
	SwitchCommandPause   = 1 * time.Second
	TrainCommandTimeout  = 30 * time.Second

	// Motor drive characteristics, per-switch-kind: DC motors and plain
	// motors settle at different rates.
	MotorPower          = 100
	MotorMoveTimeM      = 70 * time.Millisecond
	MotorMoveTimeL      = 85 * time.Millisecond
	MotorBrakeSettle    = 20 * time.Millisecond

	// Dedup ledger capacity.
	DedupCapacity = 128

	// Pattern-match stabilization: how many consecutive identical color
	// readings confirm a run ("min_repeats").
	DefaultMinRepeats = 2

	// Planner search bound: caps node expansion so a disconnected goal fails fast.
	DefaultMaxSearchNodes = 100
)
