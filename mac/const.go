package mac

import "time"

// Compile-time defaults for the CSMA-CA and ACK-wait parameters
// described in spec.md §4.4/§6. All are overridable per-instance via
// Config, following the teacher's pattern of sane compiled-in
// defaults with a config-driven override (l2tp's
// defaulttransportConfig/sanitiseConfig).
const (
	// defaultMinBE is the minimum backoff exponent.
	defaultMinBE = 3
	// defaultMaxBE is the maximum backoff exponent.
	defaultMaxBE = 5
	// defaultMaxBackoffs is the maximum number of backoff attempts
	// before CSMA-CA reports CHANNEL_ACCESS_FAILURE.
	defaultMaxBackoffs = 4
	// defaultUnitBackoffMicros is the unit backoff period in
	// microseconds (IEEE 802.15.4 aUnitBackoffPeriod, 20 symbol periods
	// at 62.5k symbols/sec for 2.4GHz O-QPSK).
	defaultUnitBackoffMicros = 320
	// defaultPacketBufSize is the maximum frame length the MAC will
	// accept on receive before declaring INVALID_FRAME (spec.md §4.2).
	defaultPacketBufSize = 127
	// defaultWFAMillis is the ACK-wait duration. spec.md §4.3 notes a
	// platform constant of 5ms, or 9ms with wake-on-radio enabled.
	defaultWFAMillis = 5 * time.Millisecond
)

// defaultConfig returns the compiled-in configuration, used whenever
// a zero-value field is found in a caller-supplied Config (see
// sanitise).
func defaultConfig() Config {
	return Config{
		MinBE:             defaultMinBE,
		MaxBE:             defaultMaxBE,
		MaxBackoffs:       defaultMaxBackoffs,
		UnitBackoffMicros: defaultUnitBackoffMicros,
		PacketBufSize:     defaultPacketBufSize,
		WFAPeriod:         defaultWFAMillis,
	}
}

func sanitise(cfg *Config) {
	d := defaultConfig()
	if cfg.MinBE == 0 {
		cfg.MinBE = d.MinBE
	}
	if cfg.MaxBE == 0 {
		cfg.MaxBE = d.MaxBE
	}
	if cfg.MaxBackoffs == 0 {
		cfg.MaxBackoffs = d.MaxBackoffs
	}
	if cfg.UnitBackoffMicros == 0 {
		cfg.UnitBackoffMicros = d.UnitBackoffMicros
	}
	if cfg.PacketBufSize == 0 {
		cfg.PacketBufSize = d.PacketBufSize
	}
	if cfg.WFAPeriod == 0 {
		cfg.WFAPeriod = d.WFAPeriod
	}
}
