/*
Package config implements a parser for MAC sublayer configuration
represented in the TOML format: https://github.com/toml-lang/toml.

Please refer to the TOML docs for an in-depth description of the syntax.

A node's configuration is called out using a single top-level "node"
table, containing the node's addressing and CSMA-CA/ACK-wait tuning
parameters as key:value pairs.

	# This is the configuration for a single 802.15.4 MAC instance.
	[node]

	# ext_addr specifies the node's 64-bit extended (EUI-64 style)
	# address, as 8 hex-encoded octets.
	ext_addr = "00124b0001020304"

	# pan_id specifies the 16-bit PAN identifier the node operates on.
	pan_id = 0x1234

	# min_be sets the minimum CSMA-CA backoff exponent.
	# By default the compiled-in value of 3 is used.
	min_be = 3

	# max_be sets the maximum CSMA-CA backoff exponent.
	# By default the compiled-in value of 5 is used.
	max_be = 5

	# max_backoffs sets how many times CSMA-CA will back off and retry
	# a clear-channel assessment before reporting a channel access
	# failure.
	# By default the compiled-in value of 4 is used.
	max_backoffs = 4

	# unit_backoff_us sets the unit backoff period in microseconds
	# (IEEE 802.15.4 aUnitBackoffPeriod).
	# By default the compiled-in value of 320 is used.
	unit_backoff_us = 320

	# packet_buf_size sets the largest frame, in octets, the MAC will
	# accept on receive before discarding it as oversize.
	# By default the compiled-in value of 127 is used.
	packet_buf_size = 127

	# wfa_timeout_ms sets how long, in milliseconds, the MAC waits for
	# an ACK after a reliable unicast transmission.
	# By default the compiled-in value of 5 is used.
	wfa_timeout_ms = 5

	# This is the loopback software PHY's socket configuration, used by
	# cmd/macsim. Real radio drivers do not need this table.
	[phy]

	# local specifies the local address the simulated PHY should bind
	# its socket to.
	local = "127.0.0.1:45000"

	# peer specifies the address of the peer the simulated PHY should
	# connect its socket to.
	peer = "127.0.0.1:45001"
*/
package config

import (
	"encoding/hex"
	"fmt"
	"time"

	"github.com/pelletier/go-toml"

	"github.com/crystalpower/emb6mac/addr"
	"github.com/crystalpower/emb6mac/mac"
)

// Config is a single node's MAC sublayer configuration, as parsed from
// the TOML representation.
type Config struct {
	// The entire tree as a map as parsed from the TOML representation.
	// Apps may access this tree to handle their own config tables.
	Map map[string]interface{}

	// ExtAddr is the node's configured extended address.
	ExtAddr addr.Extended
	// PanID is the node's configured PAN identifier.
	PanID addr.PANID
	// MAC holds the CSMA-CA/ACK-wait tuning parameters. Zero-valued
	// fields are defaulted by mac.New.
	MAC mac.Config

	// PHYLocal and PHYPeer are the loopback simulated PHY's socket
	// addresses, present only when a [phy] table is supplied.
	PHYLocal string
	PHYPeer  string
}

// go-toml's ToMap function represents numbers as either uint64 or int64.
// So when we are converting numbers, we need to figure out which one it
// has picked and range check to ensure that the number from the config
// fits within the range of the destination type.
func toUint8(v interface{}) (uint8, error) {
	if b, ok := v.(int64); ok {
		if b < 0x0 || b > 0xff {
			return 0, fmt.Errorf("value %x out of range", b)
		}
		return uint8(b), nil
	} else if b, ok := v.(uint64); ok {
		if b > 0xff {
			return 0, fmt.Errorf("value %x out of range", b)
		}
		return uint8(b), nil
	}
	return 0, fmt.Errorf("unexpected %T value %v", v, v)
}

func toUint16(v interface{}) (uint16, error) {
	if b, ok := v.(int64); ok {
		if b < 0x0 || b > 0xffff {
			return 0, fmt.Errorf("value %x out of range", b)
		}
		return uint16(b), nil
	} else if b, ok := v.(uint64); ok {
		if b > 0xffff {
			return 0, fmt.Errorf("value %x out of range", b)
		}
		return uint16(b), nil
	}
	return 0, fmt.Errorf("unexpected %T value %v", v, v)
}

func toUint32(v interface{}) (uint32, error) {
	if b, ok := v.(int64); ok {
		if b < 0x0 || b > 0xffffffff {
			return 0, fmt.Errorf("value %x out of range", b)
		}
		return uint32(b), nil
	} else if b, ok := v.(uint64); ok {
		if b > 0xffffffff {
			return 0, fmt.Errorf("value %x out of range", b)
		}
		return uint32(b), nil
	}
	return 0, fmt.Errorf("unexpected %T value %v", v, v)
}

func toString(v interface{}) (string, error) {
	if s, ok := v.(string); ok {
		return s, nil
	}
	return "", fmt.Errorf("supplied value could not be parsed as a string")
}

func toDurationMs(v interface{}) (time.Duration, error) {
	u, err := toUint32(v)
	return time.Duration(u) * time.Millisecond, err
}

func toExtAddr(v interface{}) (addr.Extended, error) {
	var ext addr.Extended
	s, err := toString(v)
	if err != nil {
		return ext, err
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return ext, fmt.Errorf("ext_addr must be 16 hex digits: %v", err)
	}
	if len(b) != len(ext) {
		return ext, fmt.Errorf("ext_addr must decode to %d octets, got %d", len(ext), len(b))
	}
	copy(ext[:], b)
	return ext, nil
}

func toPanID(v interface{}) (addr.PANID, error) {
	u, err := toUint16(v)
	return addr.PANID(u), err
}

func newNodeConfig(ncfg map[string]interface{}, cfg *Config) error {
	for k, v := range ncfg {
		var err error
		switch k {
		case "ext_addr":
			cfg.ExtAddr, err = toExtAddr(v)
		case "pan_id":
			cfg.PanID, err = toPanID(v)
		case "min_be":
			cfg.MAC.MinBE, err = toUint8(v)
		case "max_be":
			cfg.MAC.MaxBE, err = toUint8(v)
		case "max_backoffs":
			cfg.MAC.MaxBackoffs, err = toUint8(v)
		case "unit_backoff_us":
			cfg.MAC.UnitBackoffMicros, err = toUint32(v)
		case "packet_buf_size":
			var u uint16
			u, err = toUint16(v)
			cfg.MAC.PacketBufSize = int(u)
		case "wfa_timeout_ms":
			cfg.MAC.WFAPeriod, err = toDurationMs(v)
		default:
			return fmt.Errorf("unrecognised parameter '%v'", k)
		}
		if err != nil {
			return fmt.Errorf("failed to process %v: %v", k, err)
		}
	}
	return nil
}

func newPHYConfig(pcfg map[string]interface{}, cfg *Config) error {
	for k, v := range pcfg {
		var err error
		switch k {
		case "local":
			cfg.PHYLocal, err = toString(v)
		case "peer":
			cfg.PHYPeer, err = toString(v)
		default:
			return fmt.Errorf("unrecognised parameter '%v'", k)
		}
		if err != nil {
			return fmt.Errorf("failed to process %v: %v", k, err)
		}
	}
	return nil
}

func newConfig(tree *toml.Tree) (*Config, error) {
	cfg := &Config{Map: tree.ToMap()}

	if got, ok := cfg.Map["node"]; ok {
		ncfg, ok := got.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("node configuration must be a table, e.g. '[node]'")
		}
		if err := newNodeConfig(ncfg, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse node config: %v", err)
		}
	} else {
		return nil, fmt.Errorf("no node table present")
	}

	if got, ok := cfg.Map["phy"]; ok {
		pcfg, ok := got.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("phy configuration must be a table, e.g. '[phy]'")
		}
		if err := newPHYConfig(pcfg, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse phy config: %v", err)
		}
	}

	return cfg, nil
}

// LoadFile loads configuration from the specified file.
func LoadFile(path string) (*Config, error) {
	tree, err := toml.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file: %v", err)
	}
	return newConfig(tree)
}

// LoadString loads configuration from the specified string.
func LoadString(content string) (*Config, error) {
	tree, err := toml.Load(content)
	if err != nil {
		return nil, fmt.Errorf("failed to load config string: %v", err)
	}
	return newConfig(tree)
}
