package main

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/edu-rossrobotics/cyphal"
	"github.com/edu-rossrobotics/cyphal/dsdl/uavcannode"
)

// Config is the resolved monitor configuration.
type Config struct {
	Interface string
	NodeID    cyphal.NodeID
	MTU       int
	LogLevel  string
	Subjects  []cyphal.PortID
}

// DefaultConfig returns the configuration used when no file is given:
// anonymous classic-CAN monitoring of the heartbeat subject on can0.
func DefaultConfig() Config {
	return Config{
		Interface: "can0",
		NodeID:    cyphal.NodeIDUnset,
		MTU:       cyphal.MTUClassic,
		LogLevel:  "info",
		Subjects:  []cyphal.PortID{cyphal.PortID(uavcannode.HeartbeatSubjectID)},
	}
}

type fileConfig struct {
	Interface string  `toml:"interface"`
	NodeID    int64   `toml:"node_id"`
	MTU       int     `toml:"mtu"`
	LogLevel  string  `toml:"log_level"`
	Subjects  []int64 `toml:"subjects"`
}

// loadConfig overlays the TOML file at path onto the defaults. Only keys
// present in the file override; an empty path yields the defaults.
func loadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}

	if meta.IsDefined("interface") {
		if v := strings.TrimSpace(raw.Interface); v != "" {
			cfg.Interface = v
		}
	}

	if meta.IsDefined("node_id") {
		if raw.NodeID < 0 || raw.NodeID > int64(cyphal.NodeIDMax) {
			return Config{}, fmt.Errorf("node_id %d out of range [0, %d]", raw.NodeID, cyphal.NodeIDMax)
		}
		cfg.NodeID = cyphal.NodeID(raw.NodeID)
	}

	if meta.IsDefined("mtu") {
		if raw.MTU != cyphal.MTUClassic && raw.MTU != cyphal.MTUFD {
			return Config{}, fmt.Errorf("mtu %d unsupported (want %d or %d)", raw.MTU, cyphal.MTUClassic, cyphal.MTUFD)
		}
		cfg.MTU = raw.MTU
	}

	if meta.IsDefined("log_level") {
		cfg.LogLevel = strings.TrimSpace(raw.LogLevel)
	}

	if meta.IsDefined("subjects") {
		subjects := make([]cyphal.PortID, 0, len(raw.Subjects))
		for _, s := range raw.Subjects {
			if s < 0 || s > int64(cyphal.SubjectIDMax) {
				return Config{}, fmt.Errorf("subject %d out of range [0, %d]", s, cyphal.SubjectIDMax)
			}
			subjects = append(subjects, cyphal.PortID(s))
		}
		cfg.Subjects = subjects
	}

	return cfg, nil
}
