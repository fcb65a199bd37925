package emu

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"synacor/emu/log"

	"github.com/BurntSushi/toml"
	"github.com/kirsle/configdir"
)

type Config struct {
	Debugger DebuggerConfig `toml:"debugger"`
	Machine  MachineConfig  `toml:"machine"`

	TraceOut io.WriteCloser `toml:"-"`
}

type DebuggerConfig struct {
	// Socket is the path of the unix socket clients connect to.
	Socket string `toml:"socket"`
	// Snapshot is the file the check and restore commands work with.
	Snapshot string `toml:"snapshot"`
	Prompt   string `toml:"prompt"`
}

type MachineConfig struct {
	// Trace is where the execution trace is written: a file path, "stdout" or
	// "stderr". Empty disables tracing.
	Trace string `toml:"trace"`
}

func DefaultConfig() Config {
	return Config{
		Debugger: DebuggerConfig{
			Socket:   "/tmp/synacor.sock",
			Snapshot: "state.bin",
			Prompt:   "> ",
		},
	}
}

const cfgFilename = "config.toml"

// DefaultConfigPath returns the path of the config file in the user
// configuration directory.
func DefaultConfigPath() string {
	return filepath.Join(configdir.LocalConfig("synacor"), cfgFilename)
}

// LoadConfigOrDefault loads the configuration at path. Settings missing from
// the file keep their default value. If the file can't be read or decoded, the
// default configuration is returned.
func LoadConfigOrDefault(path string) Config {
	cfg := DefaultConfig()
	_, err := toml.DecodeFile(path, &cfg)
	switch {
	case err == nil:
		log.ModEmu.DebugZ("config loaded").String("path", path).End()
	case errors.Is(err, fs.ErrNotExist):
		log.ModEmu.DebugZ("no config file, using defaults").String("path", path).End()
		return DefaultConfig()
	default:
		log.ModEmu.Warnf("Invalid config file %q, fallback to defaults: %v", path, err)
		return DefaultConfig()
	}
	return cfg
}

// SaveConfig writes cfg at path, creating the parent directories if needed.
func SaveConfig(path string, cfg Config) error {
	buf, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}

	if err := configdir.MakePath(filepath.Dir(path)); err != nil {
		return err
	}
	return os.WriteFile(path, buf, 0644)
}
