package compiler

import (
	"os"

	"gopkg.in/yaml.v3"
	"tlog.app/go/errors"

	"github.com/slowlang/tjit/compiler/ir"
)

type (
	Config struct {
		IR ir.Config `yaml:"ir"`

		// Stats appends the opcode histogram to the dump.
		Stats bool `yaml:"stats"`
	}
)

func DefaultConfig() Config {
	return Config{
		IR: ir.DefaultConfig(),
	}
}

// LoadConfig reads a yaml config. Missing keys keep their default values.
func LoadConfig(name string) (cfg Config, err error) {
	cfg = DefaultConfig()

	data, err := os.ReadFile(name)
	if err != nil {
		return cfg, errors.Wrap(err, "read config")
	}

	err = yaml.Unmarshal(data, &cfg)
	if err != nil {
		return cfg, errors.Wrap(err, "parse config %v", name)
	}

	return cfg, nil
}
