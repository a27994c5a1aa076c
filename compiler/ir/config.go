package ir

type (
	Config struct {
		// MinIRSize is the initial buffer capacity in instructions.
		MinIRSize int `yaml:"min_ir_size"`

		// MaxIR limits the number of instructions in a trace.
		MaxIR int `yaml:"max_ir"`

		// MaxConst limits the number of constants in a trace.
		MaxConst int `yaml:"max_const"`

		DCE  bool `yaml:"dce"`
		CSE  bool `yaml:"cse"`
		Fold bool `yaml:"fold"`
	}
)

func DefaultConfig() Config {
	return Config{
		MinIRSize: 32,
		MaxIR:     4000,
		MaxConst:  500,

		DCE:  true,
		CSE:  true,
		Fold: true,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()

	if c.MinIRSize < 16 {
		c.MinIRSize = d.MinIRSize
	}

	if c.MaxIR <= 0 {
		c.MaxIR = d.MaxIR
	}

	if c.MaxConst <= 0 {
		c.MaxConst = d.MaxConst
	}

	return c
}
