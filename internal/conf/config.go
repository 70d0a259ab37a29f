package conf

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

type App struct {
	// Seed for the option RNG. Zero picks a time-based seed.
	Seed int64 `env:"OPTIONSPICKER_SEED" envDefault:"0"`

	// StartDelay is the pause before a draw, ResultDelay the pause after it.
	StartDelay  time.Duration `env:"OPTIONSPICKER_START_DELAY" envDefault:"100ms"`
	ResultDelay time.Duration `env:"OPTIONSPICKER_RESULT_DELAY" envDefault:"1s"`

	// BaseURL is prefixed to share links.
	BaseURL string `env:"OPTIONSPICKER_BASE_URL" envDefault:"http://localhost/"`

	// ExportDir is where /export writes files.
	ExportDir string `env:"OPTIONSPICKER_EXPORT_DIR" envDefault:"."`

	// Token is an initial URL state token.
	Token string `env:"OPTIONSPICKER_OPTIONS"`

	LogLevel string `env:"OPTIONSPICKER_LOG_LEVEL" envDefault:"warn"`
	LogFile  string `env:"OPTIONSPICKER_LOG_FILE"`
}

// Load reads the given dotenv files (missing files are skipped) and then
// parses the environment.
func Load(dotenv ...string) (*App, error) {
	for _, f := range dotenv {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", f, err)
		}
	}
	return ParseEnv()
}

func ParseEnv() (*App, error) {
	cfg := App{}
	err := env.Parse(&cfg)
	if err != nil {
		return nil, err
	}
	if cfg.StartDelay < 0 || cfg.ResultDelay < 0 {
		return nil, errors.New("delays must not be negative")
	}
	return &cfg, nil
}
