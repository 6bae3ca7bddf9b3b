package config

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level      string `yaml:"level"`       // debug, info, warn, error
	Format     string `yaml:"format"`      // console
	OutputFile string `yaml:"output_file"` // Empty for stdout
	NoColor    bool   `yaml:"no_color"`    // Disable ANSI colors on stdout
}
