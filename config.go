package mdtext

import (
	"github.com/spf13/viper"

	"github.com/goliatone/go-mdtext/internal/runtimeconfig"
)

var (
	ErrMarkdownContentDirRequired = runtimeconfig.ErrMarkdownContentDirRequired
	ErrMarkdownWorkersInvalid     = runtimeconfig.ErrMarkdownWorkersInvalid
	ErrMarkdownExtensionUnknown   = runtimeconfig.ErrMarkdownExtensionUnknown
	ErrMarkdownNodesInvalid       = runtimeconfig.ErrMarkdownNodesInvalid
	ErrLoggingProviderRequired    = runtimeconfig.ErrLoggingProviderRequired
	ErrLoggingProviderUnknown     = runtimeconfig.ErrLoggingProviderUnknown
	ErrLoggingLevelInvalid        = runtimeconfig.ErrLoggingLevelInvalid
	ErrLoggingFormatInvalid       = runtimeconfig.ErrLoggingFormatInvalid
	ErrConfigRead                 = runtimeconfig.ErrConfigRead
)

type (
	Config         = runtimeconfig.Config
	MarkdownConfig = runtimeconfig.MarkdownConfig
	LoggingConfig  = runtimeconfig.LoggingConfig
)

func DefaultConfig() Config {
	return runtimeconfig.DefaultConfig()
}

// LoadConfig reads configuration from path, or from mdtext.{yaml,toml,json}
// in the working directory when path is empty, applying MDTEXT_* environment
// overrides. An ErrMarkdownNodesInvalid error comes with a usable Config.
func LoadConfig(path string) (Config, error) {
	return runtimeconfig.Load(viper.New(), path)
}
