package config

import (
	_ "embed"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/afero"
	"sigs.k8s.io/yaml"
)

var (
	//go:embed default/config.yaml
	defaultConfigData []byte
)

const (
	ConfigurationName = "config.yaml"
	DirName           = "jsh"
)

const (
	ColorAlways = "always"
	ColorAuto   = "auto"
	ColorNever  = "never"
)

type Configuration struct {
	configFs afero.Fs
	dir      string

	Prompt             string `json:"prompt" validate:"required"`
	ContinuationPrompt string `json:"continuation_prompt" validate:"required"`
	Path               string `json:"path"`
	Color              string `json:"color" validate:"oneof=always auto never"`
	HistoryFile        string `json:"history_file"`

	Log Log `json:"log"`
}

type Log struct {
	File  string `json:"file"`
	Level string `json:"level" validate:"oneof=debug info warn error"`
}

// Validate the configuration for basic semantic errors.
func (c *Configuration) Validate() error {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		return name
	})

	return validate.Struct(c)
}

func (c *Configuration) fs() afero.Fs {
	return c.configFs
}

// Dir returns the directory the configuration was loaded from.
func (c *Configuration) Dir() string {
	return c.dir
}

// HistoryPath returns the history file for readline, or "" to keep history in
// memory.
func (c *Configuration) HistoryPath() string {
	return c.resolve(c.HistoryFile)
}

func (c *Configuration) resolve(name string) string {
	if name == "" || filepath.IsAbs(name) || c.dir == "" {
		return name
	}
	return filepath.Join(c.dir, name)
}

// OpenAppLog opens the operator log in an append only state. It returns nil
// if logging is disabled.
func (c *Configuration) OpenAppLog() (afero.File, error) {
	if c.Log.File == "" {
		return nil, nil
	}
	return c.fs().OpenFile(c.Log.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
}

// ShouldColor decides whether output is colorized given whether it goes to a
// terminal.
func (c *Configuration) ShouldColor(isTerminal bool) bool {
	switch c.Color {
	case ColorNever:
		return false
	case ColorAlways:
		return true
	default:
		return isTerminal
	}
}

// Default returns the built-in configuration with relative files resolved
// against the working directory.
func Default() *Configuration {
	out := defaultConfig()
	out.configFs = afero.NewOsFs()
	return out
}

func defaultConfig() *Configuration {
	var out Configuration
	if err := yaml.UnmarshalStrict(defaultConfigData, &out); err != nil {
		panic(err)
	}
	return &out
}

// DefaultDir returns the per-user configuration directory, falling back to
// the working directory if the user has none.
func DefaultDir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return "."
	}
	return filepath.Join(base, DirName)
}
