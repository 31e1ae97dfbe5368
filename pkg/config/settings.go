package config

import (
	"encoding/json"
	"fmt"
	"time"

	homedir "github.com/mitchellh/go-homedir"

	"github.com/sidkik/foldersync/pkg/errors"
	"github.com/sidkik/foldersync/pkg/sync"
)

const (
	// DefaultSettingsPath is where the settings file is looked for when no
	// path is given.
	DefaultSettingsPath = "~/.foldersync.yaml"

	// SupportedSettingsVersion is the settings version understood by this
	// binary. Files that don't specify a version are assumed to use it.
	SupportedSettingsVersion = "v1alpha1"
)

// Settings tunes the synchronization loop.
type Settings struct {
	Version string `json:"version,omitempty"`

	// Interval is the time between the end of a pass and the start of the
	// next one.
	Interval Duration `json:"interval,omitempty"`

	// RetryLimit and RetryDelay control how failed file operations are
	// retried.
	RetryLimit int      `json:"retryLimit"`
	RetryDelay Duration `json:"retryDelay,omitempty"`

	// Exclude lists doublestar patterns of paths, relative to the source
	// and replica roots, that are never synced.
	Exclude []string `json:"exclude,omitempty"`

	// Watch starts a pass as soon as the source changes rather than waiting
	// for the next interval.
	Watch bool `json:"watch,omitempty"`
}

func (s Settings) getVersion() string {
	return s.Version
}

// Duration is a time.Duration written as a string such as "10s".
type Duration struct {
	time.Duration
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Duration) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return fmt.Errorf("duration must be a string: %s", b)
	}

	parsed, err := time.ParseDuration(str)
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

// MarshalJSON implements json.Marshaler.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// DefaultSettings returns the settings used when there's no settings file.
func DefaultSettings() Settings {
	return Settings{
		Version:    SupportedSettingsVersion,
		Interval:   Duration{sync.DefaultInterval},
		RetryLimit: sync.DefaultRetryLimit,
		RetryDelay: Duration{sync.DefaultRetryDelay},
	}
}

// homedirExpand will be overridden in mock tests
var homedirExpand = homedir.Expand

// ParseSettings reads the settings file at path. If path is empty, the
// default settings file is used, and it's fine for it not to exist.
func ParseSettings(path string) (Settings, error) {
	optional := path == ""
	if optional {
		path = DefaultSettingsPath
	}

	path, err := homedirExpand(path)
	if err != nil {
		return Settings{}, errors.WithContext(err, "expand settings path")
	}

	settings := DefaultSettings()
	if err := parseFile(path, &settings, SupportedSettingsVersion); err != nil {
		if _, ok := err.(errors.FileNotFound); ok {
			if optional {
				return DefaultSettings(), nil
			}
			return Settings{}, errors.NewFriendlyError(
				"The settings file %q doesn't exist.", path)
		}
		return Settings{}, errors.WithContext(err, "parse")
	}

	if err := settings.Validate(); err != nil {
		return Settings{}, errors.NewFriendlyError(
			"The settings file %q is invalid: %s", path, err)
	}
	return settings, nil
}

// Validate returns an error describing the first setting that can't be used.
func (s Settings) Validate() error {
	if s.Interval.Duration <= 0 {
		return errors.InvalidFieldError{
			Field: "interval", Value: s.Interval.String(), Reason: "must be positive"}
	}

	if s.RetryLimit < 0 {
		return errors.InvalidFieldError{
			Field: "retryLimit", Value: fmt.Sprint(s.RetryLimit), Reason: "must not be negative"}
	}

	if s.RetryDelay.Duration <= 0 {
		return errors.InvalidFieldError{
			Field: "retryDelay", Value: s.RetryDelay.String(), Reason: "must be positive"}
	}

	if err := sync.ValidateExcludes(s.Exclude); err != nil {
		return errors.WithContext(err, "exclude")
	}
	return nil
}
