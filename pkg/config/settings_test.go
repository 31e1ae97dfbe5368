package config

import (
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"

	"github.com/sidkik/foldersync/pkg/errors"
)

const defaultPath = "/home/user/.foldersync.yaml"

func mockHomedir() {
	homedirExpand = func(path string) (string, error) {
		if path == DefaultSettingsPath {
			return defaultPath, nil
		}
		return path, nil
	}
}

func TestParseSettings(t *testing.T) {
	mockHomedir()

	tests := []struct {
		name        string
		path        string
		contents    string
		expSettings Settings
		expError    error
	}{
		{
			name:        "NoDefaultFile",
			expSettings: DefaultSettings(),
		},
		{
			name: "AllFields",
			contents: `
version: v1alpha1
interval: 30s
retryLimit: 5
retryDelay: 250ms
exclude:
- "**/*.tmp"
- .git
watch: true
`,
			expSettings: Settings{
				Version:    SupportedSettingsVersion,
				Interval:   Duration{30 * time.Second},
				RetryLimit: 5,
				RetryDelay: Duration{250 * time.Millisecond},
				Exclude:    []string{"**/*.tmp", ".git"},
				Watch:      true,
			},
		},
		{
			name:     "MissingFieldsKeepDefaults",
			contents: "interval: 1m",
			expSettings: Settings{
				Version:    SupportedSettingsVersion,
				Interval:   Duration{time.Minute},
				RetryLimit: 3,
				RetryDelay: Duration{100 * time.Millisecond},
			},
		},
		{
			name:     "ExplicitPath",
			path:     "/etc/foldersync.yaml",
			contents: "watch: true",
			expSettings: func() Settings {
				settings := DefaultSettings()
				settings.Watch = true
				return settings
			}(),
		},
		{
			name:     "ExplicitPathMissing",
			path:     "/etc/missing.yaml",
			expError: errors.NewFriendlyError("The settings file %q doesn't exist.", "/etc/missing.yaml"),
		},
		{
			name: "WrongVersion",
			contents: `
version: v2
extra: field
`,
			expError: errors.WithContext(incompatibleVersionError{
				path:   defaultPath,
				exp:    SupportedSettingsVersion,
				actual: "v2",
			}, "parse"),
		},
		{
			name:     "UnknownField",
			contents: "extra: field",
			expError: errors.WithContext(
				errors.NewFriendlyError(parseErrTemplate, defaultPath,
					errors.New("error unmarshaling JSON: while decoding JSON: "+
						`json: unknown field "extra"`)),
				"parse"),
		},
		{
			name:     "NegativeRetryLimit",
			contents: "retryLimit: -1",
			expError: errors.NewFriendlyError("The settings file %q is invalid: %s", defaultPath,
				errors.InvalidFieldError{Field: "retryLimit", Value: "-1", Reason: "must not be negative"}),
		},
		{
			name:     "ZeroInterval",
			contents: "interval: 0s",
			expError: errors.NewFriendlyError("The settings file %q is invalid: %s", defaultPath,
				errors.InvalidFieldError{Field: "interval", Value: "0s", Reason: "must be positive"}),
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			fs = afero.NewMemMapFs()
			if test.contents != "" {
				path := test.path
				if path == "" {
					path = defaultPath
				}
				assert.NoError(t, afero.WriteFile(fs, path, []byte(test.contents), 0644))
			}

			settings, err := ParseSettings(test.path)
			assert.Equal(t, test.expError, err)
			assert.Equal(t, test.expSettings, settings)
		})
	}
}

func TestParseSettingsMalformed(t *testing.T) {
	mockHomedir()

	tests := []struct {
		name     string
		contents string
	}{
		{name: "BadDuration", contents: "interval: soon"},
		{name: "NumericDuration", contents: "retryDelay: 100"},
		{name: "BadExclude", contents: `exclude: ["[unterminated"]`},
		{name: "NotYAML", contents: "interval: [10s"},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			fs = afero.NewMemMapFs()
			assert.NoError(t, afero.WriteFile(fs, defaultPath, []byte(test.contents), 0644))

			_, err := ParseSettings("")
			assert.Error(t, err)
			assert.IsType(t, errors.FriendlyError{}, errors.RootCause(err))
		})
	}
}

func TestDurationJSON(t *testing.T) {
	b, err := Duration{90 * time.Second}.MarshalJSON()
	assert.NoError(t, err)
	assert.Equal(t, `"1m30s"`, string(b))

	var d Duration
	assert.NoError(t, d.UnmarshalJSON([]byte(`"1m30s"`)))
	assert.Equal(t, 90*time.Second, d.Duration)
}
