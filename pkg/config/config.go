// Package config loads the optional settings file that tunes how foldersync
// schedules and filters passes.
package config

import (
	"fmt"
	"os"

	"github.com/ghodss/yaml"
	"github.com/spf13/afero"

	"github.com/sidkik/foldersync/pkg/errors"
)

// parseErrTemplate is shown when the settings file isn't valid YAML, or
// doesn't match the expected schema. The yaml library doesn't say which
// field was at fault, so the parser's message is passed along as is.
const parseErrTemplate = "The settings file %q could not be parsed.\n" +
	"Check that every field has the right type, that durations look " +
	"like \"10s\" or \"250ms\", and that there are no unknown fields.\n\n" +
	"The parser reported:\n" +
	"%s"

type versioned interface {
	getVersion() string
}

type incompatibleVersionError struct {
	path, exp, actual string
}

func (err incompatibleVersionError) Error() string {
	return err.FriendlyMessage()
}

func (err incompatibleVersionError) FriendlyMessage() string {
	return fmt.Sprintf("The settings file %q is incompatible "+
		"with this version of foldersync.\n"+
		"Expected version %q, but got %q.", err.path, err.exp, err.actual)
}

// parseFile unmarshals the YAML file at path into out. Fields that are
// missing from the file keep the value they had in out.
func parseFile(path string, out versioned, expVersion string) error {
	contents, err := afero.ReadFile(fs, path)
	if err != nil {
		if isPathNotFoundError(err) {
			return errors.FileNotFound{Path: path}
		}
		return errors.WithContext(err, "read file")
	}

	if err := yaml.Unmarshal(contents, out); err != nil {
		return errors.NewFriendlyError(parseErrTemplate, path, err)
	}

	if out.getVersion() != expVersion {
		return incompatibleVersionError{path, expVersion, out.getVersion()}
	}

	// The version is checked before rejecting unknown fields, since an
	// unknown field is most likely caused by a version mismatch.
	if err := yaml.UnmarshalStrict(contents, out, yaml.DisallowUnknownFields); err != nil {
		return errors.NewFriendlyError(parseErrTemplate, path, err)
	}
	return nil
}

func isPathNotFoundError(err error) bool {
	fileErr, ok := err.(*os.PathError)
	return ok && fileErr.Op == "open" && os.IsNotExist(fileErr)
}
