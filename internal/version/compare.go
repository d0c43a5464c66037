package version

import (
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/rxtech-lab/argo-marketdata/pkg/errors"
)

// CheckJobFileVersion checks that a job file written for fileVersion can be run by a
// binary at binaryVersion.
//
// Compatibility Rules:
//   - If either version is "main" (development build), the check is skipped
//   - Major versions must match exactly
//   - The file's minor version must not be newer than the binary's
//   - Patch versions can differ
//
// Examples:
//   - Binary 1.2.0, File 1.2.0 -> OK
//   - Binary 1.3.0, File 1.2.4 -> OK (older file)
//   - Binary 1.2.0, File 1.3.0 -> ERROR (file needs a newer binary)
//   - Binary 2.0.0, File 1.2.0 -> ERROR (major differs)
func CheckJobFileVersion(binaryVersion, fileVersion string) error {
	binaryVersion = strings.TrimPrefix(binaryVersion, "v")
	fileVersion = strings.TrimPrefix(fileVersion, "v")

	if binaryVersion == "main" || fileVersion == "main" {
		return nil
	}

	binarySemver, err := semver.NewVersion(binaryVersion)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "invalid binary version '%s'", binaryVersion)
	}

	fileSemver, err := semver.NewVersion(fileVersion)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "invalid job file version '%s'", fileVersion)
	}

	if binarySemver.Major() != fileSemver.Major() {
		return errors.Newf(errors.ErrCodeInvalidConfiguration,
			"major version mismatch: binary is %d.x.x but job file requires %d.x.x",
			binarySemver.Major(), fileSemver.Major())
	}

	if fileSemver.Minor() > binarySemver.Minor() {
		return errors.Newf(errors.ErrCodeInvalidConfiguration,
			"job file requires %d.%d.x but binary is %s",
			fileSemver.Major(), fileSemver.Minor(), binarySemver.String())
	}

	return nil
}
