package naming

import (
	"fmt"
	"regexp"
)

const (
	projectNameMaxLength = 32
	roleNameMaxLength    = 32
)

// name labels follow the DNS-label shape docker accepts for volume and
// project names: lowercase alphanumerics and dashes, no leading/trailing dash.
var labelRE = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]*[a-z0-9])?$`)

func validateLabel(name string, maximum int, labelKind string) error {
	if name == "" {
		return fmt.Errorf("%s name must not be empty", labelKind)
	}
	if len(name) > maximum {
		return fmt.Errorf("%s name exceeds %d characters", labelKind, maximum)
	}
	if !labelRE.MatchString(name) {
		return fmt.Errorf("invalid %s name %q: must be lowercase alphanumerics and dashes", labelKind, name)
	}
	return nil
}

// ValidateProjectName checks a project name used in volume synthesis.
func ValidateProjectName(name string) error {
	return validateLabel(name, projectNameMaxLength, "project")
}

// ValidateRoleName checks a user-chosen mount role name.
func ValidateRoleName(name string) error {
	return validateLabel(name, roleNameMaxLength, "role")
}
