package hub

import (
	"fmt"
	"regexp"
	"strings"
)

const maxRepoNameLength = 96

var repoIDPattern = regexp.MustCompile(`^(\b[\w\-.]+\b/)?\b[\w\-.]{1,96}\b$`)

// ValidateRepoID checks that id is "name" or "namespace/name" as the hub
// accepts them.
func ValidateRepoID(id string) error {
	if id == "" {
		return fmt.Errorf("%w: empty", ErrInvalidRepoID)
	}
	if strings.Count(id, "/") > 1 {
		return fmt.Errorf("%w: %q: must be in the form 'name' or 'namespace/name'", ErrInvalidRepoID, id)
	}
	if !repoIDPattern.MatchString(id) {
		return fmt.Errorf("%w: %q: use alphanumeric chars, '-', '_' or '.'; '-' and '.' cannot start or end the name; max length is %d",
			ErrInvalidRepoID, id, maxRepoNameLength)
	}
	if strings.Contains(id, "--") || strings.Contains(id, "..") {
		return fmt.Errorf("%w: %q: '--' and '..' are forbidden", ErrInvalidRepoID, id)
	}
	if strings.HasSuffix(id, ".git") {
		return fmt.Errorf("%w: %q: cannot end with '.git'", ErrInvalidRepoID, id)
	}
	return nil
}
