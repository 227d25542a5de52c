package environments

import (
	"errors"
	"fmt"
	"os"
	"time"
)

var errClaimHeld = errors.New("claim held")

// claim is a directory beside the environment that marks a build in
// progress. os.Mkdir is atomic on local and network filesystems, so it
// serializes builders across processes sharing the workspace.
type claim struct {
	path string
}

func claimPath(envDir string) string {
	return envDir + ".lock"
}

func acquire(envDir string) (*claim, error) {
	path := claimPath(envDir)
	if err := os.Mkdir(path, 0o755); err != nil {
		if errors.Is(err, os.ErrExist) {
			return nil, errClaimHeld
		}
		return nil, fmt.Errorf("create claim: %w", err)
	}
	return &claim{path: path}, nil
}

func (c *claim) release() error {
	return os.Remove(c.path)
}

// claimAge reports how long the claim for envDir has been held. ok is false
// when there is no claim.
func claimAge(envDir string, now time.Time) (age time.Duration, ok bool, err error) {
	info, err := os.Stat(claimPath(envDir))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return now.Sub(info.ModTime()), true, nil
}
