package job

import (
	"fmt"
	"path/filepath"

	"github.com/gofrs/flock"

	"gopsplice/internal/services"
)

// LockPath returns the advisory lock file guarding stem inside dir.
func LockPath(dir, stem string) string {
	return filepath.Join(dir, stem+".lock")
}

// acquireLock takes the stem lock without blocking. The returned function
// releases it.
func acquireLock(dir, stem string) (func() error, error) {
	path := LockPath(dir, stem)
	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "job", "acquire lock", path, err)
	}
	if !ok {
		return nil, services.Wrap(services.ErrJobLocked, "job", "acquire lock", fmt.Sprintf("another attempt holds %s", path), nil)
	}
	return lock.Unlock, nil
}
