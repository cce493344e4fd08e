package preflight

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"time"

	"golang.org/x/sys/unix"

	"gopsplice/internal/config"
	"gopsplice/internal/deps"
)

var commandContext = exec.CommandContext

// minWorkSpace only catches a full disk. A merge needs room for the parts and
// the output at once.
const minWorkSpace = 100 << 20

const versionTimeout = 5 * time.Second

func failed(name, path, format string, args ...any) Result {
	return Result{Name: name, Detail: fmt.Sprintf("%s (error: %s)", path, fmt.Sprintf(format, args...))}
}

// CheckDirectoryAccess passes when path is a directory the process can list,
// create files in and remove them from.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return failed(name, path, "does not exist")
	case err != nil:
		return failed(name, path, "stat: %v", err)
	case !info.IsDir():
		return failed(name, path, "is not a directory")
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return failed(name, path, "insufficient permissions: %v", err)
	}
	return Result{Name: name, Passed: true, Detail: path + " (read/write ok)"}
}

// CheckFreeSpace fails when the filesystem holding path has less than minFree
// bytes available to unprivileged users.
func CheckFreeSpace(name, path string, minFree uint64) Result {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return failed(name, path, "statfs: %v", err)
	}
	free := st.Bavail * uint64(st.Bsize)
	detail := fmt.Sprintf("%s (%.1f GiB free)", path, float64(free)/(1<<30))
	if free < minFree {
		return Result{Name: name, Detail: detail + ", below minimum"}
	}
	return Result{Name: name, Passed: true, Detail: detail}
}

// CheckInputFile passes when path is a readable regular file.
func CheckInputFile(path string) Result {
	const name = "Input"
	info, err := os.Stat(path)
	if err != nil {
		return failed(name, path, "%v", err)
	}
	if !info.Mode().IsRegular() {
		return failed(name, path, "not a regular file")
	}
	if err := unix.Access(path, unix.R_OK); err != nil {
		return failed(name, path, "not readable: %v", err)
	}
	return Result{Name: name, Passed: true, Detail: path}
}

// CheckSystemDeps resolves the external tools cfg needs.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	return deps.CheckBinaries(deps.Requirements(cfg))
}

// CheckToolVersion runs binary with args and reports the first non-empty
// output line as the version.
func CheckToolVersion(ctx context.Context, name, binary string, args ...string) Result {
	ctx, cancel := context.WithTimeout(ctx, versionTimeout)
	defer cancel()

	out, err := commandContext(ctx, binary, args...).CombinedOutput() //nolint:gosec
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s failed (%v)", binary, err)}
	}
	lines := bufio.NewScanner(bytes.NewReader(out))
	for lines.Scan() {
		if line := bytes.TrimSpace(lines.Bytes()); len(line) > 0 {
			return Result{Name: name, Passed: true, Detail: string(line)}
		}
	}
	return Result{Name: name, Passed: true, Detail: "no version output"}
}
