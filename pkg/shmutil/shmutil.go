// Package shmutil provides small filesystem helpers scoped to the shared
// memory backing store. It does not understand segment internals; it
// only knows where POSIX shared-memory objects live on disk.
package shmutil

import (
	"os"
	"path/filepath"
	"strings"
)

// shmDir is the conventional POSIX location for shm_open-backed objects
// on Linux. It mirrors pkg/segment's own notion of the same path; the two
// are kept separate because this package has no build-tag split and must
// work the same way whether or not /dev/shm actually exists.
const shmDir = "/dev/shm"

// Exists reports whether a shared-memory object with the given name is
// currently present, without opening or mapping it.
func Exists(name string) bool {
	_, err := os.Stat(filepath.Join(shmDir, strings.TrimPrefix(name, "/")))
	return err == nil
}

// ListSegments returns the names of every object currently present under
// the shared-memory directory, in the "/name" form pkg/segment expects.
// It makes no attempt to filter out non-ZeroIPC shared-memory objects
// left behind by other applications; callers that need certainty should
// attempt to open each name and check its header magic.
func ListSegments() ([]string, error) {
	entries, err := os.ReadDir(shmDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		names = append(names, "/"+e.Name())
	}
	return names, nil
}
