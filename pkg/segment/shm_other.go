//go:build !linux

package segment

import (
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// Non-Linux POSIX platforms expose shm_open(3) as a true libc call with no
// stable path-based equivalent this package can reach without cgo. As a
// best-effort fallback this implementation backs named segments with a
// regular file under the OS temp directory; it maps and behaves
// identically to the Linux path, but is not true POSIX shared memory and
// will not interoperate with peers that use the real shm_open. No error
// or warning is raised for this on these platforms.
func shmPath(name string) string {
	return filepath.Join(os.TempDir(), "zeroipc-"+filepath.Base(name))
}

func shmOpen(name string, create bool, size int64) (shmFile, error) {
	flags := unix.O_RDWR
	if create {
		flags |= unix.O_CREAT
	}

	fd, err := unix.Open(shmPath(name), flags, 0600)
	if err != nil {
		return shmFile{}, err
	}

	if create && size > 0 {
		if err := unix.Ftruncate(fd, size); err != nil {
			unix.Close(fd)
			return shmFile{}, err
		}
	}

	return shmFile{fd: fd}, nil
}

func shmUnlink(name string) error {
	return unix.Unlink(shmPath(name))
}

func shmStatSize(f shmFile) (int64, error) {
	var st unix.Stat_t
	if err := unix.Fstat(f.fd, &st); err != nil {
		return 0, err
	}
	return st.Size, nil
}

func shmMmap(f shmFile, size int64) ([]byte, error) {
	return unix.Mmap(f.fd, 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
}

func shmMunmap(data []byte) error {
	return unix.Munmap(data)
}

func shmClose(f shmFile) error {
	return unix.Close(f.fd)
}

// shmTryFlock and shmFunlock behave identically to the Linux build: flock
// is a generic POSIX advisory-lock syscall available on the BSDs and
// Darwin too, so the fallback regular-file backing store here still gets
// crash-robust table mutual exclusion even though it isn't true shm_open.
func shmTryFlock(f shmFile) error {
	return unix.Flock(f.fd, unix.LOCK_EX|unix.LOCK_NB)
}

func shmFunlock(f shmFile) error {
	return unix.Flock(f.fd, unix.LOCK_UN)
}
