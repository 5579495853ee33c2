//go:build linux

package segment

import (
	"path/filepath"

	"golang.org/x/sys/unix"
)

// On Linux, POSIX shared memory objects are backed by tmpfs mounted at
// /dev/shm; shm_open(3) is itself a thin libc wrapper around open(2)
// against that path, so a cgo-free implementation can just open it
// directly rather than binding shm_open through cgo.
const shmDir = "/dev/shm"

func shmPath(name string) string {
	return filepath.Join(shmDir, filepath.Base(name))
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

// shmTryFlock attempts a non-blocking exclusive advisory lock on the
// segment's backing file descriptor. Unlike the in-segment CAS busy flag,
// flock(2)'s lock is released by the kernel the instant the holding
// process exits or dies for any reason, including a crash mid-critical
// section, giving the table's mutual exclusion a robust-mutex property
// without requiring a portable robust-mutex primitive.
func shmTryFlock(f shmFile) error {
	return unix.Flock(f.fd, unix.LOCK_EX|unix.LOCK_NB)
}

func shmFunlock(f shmFile) error {
	return unix.Flock(f.fd, unix.LOCK_UN)
}
