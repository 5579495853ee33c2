package shmutil

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExistsFalseForUnknownName(t *testing.T) {
	require.False(t, Exists("/zeroipc-shmutil-does-not-exist"))
}

func TestExistsTrueAfterCreatingBackingFile(t *testing.T) {
	if _, err := os.Stat(shmDir); err != nil {
		t.Skipf("shared-memory directory %s unavailable: %v", shmDir, err)
	}

	path := shmDir + "/zeroipc-shmutil-test-marker"
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	t.Cleanup(func() { os.Remove(path) })

	require.True(t, Exists("/zeroipc-shmutil-test-marker"))
}

func TestListSegmentsReturnsSlashPrefixedNames(t *testing.T) {
	if _, err := os.Stat(shmDir); err != nil {
		t.Skipf("shared-memory directory %s unavailable: %v", shmDir, err)
	}

	path := shmDir + "/zeroipc-shmutil-list-marker"
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	t.Cleanup(func() { os.Remove(path) })

	names, err := ListSegments()
	require.NoError(t, err)
	require.Contains(t, names, "/zeroipc-shmutil-list-marker")
}
