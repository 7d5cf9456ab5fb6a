package db_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tdex-network/tdex-execd/internal/core/ports"
	dbbadger "github.com/tdex-network/tdex-execd/internal/infrastructure/storage/db/badger"
	"github.com/tdex-network/tdex-execd/internal/infrastructure/storage/db/inmemory"
)

type repoManager struct {
	Name string
	ports.RepoManager
}

func createRepoManagers(t *testing.T) []repoManager {
	badgerRepoManager, err := dbbadger.NewRepoManager("", nil)
	require.NoError(t, err)

	diskRepoManager, err := dbbadger.NewRepoManager(t.TempDir(), nil)
	require.NoError(t, err)

	t.Cleanup(func() {
		badgerRepoManager.Close()
		diskRepoManager.Close()
	})

	return []repoManager{
		{Name: "badger_inmemory", RepoManager: badgerRepoManager},
		{Name: "badger_disk", RepoManager: diskRepoManager},
		{Name: "inmemory", RepoManager: inmemory.NewRepoManager()},
	}
}
