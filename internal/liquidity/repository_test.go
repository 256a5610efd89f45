package liquidity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&Position{}))
	return db
}

func seedPosition(t *testing.T, repo Repository, provider, itemID, shares string) *Position {
	t.Helper()
	position := &Position{
		Provider:          provider,
		ItemID:            itemID,
		Shares:            shares,
		TokenContributed:  "0",
		NativeContributed: "0",
	}
	require.NoError(t, repo.Create(position))
	return position
}

func TestPositionRepositoryCreateAndGet(t *testing.T) {
	repo := NewRepository(setupTestDB(t))

	created := seedPosition(t, repo, "alice", "item-1", "250")
	assert.NotZero(t, created.ID)

	found, err := repo.Get("alice", "item-1")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "250", found.Shares)
}

func TestPositionRepositoryGetMissing(t *testing.T) {
	repo := NewRepository(setupTestDB(t))

	found, err := repo.Get("nobody", "item-1")
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestPositionRepositoryRejectsEmptyIdentity(t *testing.T) {
	repo := NewRepository(setupTestDB(t))

	err := repo.Create(&Position{Provider: "", ItemID: "item-1", Shares: "1"})
	assert.Error(t, err)

	_, err = repo.Get("", "item-1")
	assert.Error(t, err)
}

func TestPositionRepositoryUniquePerProviderAndItem(t *testing.T) {
	repo := NewRepository(setupTestDB(t))

	seedPosition(t, repo, "alice", "item-1", "250")
	err := repo.Create(&Position{Provider: "alice", ItemID: "item-1", Shares: "10"})
	assert.Error(t, err)

	// Same provider, different item is fine.
	seedPosition(t, repo, "alice", "item-2", "10")
}

func TestPositionRepositoryUpdate(t *testing.T) {
	repo := NewRepository(setupTestDB(t))

	position := seedPosition(t, repo, "alice", "item-1", "250")
	position.Shares = "150"
	require.NoError(t, repo.Update(position))

	found, err := repo.Get("alice", "item-1")
	require.NoError(t, err)
	assert.Equal(t, "150", found.Shares)
}

func TestPositionRepositoryDelete(t *testing.T) {
	repo := NewRepository(setupTestDB(t))

	position := seedPosition(t, repo, "alice", "item-1", "250")
	require.NoError(t, repo.Delete(position))

	found, err := repo.Get("alice", "item-1")
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestPositionRepositoryListByProvider(t *testing.T) {
	repo := NewRepository(setupTestDB(t))

	seedPosition(t, repo, "alice", "item-b", "1")
	seedPosition(t, repo, "alice", "item-a", "2")
	seedPosition(t, repo, "bob", "item-a", "3")

	positions, err := repo.ListByProvider("alice")
	require.NoError(t, err)
	require.Len(t, positions, 2)
	assert.Equal(t, "item-a", positions[0].ItemID)
	assert.Equal(t, "item-b", positions[1].ItemID)
}

func TestPositionRepositoryListByItem(t *testing.T) {
	repo := NewRepository(setupTestDB(t))

	seedPosition(t, repo, "bob", "item-a", "1")
	seedPosition(t, repo, "alice", "item-a", "2")

	positions, err := repo.ListByItem("item-a")
	require.NoError(t, err)
	require.Len(t, positions, 2)
	assert.Equal(t, "alice", positions[0].Provider)
}
