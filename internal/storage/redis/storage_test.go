package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/redblue/internal/model"
	"github.com/mcoot/redblue/internal/storage"
	"github.com/mcoot/redblue/internal/storage/storagetest"
)

// Contract tests shared with the memory backend

type contractSuite struct {
	storagetest.Suite
	mini *miniredis.Miniredis
}

func TestStorageContract(t *testing.T) {
	cs := &contractSuite{}
	cs.NewStorage = func() storage.Storage {
		cs.mini = miniredis.RunT(cs.T())
		client := redis.NewClient(&redis.Options{Addr: cs.mini.Addr()})
		return NewWithClient(client, DefaultConfig())
	}
	suite.Run(t, cs)
}

func (s *contractSuite) TearDownTest() {
	if s.Storage != nil {
		_ = s.Storage.Close()
	}
}

// Redis-specific behaviour

type StorageSuite struct {
	suite.Suite
	mini    *miniredis.Miniredis
	storage *Storage
	ctx     context.Context
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.mini = miniredis.RunT(s.T())

	client := redis.NewClient(&redis.Options{
		Addr: s.mini.Addr(),
	})

	cfg := DefaultConfig()
	cfg.GameTTL = time.Hour

	s.storage = NewWithClient(client, cfg)
	s.ctx = context.Background()
}

func (s *StorageSuite) TearDownTest() {
	if s.storage != nil {
		_ = s.storage.Close()
	}
	if s.mini != nil {
		s.mini.Close()
	}
}

func (s *StorageSuite) TestGameHasTTL() {
	game := storagetest.NewGame("game-1", "ABC234")
	s.Require().NoError(s.storage.SaveGame(s.ctx, game))

	s.Equal(time.Hour, s.mini.TTL(gameKey("game-1")))
	s.Equal(time.Hour, s.mini.TTL(codeIndexKey("ABC234")))
}

func (s *StorageSuite) TestKeysUsePrefix() {
	game := storagetest.NewGame("game-1", "ABC234")
	s.Require().NoError(s.storage.SaveGame(s.ctx, game))

	s.True(s.mini.Exists("redblue:game:game-1"))
	s.True(s.mini.Exists("redblue:idx:code:ABC234"))
	members, err := s.mini.Members("redblue:idx:games")
	s.Require().NoError(err)
	s.Equal([]string{"game-1"}, members)
}

func (s *StorageSuite) TestExpiredGameDropsOutOfListing() {
	s.Require().NoError(s.storage.SaveGame(s.ctx, storagetest.NewGame("game-1", "AAAAAA")))
	s.Require().NoError(s.storage.SaveGame(s.ctx, storagetest.NewGame("game-2", "BBBBBB")))

	s.mini.FastForward(2 * time.Hour)
	s.Require().NoError(s.storage.SaveGame(s.ctx, storagetest.NewGame("game-3", "CCCCCC")))

	games, err := s.storage.ListGames(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(games, 1)
	s.Equal(model.GameID("game-3"), games[0].ID)

	members, err := s.mini.Members(gamesIndexKey())
	s.Require().NoError(err)
	s.Equal([]string{"game-3"}, members)
}

func (s *StorageSuite) TestChangingCodeReleasesOldCode() {
	game := storagetest.NewGame("game-1", "AAAAAA")
	s.Require().NoError(s.storage.SaveGame(s.ctx, game))

	game.Code = "BBBBBB"
	s.Require().NoError(s.storage.SaveGame(s.ctx, game))

	exists, err := s.storage.CodeExists(s.ctx, "AAAAAA")
	s.Require().NoError(err)
	s.False(exists)

	id, err := s.storage.GetGameIDByCode(s.ctx, "BBBBBB")
	s.Require().NoError(err)
	s.Equal(model.GameID("game-1"), id)
}

func (s *StorageSuite) TestNewRejectsBadURL() {
	_, err := New(Config{URL: "not-a-url"})
	s.Error(err)
}
