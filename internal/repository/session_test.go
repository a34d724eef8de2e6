package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/tictactoe-hotseat/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-hotseat/internal/entity"
	"github.com/rocketscienceinc/tictactoe-hotseat/testing/suite"
)

type repoFactory func(t *testing.T) (context.Context, SessionRepository)

func repositories() map[string]repoFactory {
	return map[string]repoFactory{
		"redis": func(t *testing.T) (context.Context, SessionRepository) {
			ctx, st := suite.New(t)
			return ctx, NewSessionRepository(st.Storage, 0)
		},
		"memory": func(_ *testing.T) (context.Context, SessionRepository) {
			return context.Background(), NewMemorySessionRepository()
		},
	}
}

func TestSessionRepository_Save(t *testing.T) {
	for name, newRepo := range repositories() {
		t.Run(name, func(t *testing.T) {
			ctx, sessionRepo := newRepo(t)

			// Given: a game with one move
			game := &entity.Game{
				ID:    "123",
				Board: entity.Board{entity.PlayerX},
				Turn:  entity.PlayerO,
			}

			// When: Save is called
			err := sessionRepo.Save(ctx, game)

			// Then: no error should be returned, and the game is stored
			require.NoError(t, err)

			stored, err := sessionRepo.GetByID(ctx, "123")
			require.NoError(t, err)
			require.Equal(t, game, stored)
		})
	}
}

func TestSessionRepository_GetByID(t *testing.T) {
	for name, newRepo := range repositories() {
		t.Run(name+"/Success", func(t *testing.T) {
			ctx, sessionRepo := newRepo(t)

			// Given: a stored game
			game := entity.NewGame("abc")
			require.NoError(t, sessionRepo.Save(ctx, game))

			// When: GetByID is called with the existing ID
			retrieved, err := sessionRepo.GetByID(ctx, game.ID)

			// Then: the retrieved game should match the saved game
			require.NoError(t, err)
			require.Equal(t, game, retrieved)

			// And: changing the result does not change the stored game
			retrieved.Board[0] = entity.PlayerX
			again, err := sessionRepo.GetByID(ctx, game.ID)
			require.NoError(t, err)
			assert.Equal(t, entity.EmptyCell, again.Board[0])
		})

		t.Run(name+"/NotFound", func(t *testing.T) {
			ctx, sessionRepo := newRepo(t)

			// When: GetByID is called with a non-existent ID
			retrieved, err := sessionRepo.GetByID(ctx, "9999999")

			// Then: ErrSessionNotFound should be returned
			require.ErrorIs(t, err, ErrSessionNotFound)
			require.ErrorIs(t, err, apperror.ErrNotFound)
			assert.Nil(t, retrieved)
		})
	}
}

func TestSessionRepository_DeleteByID(t *testing.T) {
	for name, newRepo := range repositories() {
		t.Run(name+"/Success", func(t *testing.T) {
			ctx, sessionRepo := newRepo(t)

			// Given: a stored game
			game := entity.NewGame("123")
			require.NoError(t, sessionRepo.Save(ctx, game))

			// When: DeleteByID is called with the existing ID
			err := sessionRepo.DeleteByID(ctx, game.ID)

			// Then: no error is returned and the game is gone
			require.NoError(t, err)

			_, err = sessionRepo.GetByID(ctx, game.ID)
			require.ErrorIs(t, err, ErrSessionNotFound)
		})

		t.Run(name+"/NotFound", func(t *testing.T) {
			ctx, sessionRepo := newRepo(t)

			// When: DeleteByID is called with a non-existent ID
			err := sessionRepo.DeleteByID(ctx, "9999999")

			// Then: ErrSessionNotFound should be returned
			require.ErrorIs(t, err, ErrSessionNotFound)
		})
	}
}

func TestSessionRepository_RedisRefusesCorruptedState(t *testing.T) {
	ctx, st := suite.New(t)
	sessionRepo := NewSessionRepository(st.Storage, 0)

	// Given: a session written by something that does not follow the rules
	err := st.Storage.Set(ctx, "session:bad", `{"id":"bad","board":["O","O","","","","","","",""],"turn":"X"}`, 0).Err()
	require.NoError(t, err)

	// When: it is loaded
	game, err := sessionRepo.GetByID(ctx, "bad")

	// Then: the snapshot is refused
	require.ErrorIs(t, err, apperror.ErrCorruptedState)
	assert.Nil(t, game)
}

func TestSessionRepository_RedisTTL(t *testing.T) {
	ctx, st := suite.New(t)
	sessionRepo := NewSessionRepository(st.Storage, time.Minute)

	// Given: a session stored with a one minute TTL
	require.NoError(t, sessionRepo.Save(ctx, entity.NewGame("short")))

	// When: more than a minute passes
	st.FastForward(2 * time.Minute)

	// Then: the session has expired
	_, err := sessionRepo.GetByID(ctx, "short")
	require.ErrorIs(t, err, ErrSessionNotFound)
}
