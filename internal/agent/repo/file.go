package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/empowering-agents/server/internal/agent/model"
	errx "github.com/empowering-agents/server/internal/core/error"
	logx "github.com/empowering-agents/server/pkg/logger"
)

// FileMemoryRepository keeps one JSON document per user under dir. Save is a
// full overwrite of the prior document; there is no append log and no
// protection against concurrent writers for the same user.
type FileMemoryRepository struct {
	dir string
}

func NewFileMemoryRepository(dir string) (*FileMemoryRepository, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errx.WrapStorage(fmt.Errorf("create memory dir: %w", err))
	}
	return &FileMemoryRepository{dir: dir}, nil
}

func (r *FileMemoryRepository) path(userID string) string {
	return filepath.Join(r.dir, userID+".json")
}

func (r *FileMemoryRepository) Load(_ context.Context, userID string) (*model.UserMemory, error) {
	b, err := os.ReadFile(r.path(userID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, model.ErrMemoryNotFound
		}
		logx.Error().Err(err).Str("user_id", userID).Msg("failed to read memory document")
		return nil, errx.WrapStorage(err)
	}

	var m model.UserMemory
	if err := json.Unmarshal(b, &m); err != nil {
		logx.Error().Err(err).Str("user_id", userID).Msg("failed to decode memory document")
		return nil, errx.WrapStorage(fmt.Errorf("decode memory document: %w", err))
	}
	return &m, nil
}

func (r *FileMemoryRepository) Save(_ context.Context, memory *model.UserMemory) error {
	b, err := json.MarshalIndent(memory, "", "  ")
	if err != nil {
		return errx.WrapStorage(fmt.Errorf("encode memory document: %w", err))
	}
	if err := os.WriteFile(r.path(memory.UserID), b, 0o644); err != nil {
		logx.Error().Err(err).Str("user_id", memory.UserID).Msg("failed to write memory document")
		return errx.WrapStorage(err)
	}
	return nil
}

var _ model.MemoryRepository = (*FileMemoryRepository)(nil)
