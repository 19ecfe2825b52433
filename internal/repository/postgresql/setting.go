package postgresql

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/iuhaa-wishery/wishery-crm-sub000/internal/domain/setting"
	"github.com/iuhaa-wishery/wishery-crm-sub000/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type settingRepositoryImpl struct {
	db *database.DB
}

// GetInt implements setting.SettingRepository.
func (r *settingRepositoryImpl) GetInt(ctx context.Context, key string) (int, error) {
	q := GetQuerier(ctx, r.db)

	var raw string
	err := q.QueryRow(ctx, `SELECT value FROM settings WHERE key = $1`, key).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, setting.ErrSettingNotFound
		}
		return 0, fmt.Errorf("failed to get setting %s: %w", key, err)
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("setting %s is not an integer: %w", key, err)
	}
	return v, nil
}

func NewSettingRepository(db *database.DB) setting.SettingRepository {
	return &settingRepositoryImpl{db: db}
}
