package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ============================================================
// User Settings (key/value)
// ============================================================

// SaveSetting создаёт или перезаписывает значение настройки пользователя.
func (r *Repository) SaveSetting(ctx context.Context, userID, key, value string) error {
	_, err := r.db.ExecContext(ctx, `
        INSERT INTO user_settings (user_id, setting_key, setting_value)
        VALUES (?, ?, ?)
        ON CONFLICT (user_id, setting_key)
        DO UPDATE SET setting_value = excluded.setting_value, updated_at = CURRENT_TIMESTAMP
    `, userID, key, value)
	if err != nil {
		return fmt.Errorf("save setting %q: %w", key, err)
	}
	return nil
}

// GetSetting возвращает значение настройки; ok=false, если записи нет.
func (r *Repository) GetSetting(ctx context.Context, userID, key string) (string, bool, error) {
	var value sql.NullString
	err := r.db.QueryRowContext(ctx, `
        SELECT setting_value FROM user_settings
        WHERE user_id = ? AND setting_key = ?
    `, userID, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("get setting %q: %w", key, err)
	}
	return value.String, true, nil
}

func (r *Repository) ListSettings(ctx context.Context, userID string) (map[string]string, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT setting_key, setting_value FROM user_settings
        WHERE user_id = ?
        ORDER BY setting_key
    `, userID)
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	defer rows.Close()

	settings := make(map[string]string)
	for rows.Next() {
		var key string
		var value sql.NullString
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		settings[key] = value.String
	}
	return settings, rows.Err()
}

// DeleteSetting удаляет настройку. Отсутствие записи ошибкой не считается.
func (r *Repository) DeleteSetting(ctx context.Context, userID, key string) error {
	_, err := r.db.ExecContext(ctx, `
        DELETE FROM user_settings WHERE user_id = ? AND setting_key = ?
    `, userID, key)
	if err != nil {
		return fmt.Errorf("delete setting %q: %w", key, err)
	}
	return nil
}
