package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"home-panel/internal/dashboard/models"
)

var ErrNotFound = errors.New("not found")

// ============================================================
// Device Directory
// ============================================================

type DeviceRepository struct {
	db *sql.DB
}

func NewDeviceRepository(db *sql.DB) *DeviceRepository {
	return &DeviceRepository{db: db}
}

// ListDevices возвращает устройства пользователя в порядке добавления.
func (r *DeviceRepository) ListDevices(ctx context.Context, userID string) ([]models.Device, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT id, name, type, enabled, is_online, data, created_at, updated_at
        FROM devices
        WHERE user_id = ?
        ORDER BY position, created_at
    `, userID)
	if err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}
	defer rows.Close()

	var out []models.Device
	for rows.Next() {
		var d models.Device
		var data string
		if err := rows.Scan(&d.ID, &d.Name, &d.Type, &d.Enabled, &d.IsOnline, &data, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(data), &d.Data); err != nil {
			return nil, fmt.Errorf("device %s data: %w", d.ID, err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// UpsertDevice добавляет устройство в конец списка или обновляет существующее,
// не меняя его позицию.
func (r *DeviceRepository) UpsertDevice(ctx context.Context, userID string, d models.Device) error {
	if d.Data == nil {
		d.Data = map[string]any{}
	}
	data, err := json.Marshal(d.Data)
	if err != nil {
		return fmt.Errorf("encode device data: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
        INSERT INTO devices (user_id, id, name, type, enabled, is_online, data, position)
        VALUES (?, ?, ?, ?, ?, ?, ?,
            (SELECT COALESCE(MAX(position), 0) + 1 FROM devices WHERE user_id = ?))
        ON CONFLICT (user_id, id) DO UPDATE SET
            name = excluded.name,
            type = excluded.type,
            enabled = excluded.enabled,
            is_online = excluded.is_online,
            data = excluded.data,
            updated_at = CURRENT_TIMESTAMP
    `, userID, d.ID, d.Name, d.Type, d.Enabled, d.IsOnline, string(data), userID)
	if err != nil {
		return fmt.Errorf("upsert device %s: %w", d.ID, err)
	}
	return nil
}

func (r *DeviceRepository) DeleteDevice(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM devices WHERE user_id = ? AND id = ?`, userID, id)
	if err != nil {
		return fmt.Errorf("delete device %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
