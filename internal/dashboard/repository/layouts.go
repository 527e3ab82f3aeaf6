package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"home-panel/internal/dashboard/engine"
)

// ============================================================
// Layout Persistence
// ============================================================

const (
	// LayoutSettingKey: ключ в user_settings, под которым хранится раскладка.
	LayoutSettingKey = "dashboard_layout"
	layoutVersion    = "1.0"
)

// SettingsStore хранит настройки пользователя в виде key/value.
type SettingsStore interface {
	GetSetting(ctx context.Context, userID, key string) (string, bool, error)
	SaveSetting(ctx context.Context, userID, key, value string) error
	DeleteSetting(ctx context.Context, userID, key string) error
}

// LayoutDocument описывает формат, в котором раскладка лежит в базе.
type LayoutDocument struct {
	Version     string        `json:"version"`
	LastUpdated string        `json:"lastUpdated"`
	Layout      engine.Record `json:"layout"`
}

type LayoutRepository struct {
	settings SettingsStore
	now      func() time.Time
}

func NewLayoutRepository(settings SettingsStore) *LayoutRepository {
	return &LayoutRepository{settings: settings, now: time.Now}
}

// Load возвращает сохранённую раскладку; ok=false, если её ещё нет.
func (r *LayoutRepository) Load(ctx context.Context, userID string) (engine.Record, bool, error) {
	doc, ok, err := r.LoadDocument(ctx, userID)
	if err != nil || !ok {
		return nil, false, err
	}
	return doc.Layout, true, nil
}

// LoadDocument возвращает раскладку вместе с метаданными документа.
func (r *LayoutRepository) LoadDocument(ctx context.Context, userID string) (LayoutDocument, bool, error) {
	raw, ok, err := r.settings.GetSetting(ctx, userID, LayoutSettingKey)
	if err != nil || !ok {
		return LayoutDocument{}, false, err
	}
	doc, err := DecodeDocument([]byte(raw))
	if err != nil {
		return LayoutDocument{}, false, err
	}
	return doc, true, nil
}

// SaveLayout перезаписывает раскладку целиком.
func (r *LayoutRepository) SaveLayout(ctx context.Context, userID string, rec engine.Record) error {
	data, err := EncodeLayout(rec, r.now())
	if err != nil {
		return err
	}
	return r.settings.SaveSetting(ctx, userID, LayoutSettingKey, string(data))
}

func (r *LayoutRepository) Reset(ctx context.Context, userID string) error {
	return r.settings.DeleteSetting(ctx, userID, LayoutSettingKey)
}

func EncodeLayout(rec engine.Record, now time.Time) ([]byte, error) {
	if rec == nil {
		rec = engine.Record{}
	}
	data, err := json.Marshal(LayoutDocument{
		Version:     layoutVersion,
		LastUpdated: now.UTC().Format(time.RFC3339),
		Layout:      rec,
	})
	if err != nil {
		return nil, fmt.Errorf("encode layout: %w", err)
	}
	return data, nil
}

// DecodeLayout принимает и документ {"layout": [...]}, и голый массив.
func DecodeLayout(data []byte) (engine.Record, error) {
	doc, err := DecodeDocument(data)
	if err != nil {
		return nil, err
	}
	return doc.Layout, nil
}

// DecodeDocument разбирает сохранённое значение. У голого массива
// Version и LastUpdated остаются пустыми.
func DecodeDocument(data []byte) (LayoutDocument, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return LayoutDocument{Layout: engine.Record{}}, nil
	}

	var doc LayoutDocument
	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &doc.Layout); err != nil {
			return LayoutDocument{}, fmt.Errorf("decode layout: %w", err)
		}
		return doc, nil
	}

	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return LayoutDocument{}, fmt.Errorf("decode layout: %w", err)
	}
	if doc.Layout == nil {
		doc.Layout = engine.Record{}
	}
	return doc, nil
}
