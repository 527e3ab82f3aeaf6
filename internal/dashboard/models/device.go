package models

// Device описывает запись каталога устройств пользователя.
type Device struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Type      string         `json:"type"`
	Enabled   bool           `json:"enabled"`
	IsOnline  bool           `json:"isOnline"`
	Data      map[string]any `json:"data"`
	CreatedAt string         `json:"created_at"`
	UpdatedAt string         `json:"updated_at"`
}

// Stats содержит сводку по устройствам для шапки панели.
type Stats struct {
	TotalDevices   int     `json:"totalDevices"`
	OnlineDevices  int     `json:"onlineDevices"`
	OfflineDevices int     `json:"offlineDevices"`
	Temperature    float64 `json:"temperature"`
	Humidity       float64 `json:"humidity"`
	Alerts         int     `json:"alerts"`
}
