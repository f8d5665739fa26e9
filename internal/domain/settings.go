package domain

import (
	"database/sql"
	"encoding/json"
)

// Settings sections. Each tenant keeps one JSON document per section;
// writes merge top-level keys into the stored document.
const (
	SettingsGeneral = "general"
	SettingsPool    = "pool"
	SettingsPricing = "pricing"
	SettingsApp     = "app"
)

// ValidSettingsSection reports whether section is one of the known
// settings documents.
func ValidSettingsSection(section string) bool {
	switch section {
	case SettingsGeneral, SettingsPool, SettingsPricing, SettingsApp:
		return true
	}
	return false
}

// TenantSettings is one settings document for a tenant.
type TenantSettings struct {
	TenantID string          `db:"tenant_id"`
	Section  string          `db:"section"`
	Data     json.RawMessage `db:"data"`

	UpdatedAt sql.NullTime `db:"updated_at"`
}

// DataMap decodes the stored document into a map. An empty or missing
// document decodes to an empty map, never nil.
func (s *TenantSettings) DataMap() (map[string]any, error) {
	m := map[string]any{}
	if len(s.Data) == 0 {
		return m, nil
	}
	if err := json.Unmarshal(s.Data, &m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *TenantSettings) ToJSON() map[string]any {
	m := map[string]any{
		"tenant_id": s.TenantID,
		"section":   s.Section,
	}
	if data, err := s.DataMap(); err == nil {
		m["data"] = data
	} else {
		m["data"] = map[string]any{}
	}
	if s.UpdatedAt.Valid {
		m["updated_at"] = s.UpdatedAt.Time
	}
	return m
}
