package handler

import (
	"time"

	"sentra/internal/allowlist"
	"sentra/internal/policy"
	"sentra/internal/prefs"
	"sentra/internal/signals"
	"sentra/internal/transparency"
)

type PreferencesResponse struct {
	MonitoringEnabled bool       `json:"monitoring_enabled"`
	ConsentGiven      bool       `json:"consent_given"`
	DataRetentionDays int        `json:"data_retention_days"`
	MFARequired       bool       `json:"mfa_required"`
	Status            string     `json:"status"`
	ScheduledPurgeAt  *time.Time `json:"scheduled_purge_at,omitempty"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

func toPreferencesResponse(record *prefs.Record) *PreferencesResponse {
	if record == nil {
		return nil
	}
	return &PreferencesResponse{
		MonitoringEnabled: record.MonitoringEnabled,
		ConsentGiven:      record.ConsentGiven,
		DataRetentionDays: record.DataRetentionDays,
		MFARequired:       record.MFARequired,
		Status:            string(record.Status),
		ScheduledPurgeAt:  record.ScheduledPurgeAt,
		UpdatedAt:         record.UpdatedAt,
	}
}

type AppResponse struct {
	AppID     string    `json:"app_id"`
	AppName   string    `json:"app_name"`
	Enabled   bool      `json:"enabled"`
	Scope     string    `json:"scope"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toAppResponse(entry *allowlist.Entry) AppResponse {
	return AppResponse{
		AppID:     entry.AppID.String(),
		AppName:   entry.AppName,
		Enabled:   entry.Enabled,
		Scope:     string(entry.Scope),
		UpdatedAt: entry.UpdatedAt,
	}
}

type SignalResponse struct {
	SignalKey    string    `json:"signal_key"`
	Enabled      bool      `json:"enabled"`
	SamplingRate float64   `json:"sampling_rate"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func toSignalResponse(toggle *signals.Toggle) SignalResponse {
	return SignalResponse{
		SignalKey:    toggle.SignalKey.String(),
		Enabled:      toggle.Enabled,
		SamplingRate: toggle.SamplingRate,
		UpdatedAt:    toggle.UpdatedAt,
	}
}

type DeletionResponse struct {
	Immediate        bool       `json:"immediate"`
	ScheduledPurgeAt *time.Time `json:"scheduled_purge_at,omitempty"`
}

type TransparencyEntryResponse struct {
	ID           string    `json:"id"`
	Action       string    `json:"action"`
	Resource     string    `json:"resource,omitempty"`
	ResourceID   string    `json:"resource_id,omitempty"`
	OldValueHash string    `json:"old_value_hash,omitempty"`
	NewValueHash string    `json:"new_value_hash,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

func toTransparencyResponse(entry transparency.Entry) TransparencyEntryResponse {
	return TransparencyEntryResponse{
		ID:           entry.ID.String(),
		Action:       string(entry.Action),
		Resource:     entry.Resource,
		ResourceID:   entry.ResourceID,
		OldValueHash: entry.OldValueHash,
		NewValueHash: entry.NewValueHash,
		Timestamp:    entry.Timestamp,
	}
}

type ExportResponse struct {
	Preferences     *PreferencesResponse        `json:"preferences"`
	Apps            []AppResponse               `json:"apps"`
	Signals         []SignalResponse            `json:"signals"`
	Events          []map[string]any            `json:"events"`
	TransparencyLog []TransparencyEntryResponse `json:"transparency_log"`
}

func toExportResponse(bundle *policy.ExportBundle) *ExportResponse {
	out := &ExportResponse{
		Preferences:     toPreferencesResponse(bundle.Preferences),
		Apps:            make([]AppResponse, 0, len(bundle.Apps)),
		Signals:         make([]SignalResponse, 0, len(bundle.Signals)),
		Events:          make([]map[string]any, 0, len(bundle.Events)),
		TransparencyLog: make([]TransparencyEntryResponse, 0, len(bundle.TransparencyLog)),
	}
	for _, entry := range bundle.Apps {
		out.Apps = append(out.Apps, toAppResponse(entry))
	}
	for _, toggle := range bundle.Signals {
		out.Signals = append(out.Signals, toSignalResponse(toggle))
	}
	for _, event := range bundle.Events {
		out.Events = append(out.Events, map[string]any{
			"id":          event.ID.String(),
			"app_id":      event.AppID.String(),
			"signal_key":  event.SignalKey.String(),
			"duration_ms": event.DurationMs,
			"metadata":    event.Metadata,
			"observed_at": event.ObservedAt,
			"stored_at":   event.StoredAt,
		})
	}
	for _, entry := range bundle.TransparencyLog {
		out.TransparencyLog = append(out.TransparencyLog, toTransparencyResponse(entry))
	}
	return out
}
