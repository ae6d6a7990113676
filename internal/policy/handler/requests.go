package handler

import (
	pkgstring "sentra/pkg/string"
)

// UpdatePreferencesRequest is the wire shape of a preferences update.
// Booleans are pointers so a missing field fails validation instead of
// silently defaulting to false.
type UpdatePreferencesRequest struct {
	MonitoringEnabled *bool `json:"monitoring_enabled" validate:"required"`
	ConsentGiven      *bool `json:"consent_given" validate:"required"`
	DataRetentionDays int   `json:"data_retention_days" validate:"omitempty,gte=1,lte=3650"`
	MFARequired       bool  `json:"mfa_required"`
}

// UpsertAppRequest is the wire shape of an allowlist upsert. The app ID comes
// from the URL.
type UpsertAppRequest struct {
	AppName string `json:"app_name" validate:"required,notblank,max=200"`
	Enabled *bool  `json:"enabled" validate:"required"`
	Scope   string `json:"scope" validate:"required,oneof=metadata_only metadata_plus_usage none"`
}

func (r *UpsertAppRequest) Normalize() {
	pkgstring.TrimStrings(&r.AppName, &r.Scope)
}

// UpsertSignalRequest is the wire shape of a signal toggle upsert. The signal
// key comes from the URL. An out-of-range rate names the field and writes
// nothing.
type UpsertSignalRequest struct {
	Enabled      *bool    `json:"enabled" validate:"required"`
	SamplingRate *float64 `json:"sampling_rate" validate:"required,gte=0,lte=1"`
}

// RequestDeletionRequest selects the deletion path.
type RequestDeletionRequest struct {
	Immediate bool `json:"immediate"`
}
