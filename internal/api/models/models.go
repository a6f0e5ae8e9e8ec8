// Package models holds the request and response bodies of the HTTP API.
package models

import (
	"github.com/smazurov/lightnode/internal/config"
	"github.com/smazurov/lightnode/internal/rig"
)

// Health check models
type HealthData struct {
	Status  string `json:"status" example:"ok" doc:"Service status"`
	Message string `json:"message" example:"API is healthy" doc:"Status message"`
}

type HealthResponse struct {
	Body HealthData
}

// Version models
type VersionData struct {
	Version   string `json:"version" example:"1.2.0" doc:"Application version"`
	GitCommit string `json:"git_commit" example:"a1b2c3d" doc:"Git commit hash"`
	BuildDate string `json:"build_date" example:"2025-01-27T10:30:00Z" doc:"Build timestamp"`
	BuildID   string `json:"build_id" example:"42" doc:"Build identifier"`
	GoVersion string `json:"go_version" example:"go1.24.0" doc:"Go toolchain version"`
	Compiler  string `json:"compiler" example:"gc" doc:"Go compiler"`
	Platform  string `json:"platform" example:"linux/arm" doc:"OS and architecture"`
}

type VersionResponse struct {
	Body VersionData
}

// Rig models
type StatusResponse struct {
	Body rig.Status
}

type RigConfigResponse struct {
	Body config.RigConfig
}

// ConfigUpdateData mirrors the broker's remote config message.
type ConfigUpdateData struct {
	Key   string `json:"search_string" minLength:"1" example:"brightness_high" doc:"Rig setting to change, bare or dotted (tree.brightness_high)"`
	Value string `json:"replace_string" example:"0.8" doc:"New value, parsed to the setting's type"`
}

type ConfigUpdateRequest struct {
	Body ConfigUpdateData
}

type ConfigUpdateResult struct {
	Key     string `json:"key" example:"tree.brightness_high" doc:"Resolved setting path"`
	Value   string `json:"value" example:"0.8" doc:"Value written"`
	Applied bool   `json:"applied" example:"true" doc:"Whether the rig file was updated"`
}

type ConfigUpdateResponse struct {
	Body ConfigUpdateResult
}

type WakeResponse struct {
	Body struct {
		Rig   string `json:"rig" example:"tree" doc:"Rig that was woken"`
		Woken bool   `json:"woken" example:"true" doc:"Whether the rig was dormant"`
	}
}
