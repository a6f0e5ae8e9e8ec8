package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/smazurov/lightnode/internal/api/models"
	"github.com/smazurov/lightnode/internal/config"
	"github.com/smazurov/lightnode/internal/events"
)

func (s *Server) registerRigRoutes() {
	if s.options.Rig != nil {
		huma.Register(s.api, huma.Operation{
			OperationID: "get-status",
			Method:      http.MethodGet,
			Path:        "/api/status",
			Summary:     "Rig Status",
			Description: "Current lights, schedule and sensor state of the rig",
			Tags:        []string{"rig"},
			Errors:      []int{401},
			Security:    withAuth(),
		}, func(ctx context.Context, _ *struct{}) (*models.StatusResponse, error) {
			return &models.StatusResponse{Body: s.options.Rig.Status()}, nil
		})

		huma.Register(s.api, huma.Operation{
			OperationID: "wake-rig",
			Method:      http.MethodPost,
			Path:        "/api/rig/wake",
			Summary:     "Wake Rig",
			Description: "End a dormant period early. The rig resumes as if the sleep had elapsed.",
			Tags:        []string{"rig"},
			Errors:      []int{401},
			Security:    withAuth(),
		}, func(ctx context.Context, _ *struct{}) (*models.WakeResponse, error) {
			st := s.options.Rig.Status()
			if st.Dormant {
				s.options.Rig.Wake()
				s.logger.Info("Rig woken through API", "rig", st.Rig)
			}
			resp := &models.WakeResponse{}
			resp.Body.Rig = st.Rig
			resp.Body.Woken = st.Dormant
			return resp, nil
		})
	}

	if s.options.Store == nil {
		s.logger.Debug("No rig store, skipping rig config routes")
		return
	}

	huma.Register(s.api, huma.Operation{
		OperationID: "get-rig-config",
		Method:      http.MethodGet,
		Path:        "/api/rig/config",
		Summary:     "Rig Config",
		Description: "The rig file as currently stored, defaults filled in",
		Tags:        []string{"rig"},
		Errors:      []int{401, 500},
		Security:    withAuth(),
	}, func(ctx context.Context, _ *struct{}) (*models.RigConfigResponse, error) {
		cfg, err := s.options.Store.Load()
		if err != nil {
			return nil, huma.Error500InternalServerError("Failed to load rig config", err)
		}
		return &models.RigConfigResponse{Body: cfg}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "update-rig-config",
		Method:      http.MethodPost,
		Path:        "/api/rig/config",
		Summary:     "Update Rig Config",
		Description: "Replace one rig setting, as the remote config feed does. The rig reloads once the file is written.",
		Tags:        []string{"rig"},
		Errors:      []int{400, 401, 404},
		Security:    withAuth(),
	}, func(ctx context.Context, input *models.ConfigUpdateRequest) (*models.ConfigUpdateResponse, error) {
		path, err := s.options.Store.Apply(input.Body.Key, input.Body.Value)
		if err != nil {
			if errors.Is(err, config.ErrUnknownKey) {
				return nil, huma.Error404NotFound("Unknown rig setting", err)
			}
			return nil, huma.Error400BadRequest("Failed to update rig setting", err)
		}

		s.logger.Info("Rig setting updated through API", "key", path, "value", input.Body.Value)
		if s.eventBus != nil {
			s.eventBus.Publish(events.ConfigUpdateEvent{
				Key:       path,
				Value:     input.Body.Value,
				Source:    "api",
				Timestamp: time.Now().UTC().Format(time.RFC3339),
			})
		}

		return &models.ConfigUpdateResponse{
			Body: models.ConfigUpdateResult{
				Key:     path,
				Value:   input.Body.Value,
				Applied: true,
			},
		}, nil
	})
}
