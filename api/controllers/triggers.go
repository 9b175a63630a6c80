package controllers

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/citypulse-backend/api/middleware"
	"github.com/angelmondragon/citypulse-backend/api/responses"
	"github.com/angelmondragon/citypulse-backend/api/validators"
	"github.com/angelmondragon/citypulse-backend/internal/evaluation"
	"github.com/angelmondragon/citypulse-backend/internal/notifications"
	"github.com/angelmondragon/citypulse-backend/internal/triggers"
	pkgerrors "github.com/angelmondragon/citypulse-backend/pkg/errors"
	"github.com/angelmondragon/citypulse-backend/pkg/logger"
	"github.com/angelmondragon/citypulse-backend/pkg/pagination"
	"github.com/angelmondragon/citypulse-backend/pkg/types"
)

const triggerTypeMaxLen = 64

// Evaluator runs on-demand evaluations for the caller.
type Evaluator interface {
	EvaluateLocation(ctx context.Context, req evaluation.LocationRequest) (*triggers.EvaluationResult, error)
	EvaluateType(ctx context.Context, t triggers.Type, req evaluation.LocationRequest) (*triggers.EvaluationResult, error)
}

// StrategyAdmin lists strategies and flips their shared enabled flag.
type StrategyAdmin interface {
	Infos() []triggers.StrategyInfo
	Refresh(ctx context.Context) error
	Toggle(ctx context.Context, t triggers.Type, enabled bool) error
}

// EvaluateRequest is the on-demand evaluation body.
type EvaluateRequest struct {
	Latitude        *float64 `json:"latitude" validate:"required,latitude"`
	Longitude       *float64 `json:"longitude" validate:"required,longitude"`
	Radius          int      `json:"radius" validate:"omitempty,min=1,max=50000"`
	TriggerTypes    []string `json:"triggerTypes" validate:"omitempty,dive,required,max=64"`
	ForceEvaluation bool     `json:"forceEvaluation"`
	FirstMatch      bool     `json:"firstMatch"`
}

func (b EvaluateRequest) toLocationRequest(userID uuid.UUID) (evaluation.LocationRequest, error) {
	req := evaluation.LocationRequest{
		UserID:     userID,
		Location:   types.Location{Lat: *b.Latitude, Lng: *b.Longitude},
		Radius:     b.Radius,
		Force:      b.ForceEvaluation,
		FirstMatch: b.FirstMatch,
	}
	for _, raw := range b.TriggerTypes {
		t, err := triggers.ParseType(raw)
		if err != nil {
			return req, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid trigger type")
		}
		req.Types = append(req.Types, t)
	}
	return req, nil
}

// EvaluateLocation evaluates every enabled strategy, or the requested subset,
// for the caller at the given point.
func EvaluateLocation(svc Evaluator, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "evaluation service unavailable"))
			return
		}

		userID, err := callerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body EvaluateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		req, err := body.toLocationRequest(userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.EvaluateLocation(r.Context(), req)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// EvaluateTriggerType evaluates exactly one strategy named in the path.
func EvaluateTriggerType(svc Evaluator, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "evaluation service unavailable"))
			return
		}

		userID, err := callerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		t, err := triggers.ParseType(validators.PathParam(r, "triggerType", triggerTypeMaxLen))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid trigger type"))
			return
		}

		var body EvaluateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		req, err := body.toLocationRequest(userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithTriggerType(ctx, t.String())
		}
		result, err := svc.EvaluateType(ctx, t, req)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// ListStrategies returns the registry view; ?enabled=true keeps only enabled ones.
func ListStrategies(admin StrategyAdmin, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if admin == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "strategy registry unavailable"))
			return
		}

		enabled, err := validators.ParseQueryBool(r, "enabled")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := admin.Refresh(r.Context()); err != nil && logg != nil {
			logg.Warn(r.Context(), "strategy states not refreshed: "+err.Error())
		}
		infos := admin.Infos()
		out := make([]triggers.StrategyInfo, 0, len(infos))
		for _, info := range infos {
			if enabled != nil && info.Enabled != *enabled {
				continue
			}
			out = append(out, info)
		}
		responses.WriteSuccess(w, out)
	}
}

// ToggleStrategy sets the enabled flag of one strategy. Admin only.
func ToggleStrategy(admin StrategyAdmin, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if admin == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "strategy registry unavailable"))
			return
		}

		t, err := triggers.ParseType(validators.PathParam(r, "triggerType", triggerTypeMaxLen))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid trigger type"))
			return
		}

		enabled, err := validators.ParseQueryBool(r, "enabled")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if enabled == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "enabled query parameter required").WithDetails(map[string]any{"field": "enabled"}))
			return
		}

		if err := admin.Toggle(r.Context(), t, *enabled); err != nil {
			if errors.Is(err, triggers.ErrStrategyNotFound) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "trigger strategy not found").WithDetails(map[string]any{"triggerType": t.String()}))
				return
			}
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist trigger strategy state"))
			return
		}

		if logg != nil {
			ctx := logg.WithFields(logg.WithTriggerType(r.Context(), t.String()), map[string]any{"enabled": *enabled})
			logg.Info(ctx, "trigger strategy toggled")
		}
		responses.WriteSuccess(w, map[string]any{"triggerType": t, "enabled": *enabled})
	}
}

// ListTriggerHistory pages the caller's notification history, newest first.
func ListTriggerHistory(svc notifications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "notifications service unavailable"))
			return
		}

		userID, err := callerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := validators.ParseQueryInt(r, "page", 0, 0, 1<<20)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		size, err := validators.ParseQueryInt(r, "size", pagination.DefaultSize, 1, pagination.MaxSize)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		unread, err := validators.ParseQueryBool(r, "unreadOnly")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params := notifications.ListParams{UserID: userID, Page: page, Size: size}
		if unread != nil {
			params.UnreadOnly = *unread
		}

		result, err := svc.List(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WritePage(w, result.Items, result.Page)
	}
}

// MarkHistoryRead flags one of the caller's notifications as read.
func MarkHistoryRead(svc notifications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "notifications service unavailable"))
			return
		}

		userID, err := callerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		id, err := validators.ParsePathUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.MarkRead(r.Context(), userID, id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"read": true})
	}
}

func callerID(r *http.Request) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id")
	}
	return id, nil
}
