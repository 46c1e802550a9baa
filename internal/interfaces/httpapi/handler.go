package httpapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	jsoniter "github.com/json-iterator/go"
	"github.com/riskibarqy/nhl-actions/internal/domain/team"
	"github.com/riskibarqy/nhl-actions/internal/platform/logging"
	"github.com/riskibarqy/nhl-actions/internal/usecase"
)

// TeamActions is the team directory as seen by the action surface.
type TeamActions interface {
	ListTeams(ctx context.Context) ([]team.Team, error)
	Resolve(ctx context.Context, query string) (string, error)
}

// StatsActions are the per-endpoint fetch actions.
type StatsActions interface {
	GetTeamRoster(ctx context.Context, query string, refresh bool) (any, error)
	GetTeamPlayers(ctx context.Context, query string) (usecase.TeamPlayers, error)
	GetTeamScoreboard(ctx context.Context, query string) (any, error)
	GetTeamStats(ctx context.Context, query string) (any, error)
	GetTeamSchedule(ctx context.Context, query string) (any, error)
	GetPlayer(ctx context.Context, playerID int64) (any, error)
	GetStandings(ctx context.Context) (any, error)
	GetGoalieLeaders(ctx context.Context) (any, error)
	GetSkaterLeaders(ctx context.Context) (any, error)
	GetDailyScores(ctx context.Context) (any, error)
	GetScoreboard(ctx context.Context) (any, error)
}

type RosterSyncer interface {
	SyncRosters(ctx context.Context, input usecase.RosterSyncInput) (usecase.RosterSyncResult, error)
}

var (
	_ TeamActions  = (*usecase.TeamDirectoryService)(nil)
	_ StatsActions = (*usecase.StatsService)(nil)
	_ RosterSyncer = (*usecase.RosterSyncService)(nil)
)

type Handler struct {
	teams     TeamActions
	stats     StatsActions
	rosters   RosterSyncer
	logger    *logging.Logger
	validator *validator.Validate
}

func NewHandler(teams TeamActions, stats StatsActions, rosters RosterSyncer, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		teams:     teams,
		stats:     stats,
		rosters:   rosters,
		logger:    logger,
		validator: validator.New(),
	}
}

type teamPathParams struct {
	Team string `validate:"required,max=100"`
}

type resolveTeamParams struct {
	Query string `validate:"max=100"`
}

type playerPathParams struct {
	PlayerID int64 `validate:"required,gt=0"`
}

type rosterSyncRequest struct {
	Teams      []string `json:"teams" validate:"omitempty,max=64,dive,required,max=100"`
	MaxWorkers int      `json:"max_workers" validate:"omitempty,min=1,max=16"`
}

type teamDTO struct {
	Name         string `json:"team_name"`
	Abbreviation string `json:"team_abbreviation"`
}

type resolveTeamDTO struct {
	Query            string `json:"query"`
	TeamAbbreviation string `json:"team_abbreviation"`
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	ctx, span := startSpan(ctx, "httpapi.Handler.validateRequest")
	defer span.End()

	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) ListTeams(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListTeams")
	defer span.End()

	items, err := h.teams.ListTeams(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "list teams failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	out := make([]teamDTO, 0, len(items))
	for _, item := range items {
		out = append(out, teamDTO{Name: item.Name, Abbreviation: item.Abbreviation})
	}
	writeSuccess(ctx, w, http.StatusOK, out)
}

func (h *Handler) ResolveTeam(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ResolveTeam")
	defer span.End()

	params := resolveTeamParams{Query: r.URL.Query().Get("q")}
	if err := h.validateRequest(ctx, params); err != nil {
		writeError(ctx, w, err)
		return
	}

	abbr, err := h.teams.Resolve(ctx, params.Query)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, resolveTeamDTO{Query: params.Query, TeamAbbreviation: abbr})
}

func (h *Handler) GetTeamRoster(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetTeamRoster")
	defer span.End()

	params, err := h.teamParams(ctx, r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	refresh, err := parseBoolQuery(r, "refresh")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	payload, err := h.stats.GetTeamRoster(ctx, params.Team, refresh)
	if err != nil {
		h.logger.WarnContext(ctx, "get team roster failed", "team", params.Team, "refresh", refresh, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, payload)
}

func (h *Handler) GetTeamPlayers(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetTeamPlayers")
	defer span.End()

	params, err := h.teamParams(ctx, r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.stats.GetTeamPlayers(ctx, params.Team)
	if err != nil {
		h.logger.WarnContext(ctx, "get team players failed", "team", params.Team, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, result)
}

func (h *Handler) GetTeamScoreboard(w http.ResponseWriter, r *http.Request) {
	h.serveTeamResource(w, r, "httpapi.Handler.GetTeamScoreboard", h.stats.GetTeamScoreboard)
}

func (h *Handler) GetTeamStats(w http.ResponseWriter, r *http.Request) {
	h.serveTeamResource(w, r, "httpapi.Handler.GetTeamStats", h.stats.GetTeamStats)
}

func (h *Handler) GetTeamSchedule(w http.ResponseWriter, r *http.Request) {
	h.serveTeamResource(w, r, "httpapi.Handler.GetTeamSchedule", h.stats.GetTeamSchedule)
}

func (h *Handler) GetPlayer(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetPlayer")
	defer span.End()

	raw := strings.TrimSpace(r.PathValue("playerID"))
	playerID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		writeError(ctx, w, fmt.Errorf("%w: player id %q is not a number", usecase.ErrInvalidInput, raw))
		return
	}
	if err := h.validateRequest(ctx, playerPathParams{PlayerID: playerID}); err != nil {
		writeError(ctx, w, err)
		return
	}

	payload, err := h.stats.GetPlayer(ctx, playerID)
	if err != nil {
		h.logger.WarnContext(ctx, "get player failed", "player_id", playerID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, payload)
}

func (h *Handler) GetStandings(w http.ResponseWriter, r *http.Request) {
	h.serveLeagueResource(w, r, "httpapi.Handler.GetStandings", h.stats.GetStandings)
}

func (h *Handler) GetGoalieLeaders(w http.ResponseWriter, r *http.Request) {
	h.serveLeagueResource(w, r, "httpapi.Handler.GetGoalieLeaders", h.stats.GetGoalieLeaders)
}

func (h *Handler) GetSkaterLeaders(w http.ResponseWriter, r *http.Request) {
	h.serveLeagueResource(w, r, "httpapi.Handler.GetSkaterLeaders", h.stats.GetSkaterLeaders)
}

func (h *Handler) GetDailyScores(w http.ResponseWriter, r *http.Request) {
	h.serveLeagueResource(w, r, "httpapi.Handler.GetDailyScores", h.stats.GetDailyScores)
}

func (h *Handler) GetScoreboard(w http.ResponseWriter, r *http.Request) {
	h.serveLeagueResource(w, r, "httpapi.Handler.GetScoreboard", h.stats.GetScoreboard)
}

func (h *Handler) SyncRosters(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SyncRosters")
	defer span.End()

	req, err := decodeRosterSyncRequest(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.rosters.SyncRosters(ctx, usecase.RosterSyncInput{
		Teams:      req.Teams,
		MaxWorkers: req.MaxWorkers,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "sync rosters failed", "teams", len(req.Teams), "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, result)
}

func (h *Handler) serveTeamResource(w http.ResponseWriter, r *http.Request, spanName string, fetch func(context.Context, string) (any, error)) {
	ctx, span := startSpan(r.Context(), spanName)
	defer span.End()

	params, err := h.teamParams(ctx, r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	payload, err := fetch(ctx, params.Team)
	if err != nil {
		h.logger.WarnContext(ctx, "team action failed", "action", spanName, "team", params.Team, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, payload)
}

func (h *Handler) serveLeagueResource(w http.ResponseWriter, r *http.Request, spanName string, fetch func(context.Context) (any, error)) {
	ctx, span := startSpan(r.Context(), spanName)
	defer span.End()

	payload, err := fetch(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "league action failed", "action", spanName, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, payload)
}

func (h *Handler) teamParams(ctx context.Context, r *http.Request) (teamPathParams, error) {
	params := teamPathParams{Team: strings.TrimSpace(r.PathValue("team"))}
	if err := h.validateRequest(ctx, params); err != nil {
		return teamPathParams{}, err
	}
	return params, nil
}

func parseBoolQuery(r *http.Request, key string) (bool, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return false, nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%w: %s must be a boolean, got %q", usecase.ErrInvalidInput, key, raw)
	}
	return value, nil
}

// decodeRosterSyncRequest treats an empty body as "sync every team".
func decodeRosterSyncRequest(r *http.Request) (rosterSyncRequest, error) {
	decoder := jsoniter.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	var req rosterSyncRequest
	if err := decoder.Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			return rosterSyncRequest{}, nil
		}
		return rosterSyncRequest{}, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err)
	}

	return req, nil
}
