package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler, metrics http.Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
	if metrics != nil {
		mux.Handle("GET /metrics", metrics)
	}
}

func registerTeamRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/teams", handler.ListTeams)
	mux.HandleFunc("POST /v1/teams/refresh", handler.ListTeams)
	mux.HandleFunc("GET /v1/teams/resolve", handler.ResolveTeam)
	mux.HandleFunc("GET /v1/teams/{team}/roster", handler.GetTeamRoster)
	mux.HandleFunc("GET /v1/teams/{team}/players", handler.GetTeamPlayers)
	mux.HandleFunc("GET /v1/teams/{team}/scoreboard", handler.GetTeamScoreboard)
	mux.HandleFunc("GET /v1/teams/{team}/stats", handler.GetTeamStats)
	mux.HandleFunc("GET /v1/teams/{team}/schedule", handler.GetTeamSchedule)
	mux.HandleFunc("POST /v1/rosters/sync", handler.SyncRosters)
}

func registerLeagueRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/players/{playerID}", handler.GetPlayer)
	mux.HandleFunc("GET /v1/standings", handler.GetStandings)
	mux.HandleFunc("GET /v1/leaders/goalies", handler.GetGoalieLeaders)
	mux.HandleFunc("GET /v1/leaders/skaters", handler.GetSkaterLeaders)
	mux.HandleFunc("GET /v1/scores", handler.GetDailyScores)
	mux.HandleFunc("GET /v1/scoreboard", handler.GetScoreboard)
}
