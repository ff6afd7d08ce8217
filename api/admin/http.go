package admin

import (
	"net/http"
	"strconv"
	"time"

	"github.com/casbin/casbin/v2"
	"github.com/gorilla/mux"
	"go.ule.co/platform/api/httputil"
	"go.ule.co/platform/config"
	"go.ule.co/platform/core"
	"go.ule.co/platform/db/models"
	"go.ule.co/platform/middleware"
	"go.uber.org/fx"
)

var _ core.API = (*API)(nil)

type PrivacyLogEntry struct {
	ID          uint                      `json:"id"`
	UserID      uint                      `json:"userId"`
	Action      models.PrivacyAction      `json:"accion"`
	Description string                    `json:"descripcion"`
	Metadata    models.PrivacyLogMetadata `json:"metadata"`
	SourceIP    string                    `json:"ip,omitempty"`
	CreatedAt   string                    `json:"fecha"`
}

type PrivacyLogsResponse struct {
	Logs []PrivacyLogEntry `json:"logs"`
}

type APIParams struct {
	fx.In
	Config     config.Manager
	Logger     *core.Logger
	Users      core.UserService
	PrivacyLog core.PrivacyLogService
	Casbin     *casbin.Enforcer
}

// API is the operator view of the privacy audit trail.
type API struct {
	config     config.Manager
	logger     *core.Logger
	users      core.UserService
	privacyLog core.PrivacyLogService
	casbin     *casbin.Enforcer
}

func NewAPI(params APIParams) *API {
	return &API{
		config:     params.Config,
		logger:     params.Logger,
		users:      params.Users,
		privacyLog: params.PrivacyLog,
		casbin:     params.Casbin,
	}
}

func (a *API) Name() string {
	return "admin"
}

func (a *API) Configure(router *mux.Router) error {
	sub := router.PathPrefix("/admin").Subrouter()
	sub.Use(middleware.AuthMiddleware(middleware.AuthMiddlewareOptions{
		Config:  a.config,
		Users:   a.users,
		Logger:  a.logger,
		Purpose: core.JWTPurposeLogin,
	}))
	sub.Use(middleware.AuthzMiddleware(middleware.AuthzOptions{
		Users:  a.users,
		Casbin: a.casbin,
		Role:   models.RoleAdmin,
	}))

	sub.HandleFunc("/privacy/logs", a.privacyLogs).Methods(http.MethodGet)

	return nil
}

func (a *API) privacyLogs(w http.ResponseWriter, r *http.Request) {
	ctx := httputil.Context(r, w)
	query := r.URL.Query()

	filter := core.PrivacyLogFilter{
		Action: models.PrivacyAction(query.Get("action")),
	}

	if raw := query.Get("userId"); raw != "" {
		userId, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			ctx.PrivacyError(core.NewPrivacyError(core.ErrKeyInvalidRequest, err), a.logger.Logger)
			return
		}
		filter.UserID = uint(userId)
	}

	if raw := query.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			ctx.PrivacyError(core.NewPrivacyError(core.ErrKeyInvalidRequest, err), a.logger.Logger)
			return
		}
		filter.Limit = limit
	}

	entries, err := a.privacyLog.List(r.Context(), filter)
	if err != nil {
		ctx.PrivacyError(err, a.logger.Logger)
		return
	}

	logs := make([]PrivacyLogEntry, 0, len(entries))
	for _, entry := range entries {
		logs = append(logs, PrivacyLogEntry{
			ID:          entry.ID,
			UserID:      entry.UserID,
			Action:      entry.Action,
			Description: entry.Description,
			Metadata:    entry.Metadata.Data(),
			SourceIP:    entry.SourceIP,
			CreatedAt:   entry.CreatedAt.UTC().Format(time.RFC3339),
		})
	}

	ctx.Encode(PrivacyLogsResponse{Logs: logs})
}
