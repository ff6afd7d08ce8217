package cron

import (
	"crypto/subtle"
	"net/http"

	"github.com/gorilla/mux"
	"go.ule.co/platform/api/httputil"
	"go.ule.co/platform/config"
	"go.ule.co/platform/core"
	"go.ule.co/platform/middleware"
	"go.uber.org/fx"
)

const unauthorizedMessage = "No autorizado"

var _ core.API = (*API)(nil)

type APIParams struct {
	fx.In
	Config config.Manager
	Logger *core.Logger
	Job    core.DeletionJob
}

// API exposes the deletion job to an external scheduler.
type API struct {
	config config.Manager
	logger *core.Logger
	job    core.DeletionJob
}

func NewAPI(params APIParams) *API {
	return &API{
		config: params.Config,
		logger: params.Logger,
		job:    params.Job,
	}
}

func (a *API) Name() string {
	return "cron"
}

func (a *API) Configure(router *mux.Router) error {
	router.HandleFunc("/cron/eliminar-cuentas", a.deleteAccounts).Methods(http.MethodGet)
	return nil
}

// authorized compares the bearer token with the configured secret in
// constant time. An unset secret rejects every caller.
func (a *API) authorized(r *http.Request) bool {
	secret := a.config.Config().Core.Cron.Secret
	token := middleware.ParseAuthTokenHeader(r.Header)

	if secret == "" || token == "" {
		return false
	}

	return subtle.ConstantTimeCompare([]byte(token), []byte(secret)) == 1
}

func (a *API) deleteAccounts(w http.ResponseWriter, r *http.Request) {
	if !a.authorized(r) {
		http.Error(w, unauthorizedMessage, http.StatusUnauthorized)
		return
	}

	ctx := httputil.Context(r, w)

	summary, err := a.job.Run(r.Context())
	if err != nil {
		ctx.PrivacyError(err, a.logger.Logger)
		return
	}

	ctx.Encode(summary.Report())
}
