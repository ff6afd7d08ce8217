package privacy

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.ule.co/platform/api/httputil"
	"go.ule.co/platform/config"
	"go.ule.co/platform/core"
	"go.ule.co/platform/middleware"
	"go.uber.org/fx"
)

const (
	actionConfirm = "confirm"
	actionCancel  = "cancel"
)

const (
	messageRequested = "Solicitud de eliminación registrada. Revisa tu correo para confirmarla."
	messageConfirmed = "Eliminación confirmada. Tu cuenta se eliminará al terminar el periodo de gracia."
	messageCancelled = "Solicitud de eliminación cancelada."
)

var _ core.API = (*API)(nil)

type APIParams struct {
	fx.In
	Config   config.Manager
	Logger   *core.Logger
	Users    core.UserService
	Deletion core.DeletionService
}

// API serves the account owner's side of the deletion flow.
type API struct {
	config   config.Manager
	logger   *core.Logger
	users    core.UserService
	deletion core.DeletionService
}

func NewAPI(params APIParams) *API {
	return &API{
		config:   params.Config,
		logger:   params.Logger,
		users:    params.Users,
		deletion: params.Deletion,
	}
}

func (a *API) Name() string {
	return "privacy"
}

func (a *API) Configure(router *mux.Router) error {
	authMw := middleware.AuthMiddleware(middleware.AuthMiddlewareOptions{
		Config:  a.config,
		Users:   a.users,
		Logger:  a.logger,
		Purpose: core.JWTPurposeLogin,
	})

	sub := router.PathPrefix("/privacy").Subrouter()
	sub.Use(authMw)

	sub.HandleFunc("/delete-account", a.status).Methods(http.MethodGet)
	sub.HandleFunc("/delete-account", a.post).Methods(http.MethodPost)
	sub.HandleFunc("/delete-account", a.cancel).Methods(http.MethodDelete)

	return nil
}

func (a *API) status(w http.ResponseWriter, r *http.Request) {
	ctx := httputil.Context(r, w)

	userId, err := middleware.GetUserFromContext(r.Context())
	if err != nil {
		ctx.PrivacyError(core.NewPrivacyError(core.ErrKeyUnauthorized, err), a.logger.Logger)
		return
	}

	request, err := a.deletion.GetStatus(r.Context(), userId)
	if err != nil {
		ctx.PrivacyError(err, a.logger.Logger)
		return
	}

	ctx.Encode(DeletionStatusResponse{
		Request:   newDeletionRequestInfo(request),
		HasActive: request != nil,
	})
}

// post dispatches on the action query parameter: none opens a request,
// confirm and cancel act on the open one.
func (a *API) post(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Query().Get("action") {
	case "":
		a.request(w, r)
	case actionConfirm:
		a.confirm(w, r)
	case actionCancel:
		a.cancel(w, r)
	default:
		httputil.Context(r, w).PrivacyError(core.NewPrivacyError(core.ErrKeyInvalidRequest, nil), a.logger.Logger)
	}
}

func (a *API) request(w http.ResponseWriter, r *http.Request) {
	ctx := httputil.Context(r, w)

	var request DeletionRequestRequest
	if ctx.Decode(&request) != nil {
		return
	}

	userId, err := middleware.GetUserFromContext(r.Context())
	if err != nil {
		ctx.PrivacyError(core.NewPrivacyError(core.ErrKeyUnauthorized, err), a.logger.Logger)
		return
	}

	token, err := a.deletion.RequestDeletion(r.Context(), userId, request.Reason, ctx.ClientIP())
	if err != nil {
		ctx.PrivacyError(err, a.logger.Logger)
		return
	}

	ctx.Encode(DeletionRequestResponse{
		Success: true,
		Message: messageRequested,
		Token:   token,
	})
}

func (a *API) confirm(w http.ResponseWriter, r *http.Request) {
	ctx := httputil.Context(r, w)

	var request ConfirmDeletionRequest
	if ctx.Decode(&request) != nil {
		return
	}

	userId, err := middleware.GetUserFromContext(r.Context())
	if err != nil {
		ctx.PrivacyError(core.NewPrivacyError(core.ErrKeyUnauthorized, err), a.logger.Logger)
		return
	}

	executionDate, err := a.deletion.ConfirmDeletion(r.Context(), userId, request.Token, ctx.ClientIP())
	if err != nil {
		ctx.PrivacyError(err, a.logger.Logger)
		return
	}

	ctx.Encode(ConfirmDeletionResponse{
		Success:       true,
		Message:       messageConfirmed,
		ExecutionDate: executionDate,
	})
}

func (a *API) cancel(w http.ResponseWriter, r *http.Request) {
	ctx := httputil.Context(r, w)

	userId, err := middleware.GetUserFromContext(r.Context())
	if err != nil {
		ctx.PrivacyError(core.NewPrivacyError(core.ErrKeyUnauthorized, err), a.logger.Logger)
		return
	}

	if err := a.deletion.CancelDeletion(r.Context(), userId, ctx.ClientIP()); err != nil {
		ctx.PrivacyError(err, a.logger.Logger)
		return
	}

	ctx.Encode(MessageResponse{
		Success: true,
		Message: messageCancelled,
	})
}
