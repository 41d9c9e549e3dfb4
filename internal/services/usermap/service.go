package usermap

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/asad/userstate/internal/core"
	"github.com/asad/userstate/internal/httpx"
	"github.com/asad/userstate/internal/logging"
	"github.com/asad/userstate/internal/origin"
	"github.com/asad/userstate/internal/runtime"
)

// Service exposes the map-variant calls over HTTP.
type Service struct {
	pallet *Pallet
	exec   *runtime.Executive
	logger logging.Logger
}

func NewService(pallet *Pallet, exec *runtime.Executive, logger logging.Logger) *Service {
	return &Service{
		pallet: pallet,
		exec:   exec,
		logger: logger.With(logging.String("module", ModuleName)),
	}
}

func (s *Service) Name() string {
	return ModuleName
}

// RegisterRoutes mounts:
//   - POST /users - add_user (no body)
//   - PUT /users - update_user_info {x, y} as decimal strings or numbers
//   - DELETE /users - remove_user
//   - GET /users/{account}
func (s *Service) RegisterRoutes(router chi.Router) {
	router.Post("/users", s.handleAddUser)
	router.Put("/users", s.handleUpdateUserInfo)
	router.Delete("/users", s.handleRemoveUser)
	router.Get("/users/{account}", s.handleGetUser)
}

type updateRequest struct {
	X *I128 `json:"x"`
	Y *I128 `json:"y"`
}

func (s *Service) handleAddUser(w http.ResponseWriter, r *http.Request) {
	o := origin.FromContext(r.Context())
	s.dispatch(w, r, "add_user", http.StatusCreated, func(ctx context.Context) error {
		return s.pallet.AddUser(ctx, o)
	})
}

func (s *Service) handleUpdateUserInfo(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "InvalidRequest", err.Error())
		return
	}
	if req.X == nil || req.Y == nil {
		httpx.WriteError(w, http.StatusBadRequest, "InvalidRequest", "x and y are required")
		return
	}

	o := origin.FromContext(r.Context())
	x, y := *req.X, *req.Y
	s.dispatch(w, r, "update_user_info", http.StatusOK, func(ctx context.Context) error {
		return s.pallet.UpdateUserInfo(ctx, o, x, y)
	})
}

func (s *Service) handleRemoveUser(w http.ResponseWriter, r *http.Request) {
	o := origin.FromContext(r.Context())
	s.dispatch(w, r, "remove_user", http.StatusOK, func(ctx context.Context) error {
		return s.pallet.RemoveUser(ctx, o)
	})
}

func (s *Service) handleGetUser(w http.ResponseWriter, r *http.Request) {
	who, err := origin.ParseAccountID(chi.URLParam(r, "account"))
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "InvalidRequest", err.Error())
		return
	}

	entry, found, err := s.pallet.User(r.Context(), who)
	if err != nil {
		s.logger.Error("failed to read user",
			logging.Stringer("who", who),
			logging.ErrorField(err),
		)
		httpx.WriteError(w, http.StatusInternalServerError, "InternalError", "Failed to read user")
		return
	}
	if !found {
		httpx.WriteError(w, http.StatusNotFound, ErrUserNotFound.Name(), "no entry for "+who.String())
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"who":   who,
		"entry": entry,
	})
}

func (s *Service) dispatch(w http.ResponseWriter, r *http.Request, call string, successStatus int, fn func(ctx context.Context) error) {
	receipt, err := s.exec.Dispatch(r.Context(), runtime.Call{Module: ModuleName, Name: call}, fn)
	if err != nil {
		var modErr Error
		switch {
		case errors.Is(err, origin.ErrBadOrigin):
			httpx.WriteBadOrigin(w)
		case errors.As(err, &modErr) && modErr == ErrUserExists:
			httpx.WriteError(w, http.StatusConflict, modErr.Name(), "user already exists")
		case errors.As(err, &modErr) && modErr == ErrUserNotFound:
			httpx.WriteError(w, http.StatusNotFound, modErr.Name(), "user not found")
		default:
			s.logger.Error("call failed",
				logging.String("call", call),
				logging.ErrorField(err),
			)
			httpx.WriteError(w, http.StatusInternalServerError, "InternalError", "Failed to apply "+call)
		}
		return
	}
	httpx.WriteJSON(w, successStatus, receipt)
}

var _ core.Module = (*Service)(nil)
