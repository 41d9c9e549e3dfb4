package userstate

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

// Service exposes the module's calls and queries over HTTP.
type Service struct {
	pallet *Pallet
	exec   *runtime.Executive
	logger logging.Logger
}

// NewService creates the HTTP front for pallet, dispatching through exec.
func NewService(pallet *Pallet, exec *runtime.Executive, logger logging.Logger) *Service {
	return &Service{
		pallet: pallet,
		exec:   exec,
		logger: logger.With(logging.String("module", ModuleName)),
	}
}

// Name returns the module identifier.
func (s *Service) Name() string {
	return ModuleName
}

// RegisterRoutes sets up HTTP routes for the module:
//   - POST /users - add_user {x, y}
//   - PUT /users - update_user_info {x, y}
//   - DELETE /users - remove_user
//   - GET /users/{account} - query a record
//
// The caller's account comes from the signed origin, not the path.
func (s *Service) RegisterRoutes(router chi.Router) {
	router.Post("/users", s.handleAddUser)
	router.Put("/users", s.handleUpdateUserInfo)
	router.Delete("/users", s.handleRemoveUser)
	router.Get("/users/{account}", s.handleGetUser)
}

// coordinatesRequest is the body of add_user and update_user_info.
type coordinatesRequest struct {
	X *uint64 `json:"x"`
	Y *uint64 `json:"y"`
}

func (s *Service) decodeCoordinates(w http.ResponseWriter, r *http.Request) (x, y uint64, ok bool) {
	var req coordinatesRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "InvalidRequest", err.Error())
		return 0, 0, false
	}
	if req.X == nil || req.Y == nil {
		httpx.WriteError(w, http.StatusBadRequest, "InvalidRequest", "x and y are required")
		return 0, 0, false
	}
	return *req.X, *req.Y, true
}

func (s *Service) handleAddUser(w http.ResponseWriter, r *http.Request) {
	x, y, ok := s.decodeCoordinates(w, r)
	if !ok {
		return
	}

	o := origin.FromContext(r.Context())
	s.dispatch(w, r, "add_user", http.StatusCreated, func(ctx context.Context) error {
		return s.pallet.AddUser(ctx, o, x, y)
	})
}

func (s *Service) handleUpdateUserInfo(w http.ResponseWriter, r *http.Request) {
	x, y, ok := s.decodeCoordinates(w, r)
	if !ok {
		return
	}

	o := origin.FromContext(r.Context())
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

	user, found, err := s.pallet.User(r.Context(), who)
	if err != nil {
		s.logger.Error("failed to read user",
			logging.Stringer("who", who),
			logging.ErrorField(err),
		)
		httpx.WriteError(w, http.StatusInternalServerError, "InternalError", "Failed to read user")
		return
	}
	if !found {
		httpx.WriteError(w, http.StatusNotFound, ErrUserNotFound.Name(), "no record for "+who.String())
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"who":        who,
		"user_state": user,
	})
}

// dispatch runs a call through the executive and writes its receipt or error.
func (s *Service) dispatch(w http.ResponseWriter, r *http.Request, call string, successStatus int, fn func(ctx context.Context) error) {
	receipt, err := s.exec.Dispatch(r.Context(), runtime.Call{Module: ModuleName, Name: call}, fn)
	if err != nil {
		s.writeDispatchError(w, call, err)
		return
	}
	httpx.WriteJSON(w, successStatus, receipt)
}

func (s *Service) writeDispatchError(w http.ResponseWriter, call string, err error) {
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
}

// Ensure Service implements the Module interface.
var _ core.Module = (*Service)(nil)
