package httpx

import (
	"net/http"
	"time"

	"github.com/dmitrijs2005/accounts/internal/server/models"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

type userResponse struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	FullName    *string   `json:"full_name"`
	IsActive    bool      `json:"is_active"`
	IsSuperuser bool      `json:"is_superuser"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toTokenResponse(p *models.TokenPair) tokenResponse {
	return tokenResponse{AccessToken: p.AccessToken, RefreshToken: p.RefreshToken, TokenType: p.TokenType}
}

func toUserResponse(u *models.User) userResponse {
	return userResponse{
		ID:          u.ID,
		Email:       u.Email,
		FullName:    u.FullName,
		IsActive:    u.IsActive,
		IsSuperuser: u.IsSuperuser,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

func (r *Router) handleRegister(w http.ResponseWriter, req *http.Request) {
	var in models.RegisterInput
	if !decode(w, req, &in) {
		return
	}
	pair, err := r.auth.Register(req.Context(), in)
	if err != nil {
		r.writeError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, toTokenResponse(pair))
}

func (r *Router) handleLogin(w http.ResponseWriter, req *http.Request) {
	var in models.LoginInput
	if !decode(w, req, &in) {
		return
	}
	pair, err := r.auth.Login(req.Context(), in)
	if err != nil {
		r.writeError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, toTokenResponse(pair))
}

func (r *Router) handleRefresh(w http.ResponseWriter, req *http.Request) {
	var in models.RefreshInput
	if !decode(w, req, &in) {
		return
	}
	pair, err := r.auth.Refresh(req.Context(), in)
	if err != nil {
		r.writeError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, toTokenResponse(pair))
}

func (r *Router) handleMe(w http.ResponseWriter, req *http.Request) {
	writeJSON(w, http.StatusOK, toUserResponse(currentUser(req.Context())))
}

func (r *Router) handleListUsers(w http.ResponseWriter, req *http.Request) {
	list, err := r.users.ListUsers(req.Context())
	if err != nil {
		r.writeError(w, req, err)
		return
	}
	out := make([]userResponse, 0, len(list))
	for _, u := range list {
		out = append(out, toUserResponse(u))
	}
	writeJSON(w, http.StatusOK, out)
}

func (r *Router) handleCreateUser(w http.ResponseWriter, req *http.Request) {
	var in models.UserCreate
	if !decode(w, req, &in) {
		return
	}
	u, err := r.users.CreateUser(req.Context(), in)
	if err != nil {
		r.writeError(w, req, err)
		return
	}
	writeJSON(w, http.StatusCreated, toUserResponse(u))
}

func (r *Router) handleUpdateUser(w http.ResponseWriter, req *http.Request) {
	id, ok := userID(w, req)
	if !ok {
		return
	}
	var patch models.UserUpdate
	if !decode(w, req, &patch) {
		return
	}
	u, err := r.users.UpdateUser(req.Context(), id, patch)
	if err != nil {
		r.writeError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(u))
}

func (r *Router) handleDeleteUser(w http.ResponseWriter, req *http.Request) {
	id, ok := userID(w, req)
	if !ok {
		return
	}
	if err := r.users.DeleteUser(req.Context(), id); err != nil {
		r.writeError(w, req, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// userID returns the canonical form of the {user_id} path parameter.
func userID(w http.ResponseWriter, req *http.Request) (string, bool) {
	id, err := uuid.Parse(chi.URLParam(req, "user_id"))
	if err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, detailInvalidUserID)
		return "", false
	}
	return id.String(), true
}
