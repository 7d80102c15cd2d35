package api

import (
	"net/http"

	"github.com/clefeel/storefront/internal/auth"
	"github.com/clefeel/storefront/internal/models"
	"github.com/clefeel/storefront/internal/respond"
	"github.com/gorilla/mux"
)

// RegisterHandler handles POST /api/auth/register
func (a *App) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := decode(w, r, &req); err != nil {
		a.fail(w, err)
		return
	}
	u, token, err := a.svc.Users.Register(r.Context(), req)
	if err != nil {
		a.fail(w, err)
		return
	}
	respond.JSON(w, http.StatusCreated, models.AuthResponse{
		Message: "Registration successful. Please verify your email.",
		User:    u,
		Token:   token,
	})
}

// LoginHandler handles POST /api/auth/login
func (a *App) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := decode(w, r, &req); err != nil {
		a.fail(w, err)
		return
	}
	u, token, err := a.svc.Users.Login(r.Context(), req)
	if err != nil {
		a.fail(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, models.AuthResponse{Message: "Login successful", User: u, Token: token})
}

// VerifyEmailHandler handles GET /api/auth/verify/{token}
func (a *App) VerifyEmailHandler(w http.ResponseWriter, r *http.Request) {
	if err := a.svc.Users.VerifyEmail(r.Context(), mux.Vars(r)["token"]); err != nil {
		a.fail(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, message("Email verified successfully"))
}

// MeHandler handles GET /api/auth/me
func (a *App) MeHandler(w http.ResponseWriter, r *http.Request) {
	u, err := a.svc.Users.Me(r.Context(), auth.UserFrom(r.Context()).ID)
	if err != nil {
		a.fail(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"user": u})
}

// UpdateProfileHandler handles PUT /api/auth/profile
func (a *App) UpdateProfileHandler(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateProfileRequest
	if err := decode(w, r, &req); err != nil {
		a.fail(w, err)
		return
	}
	u, err := a.svc.Users.UpdateProfile(r.Context(), auth.UserFrom(r.Context()).ID, req)
	if err != nil {
		a.fail(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"message": "Profile updated successfully", "user": u})
}

// LogoutHandler handles POST /api/auth/logout. Tokens are stateless, so
// the client discards its copy.
func (a *App) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, message("Logout successful"))
}
