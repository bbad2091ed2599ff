package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"time"

	"github.com/ariefcatur/go-clothing-rental/internal/identity"
	"github.com/ariefcatur/go-clothing-rental/internal/session"
	"github.com/ariefcatur/go-clothing-rental/internal/store"
)

const sessionCookie = "session"

type userKey struct{}

func withUser(ctx context.Context, id store.UserID) context.Context {
	return context.WithValue(ctx, userKey{}, id)
}

func currentUser(ctx context.Context) store.UserID {
	id, _ := ctx.Value(userKey{}).(store.UserID)
	return id
}

// requireAuth rejects requests without a live session, answering with msg.
func (h *Handler) requireAuth(msg string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c, err := r.Cookie(sessionCookie)
			if err != nil || c.Value == "" {
				writeError(w, http.StatusUnauthorized, msg, "/login")
				return
			}
			claims, err := h.Sessions.Parse(r.Context(), c.Value)
			if errors.Is(err, session.ErrInvalidSession) {
				writeError(w, http.StatusUnauthorized, msg, "/login")
				return
			}
			if err != nil {
				h.internalError(w, r, err, "Please try again.", "/login")
				return
			}
			uid, err := store.ParseUserID(claims.UserID)
			if err != nil {
				writeError(w, http.StatusUnauthorized, msg, "/login")
				return
			}
			next.ServeHTTP(w, r.WithContext(withUser(r.Context(), uid)))
		})
	}
}

type credentials struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// readCredentials accepts a JSON body or a classic form post.
func readCredentials(r *http.Request) (credentials, error) {
	var c credentials
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if ct == "application/json" {
		err := json.NewDecoder(r.Body).Decode(&c)
		return c, err
	}
	if err := r.ParseForm(); err != nil {
		return c, err
	}
	c.Name = r.PostFormValue("name")
	c.Email = r.PostFormValue("email")
	c.Password = r.PostFormValue("password")
	return c, nil
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	in, err := readCredentials(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", "/register")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	u, err := h.Identity.Register(ctx, identity.RegisterInput{Name: in.Name, Email: in.Email, Password: in.Password})
	switch {
	case err == nil:
	case errors.Is(err, identity.ErrDuplicateEmail):
		writeError(w, http.StatusConflict, "Email already registered", "/register")
		return
	case errors.Is(err, identity.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error(), "/register")
		return
	default:
		h.internalError(w, r, err, "Error during registration", "/register")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message":  "Registration successful! Please login.",
		"redirect": "/login",
		"user":     u,
	})
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	in, err := readCredentials(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", "/login")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	u, err := h.Identity.Authenticate(ctx, in.Email, in.Password)
	if errors.Is(err, identity.ErrInvalidCredentials) {
		writeError(w, http.StatusUnauthorized, "Invalid credentials", "/login")
		return
	}
	if err != nil {
		h.internalError(w, r, err, "Error during login", "/login")
		return
	}

	token, exp, err := h.Sessions.Issue(ctx, string(u.ID))
	if err != nil {
		h.internalError(w, r, err, "Error during login", "/login")
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  exp,
		HttpOnly: true,
		Secure:   h.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, map[string]any{
		"message":  "Login successful!",
		"redirect": "/",
		"user":     u,
	})
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(sessionCookie); err == nil && c.Value != "" {
		if err := h.Sessions.Revoke(r.Context(), c.Value); err != nil {
			h.log().WithError(err).Warn("session revoke failed")
		}
	}
	h.clearSession(w)
	writeJSON(w, http.StatusOK, view{Message: "Logged out successfully", Redirect: "/"})
}

func (h *Handler) clearSession(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	u, err := h.Identity.User(r.Context(), currentUser(r.Context()))
	if errors.Is(err, identity.ErrUserNotFound) {
		writeError(w, http.StatusUnauthorized, "Please login to continue", "/login")
		return
	}
	if err != nil {
		h.internalError(w, r, err, "Please try again.", "/")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": u})
}
