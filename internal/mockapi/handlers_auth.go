package mockapi

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/odyssey-erp/sealion/internal/auth"
	"github.com/odyssey-erp/sealion/internal/platform/httpx"
	"github.com/odyssey-erp/sealion/internal/platform/validate"
)

type refreshForm struct {
	Refresh string `json:"refresh" validate:"required"`
}

func decodeCredentials(r *http.Request) (auth.Credentials, error) {
	var creds auth.Credentials
	if err := httpx.DecodeJSON(r, &creds); err != nil {
		return creds, errMalformedJSON
	}
	creds.Username = strings.TrimSpace(creds.Username)
	if err := validate.Struct(creds); err != nil {
		return creds, err
	}
	return creds, nil
}

func (s *Server) obtainToken(w http.ResponseWriter, r *http.Request) {
	creds, err := decodeCredentials(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	user, err := s.store.Authenticate(creds.Username, creds.Password)
	if err != nil {
		s.logger.Info("login rejected", slog.String("username", creds.Username))
		httpx.Detail(w, http.StatusUnauthorized, "No active account found with the given credentials")
		return
	}
	access, refresh, err := s.tokens.Pair(user)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"access": access, "refresh": refresh})
}

func (s *Server) refreshToken(w http.ResponseWriter, r *http.Request) {
	var form refreshForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		s.fail(w, r, errMalformedJSON)
		return
	}
	if err := validate.Struct(form); err != nil {
		s.fail(w, r, err)
		return
	}
	user, err := s.tokens.Parse(form.Refresh, tokenTypeRefresh)
	if err != nil || !s.store.UserActive(user.Username) {
		httpx.JSON(w, http.StatusUnauthorized, map[string]string{
			"detail": "Token is invalid or expired",
			"code":   "token_not_valid",
		})
		return
	}
	access, err := s.tokens.Access(user)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"access": access})
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	creds, err := decodeCredentials(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	user, err := s.store.CreateUser(creds.Username, creds.Password)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.logger.Info("user registered", slog.String("username", user.Username))
	httpx.JSON(w, http.StatusCreated, user)
}
