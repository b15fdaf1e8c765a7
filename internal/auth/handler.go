package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mjovanovic/courseadmin/internal/middleware"
	"github.com/mjovanovic/courseadmin/internal/telemetry/metrics"
	"github.com/mjovanovic/courseadmin/internal/telemetry/tracing"
	"github.com/mjovanovic/courseadmin/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/codes"
)

type Handler struct {
	service *Service
	metrics *metrics.Manager
}

func NewHandler(service *Service, metricsManager *metrics.Manager) *Handler {
	return &Handler{
		service: service,
		metrics: metricsManager,
	}
}

func (handler *Handler) SetupRoutes(
	mainRouter *mux.Router,
	rateLimiter middleware.RequestRateLimiter,
	signInAllowedPerMin int,
) {
	authSubrouter := mainRouter.PathPrefix("/a").Subrouter()
	authSubrouter.
		HandleFunc("/signin", handler.handleSignIn).
		Methods("POST", "OPTIONS").Name("signin")
	authSubrouter.
		HandleFunc("/signout", handler.handleSignOut).
		Methods("GET", "OPTIONS").Name("signout")
	authSubrouter.
		HandleFunc("/check", handler.handleCheck).
		Methods("GET", "OPTIONS").Name("auth-check")

	// rate limit the sign-in endpoints to slow down credential guessing
	authSubrouter.Use(middleware.RateLimit(rateLimiter, "signin", signInAllowedPerMin))
}

func (handler *Handler) handleSignIn(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "authHandler.signIn")
	defer span.End()

	if r.Method == http.MethodOptions {
		w.Header().Add("Allow", "POST, OPTIONS")
		w.WriteHeader(http.StatusOK)
		return
	}

	type signInRequest struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	var signInReq signInRequest
	if r.Header.Get("Content-Type") == "application/json" {
		if err := json.NewDecoder(r.Body).Decode(&signInReq); err != nil {
			log.Errorf("sign in, unmarshal json params: %s", err)
			http.Error(w, "sign in failed", http.StatusBadRequest)
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			log.Errorf("sign in failed, parse form error: %s", err)
			http.Error(w, "parse form error", http.StatusInternalServerError)
			return
		}
		signInReq = signInRequest{
			Email:    r.Form.Get("email"),
			Password: r.Form.Get("password"),
		}
	}

	err := handler.service.SignIn(ctx, w, signInReq.Email, signInReq.Password)
	switch {
	case err == nil:
		log.Tracef("new sign in success: %s", signInReq.Email)
		handler.metrics.CounterSignInSuccess.Inc()
		span.SetStatus(codes.Ok, "ok")
		pkg.WriteJSONResponseOK(w, `{"signedIn": true}`)
	case errors.Is(err, ErrInvalidInput):
		handler.metrics.CounterSignInFailure.Inc()
		span.SetStatus(codes.Error, "invalid-input")
		http.Error(w, "error, invalid email or password format", http.StatusBadRequest)
	case errors.Is(err, ErrWrongCredentials):
		// same message for unknown email and wrong password
		reqIp, _ := pkg.ReadUserIP(r)
		log.Tracef("failed sign in attempt for [%s] from [%s]", signInReq.Email, reqIp)
		handler.metrics.CounterSignInFailure.Inc()
		span.SetStatus(codes.Error, "wrong-credentials")
		http.Error(w, "error, wrong credentials", http.StatusBadRequest)
	default:
		log.Errorf("sign in failed, internal error: %s", err)
		handler.metrics.CounterSignInFailure.Inc()
		span.SetStatus(codes.Error, "internal-error")
		span.RecordError(err)
		http.Error(w, "sign in failed, please try again", http.StatusInternalServerError)
	}
}

func (handler *Handler) handleSignOut(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "authHandler.signOut")
	defer span.End()

	if r.Method == http.MethodOptions {
		w.Header().Add("Allow", "GET, OPTIONS")
		w.WriteHeader(http.StatusOK)
		return
	}

	// the cookie is cleared regardless of whether it held a valid token
	handler.service.SignOut(w)

	span.SetStatus(codes.Ok, "ok")
	pkg.WriteTextResponseOK(w, "signed-out")
}

func (handler *Handler) handleCheck(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.Header().Add("Allow", "GET, OPTIONS")
		w.WriteHeader(http.StatusOK)
		return
	}

	if handler.service.IsAuthenticated(r) {
		pkg.WriteJSONResponseOK(w, `{"authenticated": true}`)
		return
	}
	pkg.WriteJSONResponseOK(w, `{"authenticated": false}`)
}
