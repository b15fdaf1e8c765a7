package dashboard

import (
	"net/http"

	"github.com/mjovanovic/courseadmin/internal/telemetry/tracing"
	"github.com/mjovanovic/courseadmin/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/codes"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service: service,
	}
}

func (handler *Handler) SetupRoutes(mainRouter *mux.Router) {
	mainRouter.
		HandleFunc("/dashboard", handler.handleGetData).
		Methods("GET", "OPTIONS").Name("dashboard")
}

func (handler *Handler) handleGetData(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "dashboardHandler.getData")
	defer span.End()

	if r.Method == http.MethodOptions {
		w.Header().Add("Allow", "GET, OPTIONS")
		w.WriteHeader(http.StatusOK)
		return
	}

	dataBytes, err := handler.service.DataJSON(ctx)
	if err != nil {
		log.Errorf("get dashboard data: %s", err)
		span.SetStatus(codes.Error, "internal-error")
		span.RecordError(err)
		http.Error(w, "failed to get dashboard data", http.StatusInternalServerError)
		return
	}

	span.SetStatus(codes.Ok, "ok")
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, dataBytes)
}
