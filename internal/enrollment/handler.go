package enrollment

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/mjovanovic/courseadmin/internal/telemetry/metrics"
	"github.com/mjovanovic/courseadmin/internal/telemetry/tracing"
	"github.com/mjovanovic/courseadmin/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/codes"
)

// cacheInvalidator drops cached dashboard data after enrollments change.
type cacheInvalidator interface {
	Invalidate()
}

type Handler struct {
	service   *Service
	metrics   *metrics.Manager
	dashCache cacheInvalidator
}

func NewHandler(service *Service, metricsManager *metrics.Manager, dashCache cacheInvalidator) *Handler {
	return &Handler{
		service:   service,
		metrics:   metricsManager,
		dashCache: dashCache,
	}
}

func (handler *Handler) SetupRoutes(mainRouter *mux.Router) {
	enrollmentRouter := mainRouter.PathPrefix("/enrollment").Subrouter()
	enrollmentRouter.
		HandleFunc("/user/{id}/courses", handler.handleSetEnrollments).
		Methods("PUT", "OPTIONS").Name("set-enrollments")
	enrollmentRouter.
		HandleFunc("/user/{id}/course/{courseId}/toggle", handler.handleToggle).
		Methods("POST", "OPTIONS").Name("toggle-enrollment")
}

type courseFailureJSON struct {
	CourseID int    `json:"courseId"`
	Op       string `json:"op"`
	Error    string `json:"error"`
}

type reconcileResponse struct {
	Added   []int               `json:"added"`
	Removed []int               `json:"removed"`
	Failed  []courseFailureJSON `json:"failed"`
}

func (handler *Handler) handleSetEnrollments(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "enrollmentHandler.setEnrollments")
	defer span.End()

	if r.Method == http.MethodOptions {
		w.Header().Add("Allow", "PUT, OPTIONS")
		w.WriteHeader(http.StatusOK)
		return
	}

	vars := mux.Vars(r)
	userID, err := strconv.Atoi(vars["id"])
	if err != nil {
		span.SetStatus(codes.Error, "invalid-user-id")
		http.Error(w, "error, invalid user id", http.StatusBadRequest)
		return
	}

	type setEnrollmentsRequest struct {
		CourseIDs []int `json:"courseIds"`
	}

	var setReq setEnrollmentsRequest
	if err := json.NewDecoder(r.Body).Decode(&setReq); err != nil {
		log.Errorf("set enrollments, unmarshal json params: %s", err)
		span.SetStatus(codes.Error, "invalid-body")
		http.Error(w, "error, invalid request body", http.StatusBadRequest)
		return
	}

	result, err := handler.service.SetEnrollments(ctx, userID, setReq.CourseIDs)

	var partial *PartialFailure
	switch {
	case err == nil:
		span.SetStatus(codes.Ok, "ok")
	case errors.As(err, &partial):
		// succeeded operations are kept, report the rest per course id
		log.Errorf("set enrollments for user %d: %s", userID, partial)
		span.SetStatus(codes.Error, "partial-failure")
		span.RecordError(partial)
	default:
		log.Errorf("set enrollments for user %d: %s", userID, err)
		span.SetStatus(codes.Error, "internal-error")
		span.RecordError(err)
		http.Error(w, "failed to update enrollments, please try again", http.StatusInternalServerError)
		return
	}

	handler.trackResult(userID, result)

	resp := reconcileResponse{
		Added:   result.Added,
		Removed: result.Removed,
		Failed:  []courseFailureJSON{},
	}
	if resp.Added == nil {
		resp.Added = []int{}
	}
	if resp.Removed == nil {
		resp.Removed = []int{}
	}
	for _, f := range result.Failed {
		resp.Failed = append(resp.Failed, courseFailureJSON{
			CourseID: f.CourseID,
			Op:       string(f.Op),
			Error:    f.Err.Error(),
		})
	}

	respBytes, err := json.Marshal(resp)
	if err != nil {
		log.Errorf("set enrollments, marshal response: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	status := http.StatusOK
	if len(resp.Failed) > 0 {
		status = http.StatusMultiStatus
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, respBytes, status)
}

func (handler *Handler) handleToggle(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "enrollmentHandler.toggle")
	defer span.End()

	if r.Method == http.MethodOptions {
		w.Header().Add("Allow", "POST, OPTIONS")
		w.WriteHeader(http.StatusOK)
		return
	}

	vars := mux.Vars(r)
	userID, err := strconv.Atoi(vars["id"])
	if err != nil {
		span.SetStatus(codes.Error, "invalid-user-id")
		http.Error(w, "error, invalid user id", http.StatusBadRequest)
		return
	}
	courseID, err := strconv.Atoi(vars["courseId"])
	if err != nil {
		span.SetStatus(codes.Error, "invalid-course-id")
		http.Error(w, "error, invalid course id", http.StatusBadRequest)
		return
	}

	op, err := handler.service.Toggle(ctx, userID, courseID)
	if err != nil {
		log.Errorf("toggle enrollment, user %d course %d: %s", userID, courseID, err)
		span.SetStatus(codes.Error, "internal-error")
		span.RecordError(err)
		http.Error(w, "failed to toggle enrollment, please try again", http.StatusInternalServerError)
		return
	}

	log.Tracef("enrollment toggled [%s] for user %d course %d", op, userID, courseID)
	switch op {
	case OpAdd:
		handler.metrics.CounterEnrollmentsAdded.Inc()
	case OpRemove:
		handler.metrics.CounterEnrollmentsRemoved.Inc()
	}
	if handler.dashCache != nil {
		handler.dashCache.Invalidate()
	}

	span.SetStatus(codes.Ok, "ok")
	pkg.WriteJSONResponseOK(w, `{"toggled": "`+string(op)+`"}`)
}

func (handler *Handler) trackResult(userID int, result *Result) {
	if len(result.Added) > 0 {
		handler.metrics.CounterEnrollmentsAdded.Add(float64(len(result.Added)))
	}
	if len(result.Removed) > 0 {
		handler.metrics.CounterEnrollmentsRemoved.Add(float64(len(result.Removed)))
	}
	if len(result.Failed) > 0 {
		handler.metrics.CounterReconcileFailures.Add(float64(len(result.Failed)))
	}
	if handler.dashCache != nil && (len(result.Added) > 0 || len(result.Removed) > 0) {
		handler.dashCache.Invalidate()
	}

	log.Tracef(
		"enrollments reconciled for user %d: %d added, %d removed, %d failed",
		userID, len(result.Added), len(result.Removed), len(result.Failed),
	)
}
