package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mjovanovic/courseadmin/internal/middleware"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
)

func TestAuthMiddlewareHandler_AuthCheck(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockSessionChecker := NewMocksessionChecker(ctrl)
	authMiddleware := middleware.NewAuthMiddlewareHandler(mockSessionChecker)

	testCases := []struct {
		name               string
		path               string
		method             string
		authenticated      bool
		checkSession       bool
		expectedStatusCode int
	}{
		{
			name:               "SignInWithoutSession",
			path:               "/a/signin",
			method:             "POST",
			expectedStatusCode: http.StatusOK,
		},
		{
			name:               "AuthCheckWithoutSession",
			path:               "/a/check",
			method:             "GET",
			expectedStatusCode: http.StatusOK,
		},
		{
			name:               "VersionWithoutSession",
			path:               "/version",
			method:             "GET",
			expectedStatusCode: http.StatusOK,
		},
		{
			name:               "DashboardWithoutSession",
			path:               "/dashboard",
			method:             "GET",
			checkSession:       true,
			authenticated:      false,
			expectedStatusCode: http.StatusUnauthorized,
		},
		{
			name:               "DashboardWithSession",
			path:               "/dashboard",
			method:             "GET",
			checkSession:       true,
			authenticated:      true,
			expectedStatusCode: http.StatusOK,
		},
		{
			name:               "EnrollmentUpdateWithoutSession",
			path:               "/enrollment/user/1/courses",
			method:             "PUT",
			checkSession:       true,
			authenticated:      false,
			expectedStatusCode: http.StatusUnauthorized,
		},
		{
			name:               "PreflightAlwaysPasses",
			path:               "/dashboard",
			method:             "OPTIONS",
			expectedStatusCode: http.StatusOK,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, nil)

			if tc.checkSession {
				mockSessionChecker.EXPECT().
					IsAuthenticated(gomock.Any()).
					Return(tc.authenticated)
			}

			rr := httptest.NewRecorder()
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
			authMiddleware.AuthCheck()(handler).ServeHTTP(rr, req)

			assert.Equal(t, tc.expectedStatusCode, rr.Code)
		})
	}
}
