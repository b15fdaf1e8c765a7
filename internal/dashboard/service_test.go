package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/mjovanovic/courseadmin/internal/enrollment"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type listerMock struct {
	users    []enrollment.User
	courses  []enrollment.Course
	payments []enrollment.Payment

	listUsersErr error
	listCalls    int
}

func (l *listerMock) ListUsers(_ context.Context) ([]enrollment.User, error) {
	l.listCalls++
	if l.listUsersErr != nil {
		return nil, l.listUsersErr
	}
	return l.users, nil
}

func (l *listerMock) ListCourses(_ context.Context) ([]enrollment.Course, error) {
	return l.courses, nil
}

func (l *listerMock) ListPayments(_ context.Context) ([]enrollment.Payment, error) {
	return l.payments, nil
}

func newListerMock() *listerMock {
	return &listerMock{
		users: []enrollment.User{
			{TelegramID: 100, Username: "ana", Name: "Ana", IsAccepted: true},
			{TelegramID: 200, Username: "bojan", Name: "Bojan", IsAccepted: false},
		},
		courses: []enrollment.Course{
			{ID: 1, Title: "Course One", GroupID: "-1000"},
			{ID: 2, Title: "Course Two", GroupID: "-2000"},
		},
		payments: []enrollment.Payment{
			{ID: 1, UserID: 100, CourseID: 1},
			{ID: 2, UserID: 200, CourseID: 2, IsInvited: true},
		},
	}
}

func TestDataJSON(t *testing.T) {
	store := newListerMock()
	service := NewService(store, time.Minute)

	dataBytes, err := service.DataJSON(context.Background())
	require.NoError(t, err)

	var data Data
	require.NoError(t, json.Unmarshal(dataBytes, &data))
	require.Len(t, data.Users, 2)
	require.Len(t, data.Courses, 2)

	ana := data.Users[0]
	assert.Equal(t, 100, ana.TelegramID)
	require.Len(t, ana.Courses, 2)
	assert.True(t, ana.Courses[0].Paid)
	assert.False(t, ana.Courses[1].Paid)

	bojan := data.Users[1]
	assert.False(t, bojan.Courses[0].Paid)
	assert.True(t, bojan.Courses[1].Paid)
}

func TestDataJSON_Cached(t *testing.T) {
	store := newListerMock()
	service := NewService(store, time.Minute)
	ctx := context.Background()

	first, err := service.DataJSON(ctx)
	require.NoError(t, err)
	second, err := service.DataJSON(ctx)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, store.listCalls)
}

func TestDataJSON_InvalidateForcesRefresh(t *testing.T) {
	store := newListerMock()
	service := NewService(store, time.Minute)
	ctx := context.Background()

	_, err := service.DataJSON(ctx)
	require.NoError(t, err)

	service.Invalidate()

	_, err = service.DataJSON(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, store.listCalls)
}

func TestDataJSON_ManyUsers(t *testing.T) {
	store := &listerMock{}
	for i := 0; i < 100; i++ {
		store.users = append(store.users, enrollment.User{
			TelegramID: 1000 + i,
			Username:   gofakeit.Username(),
			Name:       gofakeit.Name(),
			IsAccepted: gofakeit.Bool(),
		})
	}
	for i := 1; i <= 10; i++ {
		store.courses = append(store.courses, enrollment.Course{
			ID:      i,
			Title:   gofakeit.BookTitle(),
			GroupID: gofakeit.DigitN(10),
		})
	}
	// every user pays for one random course
	for i, user := range store.users {
		store.payments = append(store.payments, enrollment.Payment{
			ID:       i + 1,
			UserID:   user.TelegramID,
			CourseID: gofakeit.Number(1, 10),
		})
	}

	service := NewService(store, time.Minute)
	dataBytes, err := service.DataJSON(context.Background())
	require.NoError(t, err)

	var data Data
	require.NoError(t, json.Unmarshal(dataBytes, &data))
	require.Len(t, data.Users, 100)
	for _, row := range data.Users {
		require.Len(t, row.Courses, 10)
		paid := 0
		for _, course := range row.Courses {
			if course.Paid {
				paid++
			}
		}
		assert.Equal(t, 1, paid)
	}
}

func TestDataJSON_StoreError(t *testing.T) {
	store := newListerMock()
	store.listUsersErr = errors.New("conn refused")
	service := NewService(store, time.Minute)

	_, err := service.DataJSON(context.Background())
	require.ErrorIs(t, err, store.listUsersErr)
}
