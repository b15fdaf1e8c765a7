package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mjovanovic/courseadmin/internal/enrollment"

	"github.com/coocood/freecache"
	log "github.com/sirupsen/logrus"
)

const (
	cacheSizeBytes = 10 * 1024 * 1024
	cacheKey       = "dashboard-data"
)

type enrollmentLister interface {
	ListUsers(ctx context.Context) ([]enrollment.User, error)
	ListCourses(ctx context.Context) ([]enrollment.Course, error)
	ListPayments(ctx context.Context) ([]enrollment.Payment, error)
}

// CourseStatus is a course annotated with whether a given user paid it.
type CourseStatus struct {
	enrollment.Course
	Paid bool `json:"paid"`
}

// UserRow is one dashboard table row: a user plus their per-course
// enrollment status across all courses.
type UserRow struct {
	enrollment.User
	Courses []CourseStatus `json:"courses"`
}

type Data struct {
	Users   []UserRow           `json:"users"`
	Courses []enrollment.Course `json:"courses"`
}

// Service composes the main dashboard view out of users, courses and
// payments, with a short lived cache in front of the three queries.
type Service struct {
	store    enrollmentLister
	cache    *freecache.Cache
	cacheTTL time.Duration
}

func NewService(store enrollmentLister, cacheTTL time.Duration) *Service {
	return &Service{
		store:    store,
		cache:    freecache.NewCache(cacheSizeBytes),
		cacheTTL: cacheTTL,
	}
}

// DataJSON returns the marshaled dashboard data, served from cache
// when a fresh enough copy exists.
func (s *Service) DataJSON(ctx context.Context) ([]byte, error) {
	if cached, err := s.cache.Get([]byte(cacheKey)); err == nil {
		log.Traceln("dashboard data served from cache")
		return cached, nil
	}

	data, err := s.compose(ctx)
	if err != nil {
		return nil, err
	}

	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshal dashboard data: %w", err)
	}

	if err := s.cache.Set([]byte(cacheKey), dataBytes, int(s.cacheTTL.Seconds())); err != nil {
		// serve fresh data anyway
		log.Errorf("cache dashboard data: %s", err)
	}

	return dataBytes, nil
}

// Invalidate drops the cached dashboard copy. Called after enrollment
// changes so admins see the new state immediately.
func (s *Service) Invalidate() {
	s.cache.Del([]byte(cacheKey))
}

func (s *Service) compose(ctx context.Context) (*Data, error) {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	courses, err := s.store.ListCourses(ctx)
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	payments, err := s.store.ListPayments(ctx)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}

	paidCourses := make(map[int]map[int]bool, len(users)) // user id -> course ids
	for _, payment := range payments {
		if paidCourses[payment.UserID] == nil {
			paidCourses[payment.UserID] = make(map[int]bool)
		}
		paidCourses[payment.UserID][payment.CourseID] = true
	}

	rows := make([]UserRow, 0, len(users))
	for _, user := range users {
		row := UserRow{
			User:    user,
			Courses: make([]CourseStatus, 0, len(courses)),
		}
		for _, course := range courses {
			row.Courses = append(row.Courses, CourseStatus{
				Course: course,
				Paid:   paidCourses[user.TelegramID][course.ID],
			})
		}
		rows = append(rows, row)
	}

	return &Data{
		Users:   rows,
		Courses: courses,
	}, nil
}
