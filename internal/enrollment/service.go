package enrollment

import (
	"context"
	"errors"
	"fmt"
)

type enrollmentStore interface {
	paymentStore
	ListPaymentsForUser(ctx context.Context, userID int) ([]Payment, error)
}

// Service exposes the enrollment operations consumed by the HTTP layer.
type Service struct {
	store      enrollmentStore
	reconciler *Reconciler
}

func NewService(store enrollmentStore) *Service {
	return &Service{
		store:      store,
		reconciler: NewReconciler(store),
	}
}

// SetEnrollments reconciles the user's current enrollment set against
// the requested target set of course ids.
func (s *Service) SetEnrollments(ctx context.Context, userID int, targetCourseIDs []int) (*Result, error) {
	payments, err := s.store.ListPaymentsForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}

	current := make([]int, 0, len(payments))
	for _, payment := range payments {
		current = append(current, payment.CourseID)
	}

	return s.reconciler.Reconcile(ctx, userID, current, targetCourseIDs)
}

// Toggle flips the enrollment of a single (user, course) pair and
// reports which way it flipped.
func (s *Service) Toggle(ctx context.Context, userID, courseID int) (Op, error) {
	_, err := s.store.FindPayment(ctx, userID, courseID)
	switch {
	case err == nil:
		if _, err := s.reconciler.Reconcile(ctx, userID, []int{courseID}, nil); err != nil {
			return "", err
		}
		return OpRemove, nil
	case errors.Is(err, ErrPaymentNotFound):
		if _, err := s.reconciler.Reconcile(ctx, userID, nil, []int{courseID}); err != nil {
			return "", err
		}
		return OpAdd, nil
	default:
		return "", fmt.Errorf("find payment: %w", err)
	}
}
