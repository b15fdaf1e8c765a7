package enrollment

import (
	"context"
	"sync"

	"github.com/jackc/pgx/v5/pgconn"
)

// repoMock is an in-memory enrollment store used in unit tests. It
// enforces the same (user_id, course_id) uniqueness the real table
// does, surfacing the violation as a pg unique-violation error.
type repoMock struct {
	mu       sync.Mutex
	nextID   int
	payments map[int]*Payment // by payment id

	// error injection, keyed by course id
	findErr   map[int]error
	createErr map[int]error
	deleteErr map[int]error
}

func newRepoMock() *repoMock {
	return &repoMock{
		nextID:    1,
		payments:  make(map[int]*Payment),
		findErr:   make(map[int]error),
		createErr: make(map[int]error),
		deleteErr: make(map[int]error),
	}
}

func (r *repoMock) FindPayment(_ context.Context, userID, courseID int) (*Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.findErr[courseID]; err != nil {
		return nil, err
	}

	for _, payment := range r.payments {
		if payment.UserID == userID && payment.CourseID == courseID {
			p := *payment
			return &p, nil
		}
	}
	return nil, ErrPaymentNotFound
}

func (r *repoMock) CreatePayment(_ context.Context, userID, courseID int) (*Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.createErr[courseID]; err != nil {
		return nil, err
	}

	for _, payment := range r.payments {
		if payment.UserID == userID && payment.CourseID == courseID {
			return nil, &pgconn.PgError{Code: "23505"}
		}
	}

	payment := &Payment{
		ID:       r.nextID,
		UserID:   userID,
		CourseID: courseID,
	}
	r.nextID++
	r.payments[payment.ID] = payment

	p := *payment
	return &p, nil
}

func (r *repoMock) DeletePayment(_ context.Context, paymentID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	payment, ok := r.payments[paymentID]
	if !ok {
		return ErrPaymentNotFound
	}
	if err := r.deleteErr[payment.CourseID]; err != nil {
		return err
	}

	delete(r.payments, paymentID)
	return nil
}

func (r *repoMock) ListPaymentsForUser(_ context.Context, userID int) ([]Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var payments []Payment
	for _, payment := range r.payments {
		if payment.UserID == userID {
			payments = append(payments, *payment)
		}
	}
	return payments, nil
}

func (r *repoMock) userCourseIDs(userID int) map[int]bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make(map[int]bool)
	for _, payment := range r.payments {
		if payment.UserID == userID {
			ids[payment.CourseID] = true
		}
	}
	return ids
}
