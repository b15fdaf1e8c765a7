package enrollment

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/mjovanovic/courseadmin/pkg"

	"go.uber.org/multierr"
)

type Op string

const (
	OpAdd    Op = "add"
	OpRemove Op = "remove"
)

// CourseFailure is one failed per-course operation during a reconcile.
type CourseFailure struct {
	CourseID int
	Op       Op
	Err      error
}

// Result reports which course enrollments actually changed, so the
// caller can reconcile its optimistic UI per item.
type Result struct {
	Added   []int
	Removed []int
	Failed  []CourseFailure
}

// PartialFailure is returned when some per-course operations failed
// while others succeeded. Succeeded operations are not rolled back,
// enrollment is reconciled per (user, course) pair and never as one
// multi-item transaction.
type PartialFailure struct {
	Failures []CourseFailure
}

func (pf *PartialFailure) Error() string {
	var combined error
	for _, f := range pf.Failures {
		combined = multierr.Append(combined, fmt.Errorf("course %d %s: %w", f.CourseID, f.Op, f.Err))
	}
	return fmt.Sprintf("enrollment reconcile partially failed: %s", combined)
}

type paymentStore interface {
	FindPayment(ctx context.Context, userID, courseID int) (*Payment, error)
	CreatePayment(ctx context.Context, userID, courseID int) (*Payment, error)
	DeletePayment(ctx context.Context, paymentID int) error
}

// Reconciler converts a target enrollment selection into the minimal
// set of payment row creates/deletes against the current selection.
type Reconciler struct {
	store paymentStore
}

func NewReconciler(store paymentStore) *Reconciler {
	return &Reconciler{
		store: store,
	}
}

// Reconcile diffs target against current and applies the diff. Both
// inputs are treated as sets: order is irrelevant, duplicates collapse.
// An empty diff touches the store zero times. Each course id is
// reconciled independently; per-id failures are collected into a
// PartialFailure while the rest proceed.
func (r *Reconciler) Reconcile(ctx context.Context, userID int, current, target []int) (*Result, error) {
	currentSet := toSet(current)
	targetSet := toSet(target)

	var toAdd, toRemove []int
	for courseID := range targetSet {
		if !currentSet[courseID] {
			toAdd = append(toAdd, courseID)
		}
	}
	for courseID := range currentSet {
		if !targetSet[courseID] {
			toRemove = append(toRemove, courseID)
		}
	}

	result := &Result{}
	if len(toAdd) == 0 && len(toRemove) == 0 {
		return result, nil
	}

	// stable order for logs and deterministic failure reporting
	sort.Ints(toAdd)
	sort.Ints(toRemove)

	for _, courseID := range toAdd {
		if err := r.addOne(ctx, userID, courseID); err != nil {
			result.Failed = append(result.Failed, CourseFailure{CourseID: courseID, Op: OpAdd, Err: err})
			continue
		}
		result.Added = append(result.Added, courseID)
	}

	for _, courseID := range toRemove {
		if err := r.removeOne(ctx, userID, courseID); err != nil {
			result.Failed = append(result.Failed, CourseFailure{CourseID: courseID, Op: OpRemove, Err: err})
			continue
		}
		result.Removed = append(result.Removed, courseID)
	}

	if len(result.Failed) > 0 {
		return result, &PartialFailure{Failures: result.Failed}
	}

	return result, nil
}

func (r *Reconciler) addOne(ctx context.Context, userID, courseID int) error {
	_, err := r.store.FindPayment(ctx, userID, courseID)
	if err == nil {
		// a concurrent caller already enrolled this pair, treat as success
		return nil
	}
	if !errors.Is(err, ErrPaymentNotFound) {
		return fmt.Errorf("find payment: %w", err)
	}

	if _, err := r.store.CreatePayment(ctx, userID, courseID); err != nil {
		if pkg.IsUniqueViolationError(err) {
			// lost the create race, the row exists now, which is what we wanted
			return nil
		}
		return fmt.Errorf("create payment: %w", err)
	}

	return nil
}

func (r *Reconciler) removeOne(ctx context.Context, userID, courseID int) error {
	payment, err := r.store.FindPayment(ctx, userID, courseID)
	if errors.Is(err, ErrPaymentNotFound) {
		// already gone, treat as success
		return nil
	}
	if err != nil {
		return fmt.Errorf("find payment: %w", err)
	}

	if err := r.store.DeletePayment(ctx, payment.ID); err != nil {
		if errors.Is(err, ErrPaymentNotFound) {
			return nil
		}
		return fmt.Errorf("delete payment: %w", err)
	}

	return nil
}

func toSet(ids []int) map[int]bool {
	set := make(map[int]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
