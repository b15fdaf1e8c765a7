package enrollment

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// countingStore tracks how often the reconciler touches the store.
type countingStore struct {
	*repoMock
	finds   int
	creates int
	deletes int
}

func (c *countingStore) FindPayment(ctx context.Context, userID, courseID int) (*Payment, error) {
	c.finds++
	return c.repoMock.FindPayment(ctx, userID, courseID)
}

func (c *countingStore) CreatePayment(ctx context.Context, userID, courseID int) (*Payment, error) {
	c.creates++
	return c.repoMock.CreatePayment(ctx, userID, courseID)
}

func (c *countingStore) DeletePayment(ctx context.Context, paymentID int) error {
	c.deletes++
	return c.repoMock.DeletePayment(ctx, paymentID)
}

func seedPayments(t *testing.T, repo *repoMock, userID int, courseIDs ...int) {
	t.Helper()
	for _, courseID := range courseIDs {
		_, err := repo.CreatePayment(context.Background(), userID, courseID)
		require.NoError(t, err)
	}
}

func TestReconcile_EmptyDiffTouchesStoreZeroTimes(t *testing.T) {
	store := &countingStore{repoMock: newRepoMock()}
	seedPayments(t, store.repoMock, 1, 1, 2)

	reconciler := NewReconciler(store)
	result, err := reconciler.Reconcile(context.Background(), 1, []int{1, 2}, []int{2, 1})
	require.NoError(t, err)

	assert.Empty(t, result.Added)
	assert.Empty(t, result.Removed)
	assert.Empty(t, result.Failed)
	assert.Zero(t, store.finds)
	assert.Zero(t, store.creates)
	assert.Zero(t, store.deletes)
}

func TestReconcile_AddsMissingCourse(t *testing.T) {
	repo := newRepoMock()
	seedPayments(t, repo, 1, 1, 2)

	reconciler := NewReconciler(repo)
	result, err := reconciler.Reconcile(context.Background(), 1, []int{1, 2}, []int{1, 2, 3})
	require.NoError(t, err)

	assert.Equal(t, []int{3}, result.Added)
	assert.Empty(t, result.Removed)
	assert.Equal(t, map[int]bool{1: true, 2: true, 3: true}, repo.userCourseIDs(1))
}

func TestReconcile_RemovesExtraCourses(t *testing.T) {
	repo := newRepoMock()
	seedPayments(t, repo, 1, 1, 2, 3)

	reconciler := NewReconciler(repo)
	result, err := reconciler.Reconcile(context.Background(), 1, []int{1, 2, 3}, []int{1})
	require.NoError(t, err)

	assert.Empty(t, result.Added)
	assert.Equal(t, []int{2, 3}, result.Removed)
	assert.Equal(t, map[int]bool{1: true}, repo.userCourseIDs(1))
}

func TestReconcile_Convergence(t *testing.T) {
	repo := newRepoMock()
	reconciler := NewReconciler(repo)
	ctx := context.Background()

	_, err := reconciler.Reconcile(ctx, 1, nil, []int{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, map[int]bool{1: true, 2: true, 3: true}, repo.userCourseIDs(1))

	_, err = reconciler.Reconcile(ctx, 1, []int{1, 2, 3}, []int{2, 4})
	require.NoError(t, err)
	assert.Equal(t, map[int]bool{2: true, 4: true}, repo.userCourseIDs(1))

	// back to where we started
	_, err = reconciler.Reconcile(ctx, 1, []int{2, 4}, []int{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, map[int]bool{1: true, 2: true, 3: true}, repo.userCourseIDs(1))
}

func TestReconcile_DuplicateTargetIDsCollapse(t *testing.T) {
	repo := newRepoMock()
	reconciler := NewReconciler(repo)

	result, err := reconciler.Reconcile(context.Background(), 1, nil, []int{3, 3, 3})
	require.NoError(t, err)

	assert.Equal(t, []int{3}, result.Added)
	require.Len(t, repo.payments, 1)
}

func TestReconcile_AddAlreadyEnrolledIsSuccess(t *testing.T) {
	repo := newRepoMock()
	seedPayments(t, repo, 1, 5)

	// current says empty, but the row exists, a concurrent caller won
	reconciler := NewReconciler(repo)
	result, err := reconciler.Reconcile(context.Background(), 1, nil, []int{5})
	require.NoError(t, err)

	assert.Equal(t, []int{5}, result.Added)
	require.Len(t, repo.payments, 1)
}

func TestReconcile_RemoveMissingIsSuccess(t *testing.T) {
	repo := newRepoMock()

	reconciler := NewReconciler(repo)
	result, err := reconciler.Reconcile(context.Background(), 1, []int{7}, nil)
	require.NoError(t, err)

	assert.Equal(t, []int{7}, result.Removed)
	assert.Empty(t, result.Failed)
}

func TestReconcile_PartialFailure(t *testing.T) {
	repo := newRepoMock()
	seedPayments(t, repo, 1, 1)
	repo.createErr[2] = errors.New("create boom")

	reconciler := NewReconciler(repo)
	result, err := reconciler.Reconcile(context.Background(), 1, []int{1}, []int{2, 3})
	require.Error(t, err)

	var partial *PartialFailure
	require.ErrorAs(t, err, &partial)
	require.Len(t, partial.Failures, 1)
	assert.Equal(t, 2, partial.Failures[0].CourseID)
	assert.Equal(t, OpAdd, partial.Failures[0].Op)
	assert.Contains(t, partial.Error(), "course 2 add")

	// the other operations went through
	assert.Equal(t, []int{3}, result.Added)
	assert.Equal(t, []int{1}, result.Removed)
	assert.Equal(t, map[int]bool{3: true}, repo.userCourseIDs(1))
}

func TestReconcile_RemoveFailureReported(t *testing.T) {
	repo := newRepoMock()
	seedPayments(t, repo, 1, 1, 2)
	repo.deleteErr[1] = errors.New("delete boom")

	reconciler := NewReconciler(repo)
	result, err := reconciler.Reconcile(context.Background(), 1, []int{1, 2}, nil)

	var partial *PartialFailure
	require.ErrorAs(t, err, &partial)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, 1, result.Failed[0].CourseID)
	assert.Equal(t, OpRemove, result.Failed[0].Op)
	assert.Equal(t, []int{2}, result.Removed)
	assert.Equal(t, map[int]bool{1: true}, repo.userCourseIDs(1))
}

func TestReconcile_ConcurrentAddsConvergeToOneRow(t *testing.T) {
	repo := newRepoMock()
	reconciler := NewReconciler(repo)

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := reconciler.Reconcile(context.Background(), 1, nil, []int{9})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	// losing the create race counts as success, one row remains
	for err := range errs {
		require.NoError(t, err)
	}
	require.Len(t, repo.payments, 1)
	assert.Equal(t, map[int]bool{9: true}, repo.userCourseIDs(1))
}

func TestReconcile_FindErrorWrapped(t *testing.T) {
	repo := newRepoMock()
	storeErr := errors.New("conn refused")
	repo.findErr[4] = storeErr

	reconciler := NewReconciler(repo)
	_, err := reconciler.Reconcile(context.Background(), 1, nil, []int{4})

	var partial *PartialFailure
	require.ErrorAs(t, err, &partial)
	require.Len(t, partial.Failures, 1)
	assert.ErrorIs(t, partial.Failures[0].Err, storeErr)
}
