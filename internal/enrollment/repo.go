package enrollment

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrPaymentNotFound = errors.New("payment not found")

// Repo is the persistence boundary for users, courses and payments.
// The payment table carries a unique constraint on (user_id, course_id),
// the reconciler relies on it to converge racing toggles to one row.
type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

func (r *Repo) FindPayment(ctx context.Context, userID, courseID int) (*Payment, error) {
	rows, err := r.db.Query(
		ctx,
		`SELECT id, user_id, course_id, is_invited FROM payment WHERE user_id = $1 AND course_id = $2;`,
		userID, courseID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if !rows.Next() {
		return nil, ErrPaymentNotFound
	}

	var payment Payment
	if err := rows.Scan(&payment.ID, &payment.UserID, &payment.CourseID, &payment.IsInvited); err != nil {
		return nil, err
	}

	return &payment, nil
}

func (r *Repo) CreatePayment(ctx context.Context, userID, courseID int) (*Payment, error) {
	rows, err := r.db.Query(
		ctx,
		`INSERT INTO payment (user_id, course_id, is_invited) VALUES ($1, $2, false) RETURNING id;`,
		userID, courseID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if !rows.Next() {
		return nil, errors.New("unexpected error [no rows next]")
	}

	var id int
	if err := rows.Scan(&id); err != nil {
		return nil, err
	}

	return &Payment{
		ID:       id,
		UserID:   userID,
		CourseID: courseID,
	}, nil
}

func (r *Repo) DeletePayment(ctx context.Context, paymentID int) error {
	tag, err := r.db.Exec(
		ctx,
		`DELETE FROM payment WHERE id = $1;`,
		paymentID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPaymentNotFound
	}
	return nil
}

func (r *Repo) ListPaymentsForUser(ctx context.Context, userID int) ([]Payment, error) {
	rows, err := r.db.Query(
		ctx,
		`SELECT id, user_id, course_id, is_invited FROM payment WHERE user_id = $1;`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, err
	}

	var payments []Payment
	for rows.Next() {
		var payment Payment
		if err := rows.Scan(&payment.ID, &payment.UserID, &payment.CourseID, &payment.IsInvited); err != nil {
			return nil, err
		}
		payments = append(payments, payment)
	}

	return payments, nil
}

func (r *Repo) ListPayments(ctx context.Context) ([]Payment, error) {
	rows, err := r.db.Query(
		ctx,
		`SELECT id, user_id, course_id, is_invited FROM payment;`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, err
	}

	var payments []Payment
	for rows.Next() {
		var payment Payment
		if err := rows.Scan(&payment.ID, &payment.UserID, &payment.CourseID, &payment.IsInvited); err != nil {
			return nil, err
		}
		payments = append(payments, payment)
	}

	return payments, nil
}

func (r *Repo) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := r.db.Query(
		ctx,
		`SELECT telegram_id, username, name, is_accepted FROM "user" ORDER BY name;`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, err
	}

	var users []User
	for rows.Next() {
		var user User
		if err := rows.Scan(&user.TelegramID, &user.Username, &user.Name, &user.IsAccepted); err != nil {
			return nil, err
		}
		users = append(users, user)
	}

	return users, nil
}

func (r *Repo) ListCourses(ctx context.Context) ([]Course, error) {
	rows, err := r.db.Query(
		ctx,
		`SELECT id, title, description, group_id FROM course ORDER BY id;`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, err
	}

	var courses []Course
	for rows.Next() {
		var course Course
		if err := rows.Scan(&course.ID, &course.Title, &course.Description, &course.GroupID); err != nil {
			return nil, err
		}
		courses = append(courses, course)
	}

	return courses, nil
}
