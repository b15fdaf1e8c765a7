package enrollment

// User is a course platform member, identified by their telegram id.
type User struct {
	TelegramID int    `json:"telegramId"`
	Username   string `json:"username,omitempty"`
	Name       string `json:"name"`
	IsAccepted bool   `json:"isAccepted"`
}

type Course struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	GroupID     string `json:"groupId"`
}

// Payment marks a user as enrolled/paid for a course. Existence of the
// row IS the enrollment flag; there is no separate boolean for it, so
// the two can never disagree.
type Payment struct {
	ID        int  `json:"id"`
	UserID    int  `json:"userId"`
	CourseID  int  `json:"courseId"`
	IsInvited bool `json:"isInvited"`
}
