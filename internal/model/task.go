package model

type Task struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    int    `json:"priority"`
	Completed   bool   `json:"completed"`
	OwnerID     int64  `json:"owner_id"`
}

// OwnedBy reports whether the task belongs to the account with the given id.
func (t *Task) OwnedBy(accountID int64) bool {
	return t.OwnerID == accountID
}
