package statuses

type Status string

const (
	StatusCreated    Status = "created"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusForfeited  Status = "forfeited"
	StatusError      Status = "error"
)

// Finished reports whether no transition can leave s.
func (s Status) Finished() bool {
	switch s {
	case StatusCompleted, StatusForfeited, StatusError:
		return true
	}
	return false
}
