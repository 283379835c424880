package libtodo

// A Record is a todo item as stored by the kernel.
type Record struct {
	Title       string
	CreatedTime int64
	DueTime     int64
	Completed   bool
	// Owner is the key material of the record once set.
	// An empty owner means unassigned.
	Owner string
}

// AccessibleBy returns true if the given user owns the record.
func (r Record) AccessibleBy(user string) bool {
	return r.Owner == user
}

// IsOverdue returns true if the record has a due time before now and is not completed yet.
func (r Record) IsOverdue(now int64) bool {
	return !r.Completed && r.DueTime > 0 && r.DueTime < now
}

// An ActionRequest is a decoded user message.
type ActionRequest struct {
	ID     int64
	Action Action
	User   string
	// Record is only meaningful for Create.
	Record Record
}
