package reservation

type State string

const (
	Idle         State = "idle"
	SlotSelected State = "slot_selected"
	Locking      State = "locking"
	Locked       State = "locked"
	Committing   State = "committing"
	Committed    State = "committed"

	LockFailed   State = "lock_failed"
	LockExpired  State = "lock_expired"
	Released     State = "released"
	CommitFailed State = "commit_failed"
)

// Terminal states wait for the user to pick a slot again.
func (s State) Terminal() bool {
	switch s {
	case Committed, LockFailed, LockExpired, Released, CommitFailed:
		return true
	}
	return false
}

// canSelect reports whether a new slot may be chosen from s.
func (s State) canSelect() bool {
	return s == Idle || s == SlotSelected || s.Terminal()
}
