// Package report renders the outcome of link operations, either as a
// machine-readable tab-separated stream or as human-readable lines.
package report

// Kind classifies the outcome of one link operation.
type Kind int

const (
	Linked        Kind = iota + 1 // duplicate replaced by a hardlink
	WouldLink                     // dry run: link was planned but not performed
	AlreadyLinked                 // duplicate already shares the keeper's inode
	Failed                        // link or rename failed; original untouched
)

var kindNames = [...]string{
	Linked:        "linked",
	WouldLink:     "would link",
	AlreadyLinked: "already linked",
	Failed:        "failed",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return "unknown"
}

// Record is the reportable outcome of one link operation.
type Record struct {
	Kind      Kind
	Keeper    string
	Duplicate string
	Size      int64
	Err       error
}
