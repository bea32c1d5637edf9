package resmap

// Action is what a mutation did to a name.
type Action string

const (
	ActionAdded   Action = "added"
	ActionDeleted Action = "deleted"
)

// Sign is the one-character form used in CLI listings.
func (a Action) Sign() string {
	switch a {
	case ActionAdded:
		return "+"
	case ActionDeleted:
		return "-"
	default:
		return "?"
	}
}

type ProcessedEntry struct {
	Action Action
	Link   string
}

// ProcessedEntries reports what one mutation call did, keyed by the name as
// the caller gave it. Every call produces exactly one entry.
type ProcessedEntries map[string]ProcessedEntry

func Processed(name string, action Action, link string) ProcessedEntries {
	return ProcessedEntries{name: {Action: action, Link: link}}
}
