package core

// ViewName identifies one navigable view of the notes application.
type ViewName int

const (
	ViewMain ViewName = iota
	ViewArchive
)

// Views lists every known view in traversal order.
var Views = []ViewName{ViewMain, ViewArchive}

// String returns the string representation of ViewName
func (v ViewName) String() string {
	switch v {
	case ViewMain:
		return "main"
	case ViewArchive:
		return "archive"
	default:
		return "unknown"
	}
}

// ParseView parses a view name as written in scenario files.
func ParseView(s string) (ViewName, bool) {
	switch s {
	case "main", "notes":
		return ViewMain, true
	case "archive":
		return ViewArchive, true
	}
	return 0, false
}
