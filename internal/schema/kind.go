package schema

// ObjectKind is the category of database artifact a file represents.
type ObjectKind int

const (
	KindUnknown ObjectKind = iota
	KindView
	KindTable
	KindFunction
	KindStoredProcedure
	KindPermission
	KindJob
)

// folderKinds maps a top-level folder of the working tree to the kind of the files it holds.
var folderKinds = map[string]ObjectKind{
	"views":             KindView,
	"tables":            KindTable,
	"functions":         KindFunction,
	"stored_procedures": KindStoredProcedure,
	"sps":               KindStoredProcedure,
	"permissions":       KindPermission,
	"jobs":              KindJob,
}

// KindForFolder returns the kind stored under the given folder name.
func KindForFolder(folder string) (ObjectKind, bool) {
	k, ok := folderKinds[folder]
	return k, ok
}

// Folders returns every folder name that maps to kind k, canonical name first.
func (k ObjectKind) Folders() []string {
	switch k {
	case KindView:
		return []string{"views"}
	case KindTable:
		return []string{"tables"}
	case KindFunction:
		return []string{"functions"}
	case KindStoredProcedure:
		return []string{"stored_procedures", "sps"}
	case KindPermission:
		return []string{"permissions"}
	case KindJob:
		return []string{"jobs"}
	default:
		return nil
	}
}

// ObjectType is the keyword the database uses for the kind in DDL (DROP VIEW, DROP PROCEDURE...).
func (k ObjectKind) ObjectType() string {
	switch k {
	case KindView:
		return "VIEW"
	case KindTable:
		return "TABLE"
	case KindFunction:
		return "FUNCTION"
	case KindStoredProcedure:
		return "PROCEDURE"
	case KindJob:
		return "JOB"
	default:
		return ""
	}
}

func (k ObjectKind) String() string {
	switch k {
	case KindView:
		return "view"
	case KindTable:
		return "table"
	case KindFunction:
		return "function"
	case KindStoredProcedure:
		return "stored procedure"
	case KindPermission:
		return "permission"
	case KindJob:
		return "job"
	default:
		return "unknown"
	}
}
