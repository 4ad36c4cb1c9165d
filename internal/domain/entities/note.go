package entities

// Classification controls how a non-conformity count becomes a note.
// It is fixed when the item is built from the catalog.
type Classification string

const (
	ClassificationBinary   Classification = "binary"
	ClassificationMultiple Classification = "multiple"
)

// Note is the normalized judgment of an audited item.
type Note float64

const (
	NoteCompliant Note = 1.0
	NoteMinor     Note = 0.7
	NoteModerate  Note = 0.3
	NoteMajor     Note = 0.0
)

// ConvertNonConformitiesToNote is the only place a note is produced.
// A nil count means the item has not been judged yet and yields no note.
func ConvertNonConformitiesToNote(classification Classification, count *int) (Note, bool) {
	if count == nil {
		return 0, false
	}
	n := *count
	if n < 0 {
		n = 0
	}

	if classification == ClassificationBinary {
		if n == 0 {
			return NoteCompliant, true
		}
		return NoteMajor, true
	}

	switch n {
	case 0:
		return NoteCompliant, true
	case 1:
		return NoteMinor, true
	case 2:
		return NoteModerate, true
	default:
		return NoteMajor, true
	}
}

// NoteLabel returns the label printed next to a note in reports.
func NoteLabel(n Note) string {
	switch n {
	case NoteCompliant:
		return "Conforme"
	case NoteMinor:
		return "Mineur"
	case NoteModerate:
		return "Moyen"
	case NoteMajor:
		return "Majeur"
	default:
		return ""
	}
}
