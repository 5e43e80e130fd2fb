package domain

// Kind identifies the content category being imported.
type Kind string

const (
	KindEvents       Kind = "events"
	KindLinks        Kind = "links"
	KindNews         Kind = "news"
	KindPages        Kind = "pages"
	KindProfiles     Kind = "profiles"
	KindSoftware     Kind = "software"
	KindPublications Kind = "publications"
)

// Kinds lists every importable content category.
func Kinds() []Kind {
	return []Kind{
		KindEvents,
		KindLinks,
		KindNews,
		KindPages,
		KindProfiles,
		KindSoftware,
		KindPublications,
	}
}

// Valid reports whether k names a known content category.
func (k Kind) Valid() bool {
	for _, known := range Kinds() {
		if k == known {
			return true
		}
	}
	return false
}
