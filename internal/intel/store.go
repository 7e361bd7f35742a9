package intel

// Category names match the wire format of the external collector.
type Category string

const (
	CategoryBankAccounts       Category = "bankAccounts"
	CategoryUPIIDs             Category = "upiIds"
	CategoryPhishingLinks      Category = "phishingLinks"
	CategoryPhoneNumbers       Category = "phoneNumbers"
	CategorySuspiciousKeywords Category = "suspiciousKeywords"
)

// Categories lists every tracked category in wire order.
var Categories = []Category{
	CategoryBankAccounts,
	CategoryUPIIDs,
	CategoryPhishingLinks,
	CategoryPhoneNumbers,
	CategorySuspiciousKeywords,
}

// coreCategories are the ones that count toward finalization. Suspicious
// keywords alone are never enough to report a session.
var coreCategories = []Category{
	CategoryBankAccounts,
	CategoryUPIIDs,
	CategoryPhishingLinks,
	CategoryPhoneNumbers,
}

// Store accumulates extracted intelligence for a single session. Each
// category keeps insertion order and exact-match (case-sensitive) uniqueness.
// Store is not safe for concurrent use on its own; the session manager
// serializes access to it.
type Store struct {
	values map[Category][]string
	seen   map[Category]map[string]struct{}
}

func NewStore() *Store {
	s := &Store{
		values: make(map[Category][]string, len(Categories)),
		seen:   make(map[Category]map[string]struct{}, len(Categories)),
	}
	for _, c := range Categories {
		s.values[c] = []string{}
		s.seen[c] = make(map[string]struct{})
	}
	return s
}

// Merge appends each value not already present in the category, preserving
// insertion order. Unknown categories are ignored: the extractor only emits
// the fixed category set, so anything else is a programming error upstream,
// not data worth keeping. Returns the number of values actually added.
func (s *Store) Merge(category Category, values []string) int {
	seen, ok := s.seen[category]
	if !ok {
		return 0
	}
	added := 0
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		s.values[category] = append(s.values[category], v)
		added++
	}
	return added
}

// Get returns the ordered values for a category. The returned slice is a
// copy; reads never mutate the store.
func (s *Store) Get(category Category) []string {
	vals, ok := s.values[category]
	if !ok {
		return nil
	}
	out := make([]string, len(vals))
	copy(out, vals)
	return out
}

// Snapshot returns the full category map with copied value slices, suitable
// for serialization into the callback payload.
func (s *Store) Snapshot() map[Category][]string {
	out := make(map[Category][]string, len(Categories))
	for _, c := range Categories {
		out[c] = s.Get(c)
	}
	return out
}

// HasCoreIntelligence reports whether any category that can justify a report
// (bank accounts, UPI IDs, phishing links, phone numbers) holds at least one
// value.
func (s *Store) HasCoreIntelligence() bool {
	for _, c := range coreCategories {
		if len(s.values[c]) > 0 {
			return true
		}
	}
	return false
}

// Clone deep-copies the store for session snapshots.
func (s *Store) Clone() *Store {
	c := NewStore()
	for _, cat := range Categories {
		c.Merge(cat, s.values[cat])
	}
	return c
}
