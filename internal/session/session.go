package session

import (
	"encoding/json"

	"nebula-admin/internal/domain"
)

// Session is one user's key/value bag. Mutations happen in memory; the
// middleware saves the whole bag once at the end of the request.
type Session struct {
	Token  string
	UserID int64

	data    map[string]json.RawMessage
	changed bool
}

// Has reports whether key is present.
func (s *Session) Has(key string) bool {
	_, ok := s.data[key]
	return ok
}

// GetString returns the string stored at key, or "".
func (s *Session) GetString(key string) string {
	var out string
	if raw, ok := s.data[key]; ok {
		_ = json.Unmarshal(raw, &out)
	}
	return out
}

// SetString stores a string at key.
func (s *Session) SetString(key, value string) {
	raw, _ := json.Marshal(value)
	s.data[key] = raw
	s.changed = true
}

// GetJSON unmarshals the value at key into out, reporting whether the key
// existed and decoded.
func (s *Session) GetJSON(key string, out interface{}) bool {
	raw, ok := s.data[key]
	if !ok {
		return false
	}
	return json.Unmarshal(raw, out) == nil
}

// SetJSON stores any JSON-encodable value at key.
func (s *Session) SetJSON(key string, value interface{}) {
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	s.data[key] = raw
	s.changed = true
}

// Remove deletes key from the bag.
func (s *Session) Remove(key string) {
	if _, ok := s.data[key]; ok {
		delete(s.data, key)
		s.changed = true
	}
}

// Changed reports whether the bag was mutated since load.
func (s *Session) Changed() bool { return s.changed }

// MarkChanged forces a save even without a data mutation (e.g. user login).
func (s *Session) MarkChanged() { s.changed = true }

const viewStateKeyPrefix = "viewstate:"

// ViewState loads the table view state for one module, falling back to the
// definition's defaults. This is the single read point for table state.
func (s *Session) ViewState(def *domain.Definition) domain.ViewState {
	var vs domain.ViewState
	if !s.GetJSON(viewStateKeyPrefix+def.Name, &vs) {
		return domain.NewViewState(def)
	}
	if vs.FilterSelections == nil {
		vs.FilterSelections = map[string]string{}
	}
	if vs.Page < 1 {
		vs.Page = 1
	}
	if !domain.ValidLimit(vs.Limit) {
		vs.Limit = domain.DefaultPageLimit
	}
	return vs
}

// SaveViewState stores the table view state for one module atomically. This
// is the single write point for table state.
func (s *Session) SaveViewState(module string, vs domain.ViewState) {
	s.SetJSON(viewStateKeyPrefix+module, vs)
}
