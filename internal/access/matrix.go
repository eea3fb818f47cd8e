package access

// ActionSet is the grant record of a single resource.
type ActionSet struct {
	Create bool `yaml:"create" json:"create"`
	Read   bool `yaml:"read" json:"read"`
	Update bool `yaml:"update" json:"update"`
	Delete bool `yaml:"delete" json:"delete"`
}

// Allows reports whether the action is granted. Unknown actions are denied.
func (s *ActionSet) Allows(a Action) bool {
	if s == nil {
		return false
	}
	switch a {
	case ActionCreate:
		return s.Create
	case ActionRead:
		return s.Read
	case ActionUpdate:
		return s.Update
	case ActionDelete:
		return s.Delete
	}
	return false
}

// Set grants or revokes a. Unknown actions are ignored.
func (s *ActionSet) Set(a Action, granted bool) {
	switch a {
	case ActionCreate:
		s.Create = granted
	case ActionRead:
		s.Read = granted
	case ActionUpdate:
		s.Update = granted
	case ActionDelete:
		s.Delete = granted
	}
}

// Matrix maps each resource to its grants.
type Matrix map[Resource]*ActionSet

// newMatrix returns a matrix with every resource present and every action denied.
func newMatrix() Matrix {
	m := make(Matrix, len(allResources))
	for _, r := range allResources {
		m[r] = &ActionSet{}
	}
	return m
}

// Allows looks up m[r][a]; any missing step yields false.
func (m Matrix) Allows(r Resource, a Action) bool {
	if m == nil {
		return false
	}
	return m[r].Allows(a)
}

// Clone returns a deep copy that shares no ActionSet with m.
func (m Matrix) Clone() Matrix {
	if m == nil {
		return nil
	}
	out := make(Matrix, len(m))
	for r, set := range m {
		if set == nil {
			out[r] = nil
			continue
		}
		cp := *set
		out[r] = &cp
	}
	return out
}

// Equal compares grants over the known resources and actions. A resource
// missing from one side counts as all-denied.
func (m Matrix) Equal(other Matrix) bool {
	for _, r := range allResources {
		for _, a := range allActions {
			if m.Allows(r, a) != other.Allows(r, a) {
				return false
			}
		}
	}
	return true
}

// Granted lists the granted actions of r in display order.
func (m Matrix) Granted(r Resource) []Action {
	var out []Action
	for _, a := range allActions {
		if m.Allows(r, a) {
			out = append(out, a)
		}
	}
	return out
}
