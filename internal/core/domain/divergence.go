package domain

// Divergence describes a result of the reference engine that differs from
// the primary one. Expected is the reference value, Actual the primary one.
type Divergence struct {
	Operation string
	Expected  string
	Actual    string
}
