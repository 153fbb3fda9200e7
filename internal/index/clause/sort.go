package clause

// SortKey orders results by the doc value of Field. Documents without a value sort last
// in both directions.
type SortKey struct {
	Field      string
	Numeric    bool
	Descending bool
}

func (k SortKey) String() string {
	if k.Descending {
		return k.Field + " desc"
	}
	return k.Field + " asc"
}
