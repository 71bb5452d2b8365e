package validate

// Enum is implemented by every closed string set in pkg/enums.
type Enum interface {
	IsValid() bool
	String() string
}

// Enum records a problem when value is outside its closed set.
func (v Violations) Enum(field string, value Enum) {
	if value.String() == "" {
		v.Add(field, "is required")
		return
	}
	v.Check(value.IsValid(), field, "is not an allowed value")
}
