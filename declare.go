package shroud

// TagName is the struct tag that declares a sensitive field:
//
//	Tel string `shroud:"sensitive"`
const TagName = "shroud"

// TagSensitive is the only accepted value for TagName.
const TagSensitive = "sensitive"

// Sensitive marks a type as a participant in transparent encryption.
// Only participants have their tagged fields transformed; everything else
// crosses the persistence boundary untouched.
//
// Embed Declaration to satisfy it. Because embedding promotes the method,
// a type that embeds another participant is a participant too.
type Sensitive interface {
	SensitiveData()
}

// Declaration implements Sensitive when embedded:
//
//	type Contact struct {
//	    shroud.Declaration
//	    Name string
//	    Tel  string `shroud:"sensitive"`
//	}
type Declaration struct{}

// SensitiveData implements Sensitive.
func (Declaration) SensitiveData() {}

// FieldRef is a read/write handle on one sensitive string field.
type FieldRef struct {
	Name  string
	Value *string
}

// FieldLister bypasses reflection for field discovery.
// When a participant implements it, the interceptors transform the fields it
// returns along with any tagged fields, each field at most once. Nil Value
// pointers are skipped.
//
// This is designed for codegen: a generator can emit SensitiveFields from
// struct tags and remove reflection from the hot path.
type FieldLister interface {
	Sensitive
	SensitiveFields() []FieldRef
}
