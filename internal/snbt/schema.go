package snbt

// Expect constrains the tag type of a document root, e.g. a command argument
// that only accepts compounds.
type Expect struct {
	Type TagType
	Desc string
}

// CompoundRoot is the expectation of a compound root.
func CompoundRoot() *Expect {
	return &Expect{Type: TagCompound, Desc: "An NBT compound tag."}
}

// Description implements lang.Schema.
func (e *Expect) Description() string { return e.Desc }

// IsDeprecated implements lang.Schema.
func (*Expect) IsDeprecated() bool { return false }

// TypeName implements lang.Schema.
func (e *Expect) TypeName() string { return e.Type.String() }
