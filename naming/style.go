// Package naming maps resolved declarations to target names and signatures.
//
// A Mapper combines a target Style with a per-compilation-unit Cache. The
// style captures how a target spells things (accessor prefixes, qualified
// class names, descriptors); the cache holds decisions that must stay
// stable for the lifetime of a unit, such as overload suffixes and class
// name clash resolution.
package naming

// Style describes how a target spells names.
type Style struct {
	// Target is the target name ("jvm", "js").
	Target string

	// Overloads enables overload disambiguation suffixes (name$1, name$2).
	// Targets with native overloading leave it off.
	Overloads bool

	// GetterPrefix and SetterPrefix prefix property accessor names.
	GetterPrefix string
	SetterPrefix string

	// Capitalize capitalizes the property name after the accessor prefix.
	Capitalize bool

	// NativeProperties makes accessors use the bare property name; the
	// target defines them as native getters and setters.
	NativeProperties bool

	// FieldPrefix prefixes backing field names.
	FieldPrefix string

	// PackageSeparator joins package segments in qualified class names.
	PackageSeparator string

	// TraitImplSuffix names the static type holding interface default bodies.
	TraitImplSuffix string

	// GenericSignatures enables generic class signatures on type definitions.
	GenericSignatures bool

	// SanitizeIdentifiers escapes reserved words in emitted identifiers.
	SanitizeIdentifiers bool

	// GuardClassNames suffixes class names that clash within a unit.
	GuardClassNames bool
}

// JVM returns the style of the JVM class-file target.
func JVM() Style {
	return Style{
		Target:            "jvm",
		GetterPrefix:      "get",
		SetterPrefix:      "set",
		Capitalize:        true,
		PackageSeparator:  "/",
		TraitImplSuffix:   "$$TImpl",
		GenericSignatures: true,
	}
}

// JS returns the style of the JavaScript target. With ecma5 set,
// properties are defined natively and accessors keep the property name.
func JS(ecma5 bool) Style {
	return Style{
		Target:              "js",
		Overloads:           true,
		GetterPrefix:        "get_",
		SetterPrefix:        "set_",
		NativeProperties:    ecma5,
		FieldPrefix:         "$",
		PackageSeparator:    ".",
		TraitImplSuffix:     "$TImpl",
		SanitizeIdentifiers: true,
		GuardClassNames:     true,
	}
}

// Key identifies the style for caching mappers per target.
func (s Style) Key() string {
	if s.NativeProperties {
		return s.Target + "+native"
	}
	return s.Target
}

// Fixed synthetic names shared by every target.
const (
	ConstructorName   = "<init>"
	StaticInitName    = "<clinit>"
	OuterThisField    = "this$0"
	ReceiverField     = "receiver$0"
	ValuesField       = "$VALUES"
	ObjectInstance    = "$instance"
	CompanionInstance = "object$"
	DefaultSuffix     = "$default"
	DelegateFieldStem = "$delegate_"
	AccessorPrefix    = "access$"
	EnumNameParam     = "$enum$name"
	EnumOrdinalParam  = "$enum$ordinal"
	DefaultMaskParam  = "$mask"
	ReceiverParam     = "$this"
	ComponentPrefix   = "component"
)
