package types

// The built-in numeric types and their aliases (Glossary). These are
// process-wide singletons: the built-in scope (internal/scope) seeds one
// ScopeTable entry per name below, all pointing at these same Type values,
// so IsCompatible's pointer-free structural comparison and PromoteInt's
// type assertions are stable across the whole compilation.
var (
	Char      = &Int{TypeName: "char", Bytes: 1, Unsigned: false}
	SChar     = &Int{TypeName: "signed char", Bytes: 1, Unsigned: false}
	UChar     = &Int{TypeName: "unsigned char", Bytes: 1, Unsigned: true}
	Short     = &Int{TypeName: "short", Bytes: 2, Unsigned: false}
	UShort    = &Int{TypeName: "unsigned short", Bytes: 2, Unsigned: true}
	SignedInt = &Int{TypeName: "int", Bytes: 4, Unsigned: false}
	UnsignedInt = &Int{TypeName: "unsigned int", Bytes: 4, Unsigned: true}
	Long      = &Int{TypeName: "long", Bytes: 4, Unsigned: false}
	ULong     = &Int{TypeName: "unsigned long", Bytes: 4, Unsigned: true}
	LongLong  = &Int{TypeName: "long long", Bytes: 8, Unsigned: false, AlignBy: 4}
	ULongLong = &Int{TypeName: "unsigned long long", Bytes: 8, Unsigned: true, AlignBy: 4}

	VoidType Type = Void{}
)

// BuiltinNames maps every spelling the built-in scope seeds (including
// aliases) to its canonical Type, per the Glossary.
func BuiltinNames() map[string]Type {
	return map[string]Type{
		"void": VoidType,

		"char":          Char,
		"signed char":   SChar,
		"unsigned char": UChar,

		"short":          Short,
		"short int":      Short,
		"signed short":   Short,
		"unsigned short": UShort,

		"int":          SignedInt,
		"signed":       SignedInt,
		"signed int":   SignedInt,
		"unsigned":     UnsignedInt,
		"unsigned int": UnsignedInt,

		"long":          Long,
		"signed long":   Long,
		"ssize_t":       Long,
		"unsigned long": ULong,
		"size_t":        ULong,

		"long long":          LongLong,
		"signed long long":   LongLong,
		"unsigned long long": ULongLong,
	}
}
