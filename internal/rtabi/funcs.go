package rtabi

import (
	"fmt"
	"strings"
)

// Formatting support implemented by the lygos std library.
const (
	// ArgumentType is the struct describing one formatted argument:
	// { value: *i8, fmt: fn(*i8, *mut Formatter) -> FormattingError }.
	ArgumentType = "Argument"

	// ArgumentsNew builds an Arguments value from argument and piece arrays.
	ArgumentsNew = "Arguments_new"

	// ArgumentsType is the result type of format_args.
	ArgumentsType = "Arguments"

	// FormatSuffix is appended to a base type name to form its formatter.
	FormatSuffix = "_fmt"

	// PtrFormat formats any raw pointer or reference.
	PtrFormat = "ptr_fmt"

	DisplayTrait  = "Display"
	DisplayMethod = "fmt"
	DebugTrait    = "Debug"
	DebugMethod   = "fmt_debug"
)

// Intrinsic macro names. They are compiler builtins and cannot be
// redefined by user macros.
const (
	IntrinsicFormatArgs = "format_args"
	IntrinsicSizeof     = "sizeof"
	IntrinsicFile       = "file"
	IntrinsicLine       = "line"
	IntrinsicImplDebug  = "impl_debug"
)

// Intrinsics lists every intrinsic macro name.
var Intrinsics = []string{
	IntrinsicFormatArgs,
	IntrinsicSizeof,
	IntrinsicFile,
	IntrinsicLine,
	IntrinsicImplDebug,
}

// IsIntrinsic reports whether name is an intrinsic macro.
func IsIntrinsic(name string) bool {
	for _, n := range Intrinsics {
		if n == name {
			return true
		}
	}
	return false
}

// MethodSymbol returns the mangled backend name of a struct method.
func MethodSymbol(structName, method string) string {
	return structName + "_" + method
}

// ClosureSymbol returns the backend name of the n-th closure defined in fn.
func ClosureSymbol(fn string, n int) string {
	return fmt.Sprintf("%s.closure.%d", fn, n)
}

// BaseFormatter returns the formatting function for a base type.
func BaseFormatter(typeName string) string {
	return typeName + FormatSuffix
}

// IsFormatter reports whether name follows the base formatter naming.
func IsFormatter(name string) bool {
	return name == PtrFormat || strings.HasSuffix(name, FormatSuffix)
}
