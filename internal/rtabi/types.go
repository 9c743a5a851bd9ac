// Package rtabi defines the ABI constants shared between the compiler and
// the C standard library linked into lygos programs.
package rtabi

// Default target configuration.
const (
	// TargetTriple is the LLVM target triple for code generation.
	TargetTriple = "x86_64-unknown-linux-gnu"

	// DataLayout is the LLVM data layout string matching the target.
	DataLayout = "e-m:e-p270:32:32-p271:32:32-p272:64:64-i64:64-f80:128-n8:16:32:64-S128"
)

// Pointer size and alignment in bytes.
const (
	SizePtr  = 8
	AlignPtr = 8
)

// Layout of the built-in str type: { ptr: *i8, len: u64 }.
const (
	StrType     = "str"
	StrPtrField = "ptr"
	StrLenField = "len"
	SizeStr     = 16
)
