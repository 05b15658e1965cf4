// Package kernel provides the value objects shared by every aggregate of the
// restaurant floor model.
//
// The package includes:
//   - UUID: identifiers for orders, line items and tables
//   - Money: a non-negative fixed-point amount backed by github.com/shopspring/decimal
//
// Both types are immutable and safe to share between goroutines. Their zero values
// fail Validate, which lets aggregates detect values that bypassed a constructor.
package kernel
