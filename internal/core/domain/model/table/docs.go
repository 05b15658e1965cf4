// Package table holds the Table aggregate: a named seating place whose occupancy
// mirrors whether guests at it still have orders to pay.
package table
