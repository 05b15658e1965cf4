// Package services contains domain services: rules that involve more than one
// aggregate or a fact no single aggregate owns.
//
// OccupancyResolver decides a table's occupancy from the count of its unbilled orders.
// It is pure and stateless; loading the count and persisting the table is left to the
// application layer.
package services
