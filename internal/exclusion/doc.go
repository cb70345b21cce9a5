// Package exclusion removes shipping rates that a cart's shipping classes rule out.
//
// Compute is a pure function over caller-supplied inputs: it performs no I/O,
// keeps no state and never fails. Missing configuration for a shipping class
// simply means that class excludes nothing.
package exclusion
