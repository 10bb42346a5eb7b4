// Package schema defines the ordered feature schema accepted by the classifier
// and turns a decoded request body into the positional feature vector.
//
// Validation happens in two explicit steps. Validate reports every schema key
// missing from a record as a *ValidationError, in schema order. Vector then
// coerces each value to float64; coercion failures are ordinary errors.
package schema
