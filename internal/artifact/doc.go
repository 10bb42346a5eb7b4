// Package artifact loads the three fitted artifacts the service depends on:
// the classifier, the feature scaler and the label encoder.
//
// Each artifact is a JSON document exported from the training environment.
// Load reads them once, concurrently, and checks that their dimensions agree
// with each other and with the feature schema. Any missing, corrupt or
// inconsistent artifact is a fatal error; there is no partial availability.
//
// A loaded Bundle is never mutated and may be shared across goroutines.
package artifact
