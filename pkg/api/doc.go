// Package api holds the JSON bodies exchanged by the classifier server and
// its clients. Field names are part of the public contract.
package api
