// Package healthcheck periodically checks whether a classifier server is
// alive and logs every up/down transition.
package healthcheck
