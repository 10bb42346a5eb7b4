// Package handler implements the HTTP endpoints of the classifier server.
// It decodes requests, delegates to the inference service and maps its
// outcomes onto the response bodies in pkg/api.
package handler
