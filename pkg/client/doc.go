// Package client calls a running classifier server over HTTP.
//
//	c := client.New("http://localhost:5000", client.Options{})
//	res, err := c.Predict(ctx, map[string]any{"spore_size_um": 120.5, ...})
//	var apiErr *client.APIError
//	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusBadRequest {
//	    fmt.Println("missing:", apiErr.Missing())
//	}
//
// Transport errors and 5xx responses trip a circuit breaker. While it is open,
// calls fail fast with ErrCircuitOpen.
package client
