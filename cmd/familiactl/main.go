// familiactl talks to a running classifier server.
//
// Usage:
//
//	familiactl predict --file muestra.json
//	familiactl predict --file muestra.json --set pH=6.8 --set elevation_m=1200
//	familiactl familias
//	familiactl health
//	familiactl watch --interval 5s
//	familiactl bench --file muestra.json --concurrency 10 --requests 1000 --out summary.json
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
