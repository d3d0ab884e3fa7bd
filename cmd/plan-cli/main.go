// Command plan-cli is the operator CLI. It runs the same pipeline as the
// functions against a local SQLite store unless STORE_BACKEND says otherwise.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
