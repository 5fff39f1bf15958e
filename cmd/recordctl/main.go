// Command recordctl imports and exports records from the command line
// using the same configuration and store as the server.
package main

import (
	"fmt"
	"os"

	_ "github.com/JonMunkholm/records/internal/store/postgres" // register drivers
	_ "github.com/JonMunkholm/records/internal/store/sqlite"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
