// Command archetypes compiles the archetype corpus, audits it against the
// 243-code trait domain and serves lookups over a unix socket.
package main

import (
	"fmt"
	"os"
	"runtime"
)

const (
	Version = "0.1.0"
	appName = "archetypes"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := newRootCmd(&app{out: os.Stdout}).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
