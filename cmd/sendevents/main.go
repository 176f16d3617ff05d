// sendevents replays a file of telegrams against a running energy sensors
// service, one HTTP request per line.
//
//	sendevents store http://localhost:8080/api/v1/events events.txt
//	sendevents distributed http://localhost:8080/api/v1/telegrams/parse \
//	    http://localhost:8080/api/v1/events events.txt
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

var version = "dev"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Exit, os.Stdout, os.Stderr, os.Args[1:]...); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
