// Command sspq-trash connects to a broker and drains its dead-letter queue,
// forever: DEAD_RECEIVE, print the payload, auto-CONFIRM unless
// --no-auto-confirm, repeat.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/mee4895/sspq-go/client"
)

const version = "sspq-trash v0.1.0"

func main() {
	var (
		address       string
		port          int
		noAutoConfirm bool
		showVersion   bool
	)

	pflag.StringVarP(&address, "address", "a", "127.0.0.1", "Broker address")
	pflag.IntVarP(&port, "port", "p", 8888, "Broker port")
	pflag.BoolVarP(&noAutoConfirm, "no-auto-confirm", "n", false,
		"Disable auto confirm. WARNING this requeues every message to the dead letter queue, since the connection never advances past it")
	pflag.BoolVar(&noAutoConfirm, "nac", false, "Alias for --no-auto-confirm")
	pflag.BoolVarP(&showVersion, "version", "v", false, "Print the version and exit")
	pflag.Parse()

	if showVersion {
		fmt.Println(version)
		return
	}

	cfg := client.Config{Address: address, Port: port, AutoConfirm: !noAutoConfirm}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	ctx := context.Background()
	c := client.New(cfg)
	if err := c.Connect(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "connect:", err)
		os.Exit(1)
	}
	fmt.Printf("Connected to %s:%d\n", address, port)

	for {
		payload, _, err := c.ReceiveAndConfirm(true)
		if err != nil {
			fmt.Fprintln(os.Stderr, "receive:", err)
			os.Exit(1)
		}

		fmt.Println("Trashed:")
		fmt.Println(string(payload))
	}
}
