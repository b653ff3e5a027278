// Command sspq-blackhole connects to a broker and discards whatever it
// receives, forever: RECEIVE (or DEAD_RECEIVE with --dead-receive), print
// the payload, auto-CONFIRM unless --no-auto-confirm, repeat. A payload of
// exactly "kill" stops the loop.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/mee4895/sspq-go/client"
)

const version = "sspq-blackhole v0.1.0"

func main() {
	var (
		dead          bool
		address       string
		port          int
		noAutoConfirm bool
		showVersion   bool
	)

	pflag.BoolVarP(&dead, "dead-receive", "R", false, "Receive from the dead-letter queue instead of the main queue")
	pflag.BoolVar(&dead, "dr", false, "Alias for --dead-receive")
	pflag.StringVarP(&address, "address", "a", "127.0.0.1", "Broker address")
	pflag.IntVarP(&port, "port", "p", 8888, "Broker port")
	pflag.BoolVarP(&noAutoConfirm, "no-auto-confirm", "n", false,
		"Disable auto confirm. WARNING this requeues every message, since the connection never advances past it")
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
		payload, confirmed, err := c.ReceiveAndConfirm(dead)
		if err != nil {
			fmt.Fprintln(os.Stderr, "receive:", err)
			os.Exit(1)
		}

		fmt.Println("Message:")
		fmt.Println(string(payload))
		if confirmed {
			fmt.Println("(Auto-confirmed message)")
		}

		if string(payload) == "kill" {
			break
		}
	}

	if err := c.Disconnect(); err != nil {
		fmt.Fprintln(os.Stderr, "disconnect:", err)
		os.Exit(1)
	}
}
