// Command sspq-client is a one-shot SSPQ client driver: send one message,
// or receive (optionally from the dead-letter queue) and print the payload.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/mee4895/sspq-go/client"
)

const version = "sspq-client v0.1.0"

func main() {
	var (
		doSend        bool
		doReceive     bool
		doDeadReceive bool
		address       string
		port          int
		message       string
		retries       int
		noAutoConfirm bool
		showVersion   bool
	)

	pflag.BoolVarP(&doSend, "send", "s", false, "Send --message to the broker")
	pflag.BoolVarP(&doReceive, "receive", "r", false, "Receive one item from the main queue")
	pflag.BoolVarP(&doDeadReceive, "dead-receive", "R", false, "Receive one item from the dead-letter queue")
	pflag.StringVarP(&address, "address", "a", "127.0.0.1", "Broker address")
	pflag.IntVarP(&port, "port", "p", 8888, "Broker port")
	pflag.StringVarP(&message, "message", "m", "", "Message to send (required, non-empty, with --send)")
	pflag.IntVar(&retries, "retrys", 0, "Retry budget for --send, 0..255 (255 = infinite)")
	pflag.BoolVarP(&noAutoConfirm, "no-auto-confirm", "n", false, "Skip CONFIRM after a successful receive")
	pflag.BoolVar(&noAutoConfirm, "nac", false, "Alias for --no-auto-confirm")
	pflag.BoolVarP(&showVersion, "version", "v", false, "Print the version and exit")
	pflag.Parse()

	if showVersion {
		fmt.Println(version)
		return
	}

	if doSend && message == "" {
		fmt.Fprintln(os.Stderr, "--message is required and must be non-empty with --send")
		os.Exit(2)
	}
	if retries < 0 || retries > 255 {
		fmt.Fprintln(os.Stderr, "--retrys must be 0..255")
		os.Exit(2)
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
	defer c.Disconnect()

	if doSend {
		if err := c.Send([]byte(message), uint8(retries)); err != nil {
			fmt.Fprintln(os.Stderr, "send:", err)
			os.Exit(1)
		}
	}

	if doReceive || doDeadReceive {
		payload, confirmed, err := c.ReceiveAndConfirm(doDeadReceive)
		if err != nil {
			fmt.Fprintln(os.Stderr, "receive:", err)
			os.Exit(1)
		}
		fmt.Println(string(payload))
		if confirmed {
			fmt.Println("(Auto-confirmed message)")
		}
	}
}
