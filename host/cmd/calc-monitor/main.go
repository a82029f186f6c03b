package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"time"

	"keycalc/host/i18n"
	"keycalc/host/monitor"
	"keycalc/host/serial"
	"keycalc/protocol"
)

var (
	device = flag.String("device", "/dev/ttyACM0", "Serial device path")
	baud   = flag.Int("baud", 115200, "Baud rate (ignored for USB CDC)")
	keys   = flag.String("keys", "", "Inject this key sequence and exit")
	gap    = flag.Duration("gap", 300*time.Millisecond, "Delay between injected keys")
	dict   = flag.Bool("dict", false, "Print the message catalogue and exit")
)

func main() {
	flag.Parse()

	if *dict {
		fmt.Print(protocol.NewLinkRegistry().Dictionary())
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg := serial.DefaultConfig(*device)
	cfg.Baud = *baud

	mon := monitor.New()
	if err := mon.ConnectWithConfig(cfg); err != nil {
		log.Fatalf("calc-monitor: %v", err)
	}
	defer mon.Close()
	fmt.Println(i18n.From(i18n.MsgConnected, *device, *baud))

	go printEvents(mon)

	if *keys != "" {
		if err := mon.InjectKeys(ctx, *keys, *gap); err != nil {
			log.Fatalf("calc-monitor: %v", err)
		}
		fmt.Println(i18n.From(i18n.MsgInjected, len(*keys)))
		return
	}

	if err := mon.RequestState(ctx); err != nil {
		log.Printf("calc-monitor: get_state: %v", err)
	}
	interactive(ctx, mon)
}

func interactive(ctx context.Context, mon *monitor.Monitor) {
	fmt.Println("Enter commands (type 'help' for available commands, 'quit' to exit):")
	scanner := bufio.NewScanner(os.Stdin)

	for scanner.Scan() {
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}

		switch parts[0] {
		case "quit", "exit", "q":
			return

		case "help", "?":
			printHelp()

		case "key", "k":
			if len(parts) < 2 {
				fmt.Println("usage: key <keys>")
				continue
			}
			if err := mon.InjectKeys(ctx, strings.Join(parts[1:], ""), *gap); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			}

		case "state":
			if err := mon.RequestState(ctx); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			}

		case "screen":
			printScreen(mon.Screen())

		case "dict":
			fmt.Print(protocol.NewLinkRegistry().Dictionary())

		default:
			fmt.Printf("Unknown command: %s (type 'help' for available commands)\n", parts[0])
		}
	}

	if err := scanner.Err(); err != nil {
		log.Fatalf("calc-monitor: reading input: %v", err)
	}
}

func printEvents(mon *monitor.Monitor) {
	for e := range mon.Events() {
		switch e.Kind {
		case monitor.EventKey:
			source := i18n.From(i18n.MsgSourceMatrix)
			if e.Source == protocol.KeySourceRemote {
				source = i18n.From(i18n.MsgSourceRemote)
			}
			fmt.Println(i18n.From(i18n.MsgKey, rune(e.Key), source))
		case monitor.EventState:
			fmt.Println(i18n.From(i18n.MsgState, e.State.String(), e.A, e.B))
		case monitor.EventResult:
			fmt.Println(i18n.From(i18n.MsgResult, e.A, e.B, e.Result))
		case monitor.EventVersion:
			fmt.Println(i18n.From(i18n.MsgVersion, e.Text))
		case monitor.EventDebug:
			fmt.Println(i18n.From(i18n.MsgDebug, e.Text))
		case monitor.EventScreen:
			// Redraw once per text write rather than per command.
			if e.Text != "" {
				printScreen(mon.Screen())
			}
		}
	}
}

func printScreen(rows [2]string) {
	for _, row := range rows {
		fmt.Println(i18n.From(i18n.MsgScreen, row))
	}
}

func printHelp() {
	fmt.Println("\nAvailable commands:")
	fmt.Println("  key <keys>     - Inject keys, e.g. 'key 12*3#'")
	fmt.Println("  state          - Request calculator state")
	fmt.Println("  screen         - Print the mirrored LCD")
	fmt.Println("  dict           - Print the message catalogue")
	fmt.Println("  quit/exit/q    - Exit the program")
	fmt.Println()
}
