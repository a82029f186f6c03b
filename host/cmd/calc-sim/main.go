package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/pkg/term"

	"keycalc/config"
	"keycalc/core"
	"keycalc/host/i18n"
	"keycalc/sim"
)

var (
	configPath = flag.String("config", "", "JSON pin/timing config (default: reference wiring)")
	speed      = flag.Float64("speed", 1.0, "Simulation speed relative to real time (0 = as fast as possible)")
	keys       = flag.String("keys", "", "Press this key sequence, print the display and exit")
	verbose    = flag.Bool("verbose", false, "Print firmware debug output")
)

func main() {
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("calc-sim: %v", err)
	}
	core.SetDebugEnabled(*verbose)

	clock := sim.NewClock()
	clock.SetPace(*speed)
	board := sim.NewBoard(cfg, clock)
	fw := core.NewFirmware(cfg, board, clock)
	fw.Boot()

	// A tap must outlast one full poll to be seen by the scanner.
	t := cfg.Timing
	hold := config.Ms(4*t.ScanSettleMs+t.IdleMs+t.DebounceMs) + 20*time.Millisecond

	if *keys != "" {
		runScript(fw, board, *keys, hold)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := runInteractive(ctx, fw, board, hold); err != nil {
		log.Fatalf("calc-sim: %v", err)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.DefaultConfig(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return config.LoadConfig(data)
}

// runScript plays keys through the virtual keypad, one per poll window,
// and prints the display after each handled key.
func runScript(fw *core.Firmware, board *sim.Board, keys string, hold time.Duration) {
	kp := board.Keypad()
	kp.Sequence(keys, board.Clock().Now(), hold, hold)

	for kp.Pending(board.Clock().Now()) > 0 {
		if k := fw.Poll(); k != core.NoKey {
			fmt.Printf("[%c]\n", k)
			printDisplay(board.Display())
		}
	}
}

func runInteractive(ctx context.Context, fw *core.Firmware, board *sim.Board, hold time.Duration) error {
	tty, err := term.Open("/dev/tty", term.CBreakMode)
	if err != nil {
		return fmt.Errorf("opening terminal: %w", err)
	}
	defer tty.Close()
	defer tty.Restore()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go readKeys(tty, board, hold, cancel)

	fmt.Println(i18n.From(i18n.MsgQuitHint))
	fmt.Print("\n\n\n\n")

	var last [2]string
	for ctx.Err() == nil {
		fw.Poll()
		board.Keypad().Prune(board.Clock().Now())

		d := board.Display()
		screen := [2]string{d.Line(0), d.Line(1)}
		if screen != last {
			redraw(screen)
			last = screen
		}
	}
	return nil
}

// readKeys turns keystrokes into taps on the virtual keypad.
func readKeys(tty *term.Term, board *sim.Board, hold time.Duration, quit func()) {
	buf := make([]byte, 1)
	for {
		n, err := tty.Read(buf)
		if err != nil {
			quit()
			return
		}
		if n == 0 {
			continue
		}

		key := buf[0]
		switch {
		case key == 'q' || key == 'Q' || key == 0x03:
			quit()
			return
		case key >= 'a' && key <= 'd':
			key -= 'a' - 'A'
		case key == 'x' || key == 'X':
			key = core.KeyMultiply
		case key == '=' || key == '\n' || key == '\r':
			key = core.KeyEquals
		}
		board.Keypad().Schedule(sim.Press{Key: key, At: board.Clock().Now(), Hold: hold})
	}
}

// redraw overwrites the four lines reserved for the LCD frame.
func redraw(screen [2]string) {
	border := "+" + strings.Repeat("-", sim.LCDColumns) + "+"
	fmt.Print("\x1b[4A")
	fmt.Println(border)
	fmt.Println("|" + screen[0] + "|")
	fmt.Println("|" + screen[1] + "|")
	fmt.Println(border)
}

func printDisplay(d *sim.HD44780) {
	for row := 0; row < sim.LCDRows; row++ {
		fmt.Println(i18n.From(i18n.MsgScreen, d.Line(row)))
	}
}
