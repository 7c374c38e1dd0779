package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/xlab/closer"

	"go-midirouter/chord"
	"go-midirouter/display"
	"go-midirouter/logging"
	"go-midirouter/midi"
	"go-midirouter/router"
)

// push2Port matches the Push 2 user port on every platform we have seen
const push2Port = "Push 2"

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}
	_ = logging.Init(logging.Options{Level: "debug"})
	defer logging.Sync()

	switch os.Args[1] {
	case "list":
		listPorts()
	case "detect":
		detectPush()
	case "leds":
		testLEDs()
	case "poll":
		pollDevices()
	case "display":
		testDisplay()
	case "encode":
		if len(os.Args) < 3 {
			usage()
			return
		}
		encodeFrame(os.Args[2])
	default:
		usage()
	}
}

func usage() {
	fmt.Println("Push 2 Test Scripts")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  list         - List all MIDI ports")
	fmt.Println("  detect       - Find Push 2 ports")
	fmt.Println("  leds         - Light the scale-chord layout")
	fmt.Println("  poll         - Watch for port changes")
	fmt.Println("  display      - Send color bars to the display")
	fmt.Println("  encode FILE  - Write one encoded test frame (header + payload)")
}

func listPorts() {
	fmt.Println("(waiting up to 3 seconds...)")
	ports, err := midi.Scan()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		fmt.Println("Fix: sudo killall coreaudiod midiserver")
		return
	}
	fmt.Println("=== MIDI Input Ports ===")
	for i, name := range ports.InNames() {
		fmt.Printf("  %d: %s\n", i, name)
	}
	fmt.Println("\n=== MIDI Output Ports ===")
	for i, name := range ports.OutNames() {
		fmt.Printf("  %d: %s\n", i, name)
	}
}

func detectPush() {
	fmt.Println("Looking for Push 2...")
	ports, err := midi.Scan()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	in, inOK := ports.FindIn(push2Port)
	out, outOK := ports.FindOut(push2Port)
	if inOK {
		fmt.Printf("Found input: %s\n", in.String())
	}
	if outOK {
		fmt.Printf("Found output: %s\n", out.String())
	}
	if inOK && outOK {
		fmt.Println("\nPush 2 detected!")
	} else {
		fmt.Println("\nPush 2 not found")
	}
}

func testLEDs() {
	ports, err := midi.Scan()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	out, ok := ports.FindOut(push2Port)
	if !ok {
		fmt.Println("No Push 2 found")
		return
	}
	surface, err := midi.NewPush2Surface("test", out)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	fmt.Println("Lighting the scale-chord layout...")
	page := router.NewPage(0, chord.ScaleMajor)
	leds, _ := page.TakeLEDs()
	for led, color := range leds {
		if led.Control {
			surface.LightControl(led.Number, color)
		} else {
			surface.LightPad(led.Number, color)
		}
	}

	fmt.Println("Press Enter to clear...")
	fmt.Scanln()
	surface.Close()
	fmt.Println("Done!")
}

func pollDevices() {
	fmt.Println("Polling for port changes every 2 seconds...")
	fmt.Println("Connect/disconnect Push 2 to test. Ctrl+C to exit.")

	ctx, cancel := context.WithCancel(context.Background())
	closer.Bind(cancel)

	w := midi.NewPortWatcher(2 * time.Second)
	go w.Run(ctx)
	go func() {
		for ev := range w.Events() {
			fmt.Printf("[%s] %-3s %s %s\n", time.Now().Format("15:04:05"), ev.Dir, ev.Type, ev.Name)
			if ev.Type == midi.PortConnected && midi.Match(ev.Name, push2Port) {
				fmt.Println("  -> Push 2 detected!")
			}
		}
	}()
	closer.Hold()
}

func testDisplay() {
	fmt.Println("Sending color bars, searching every 2 seconds. Ctrl+C to exit.")

	ctx, cancel := context.WithCancel(context.Background())
	closer.Bind(cancel)

	pattern := display.TestPattern()
	link := display.NewLink(display.NewPush2Dialer(),
		func() *display.PixelFrame { return pattern },
		display.WithRetryInterval(2*time.Second))
	go link.Run(ctx)
	go func() {
		for ev := range link.Events() {
			if ev.Err != nil {
				fmt.Printf("[%s] %s: %v\n", time.Now().Format("15:04:05"), ev.State, ev.Err)
				continue
			}
			fmt.Printf("[%s] %s\n", time.Now().Format("15:04:05"), ev.State)
		}
	}()
	closer.Hold()
}

func encodeFrame(path string) {
	payload := display.Encode(display.TestPattern(), nil)
	data := append(display.Header[:], payload...)
	if err := os.WriteFile(path, data, 0644); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("wrote %d bytes to %s\n", len(data), path)
}
