package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/xlab/closer"

	"go-midirouter/config"
	"go-midirouter/logging"
	"go-midirouter/midi"
	"go-midirouter/router"
	"go-midirouter/theme"
	"go-midirouter/tui"
)

// portPollRate is how often the monitor rescans MIDI ports
const portPollRate = 2 * time.Second

func main() {
	configPath := flag.String("config", "", "config file (.json, .yaml or .toml); default ~/.config/go-midirouter/config.json")
	listPorts := flag.Bool("list-ports", false, "print MIDI ports and exit")
	initConfig := flag.Bool("init-config", false, "write the default config and exit")
	withTUI := flag.Bool("tui", false, "show the terminal monitor")
	debug := flag.Bool("debug", false, "debug logging")
	logFile := flag.String("log-file", "", "write logs to this file")
	flag.Parse()

	if *listPorts {
		printPorts()
		return
	}
	if *initConfig {
		writeDefaultConfig(*configPath)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logOpts := logging.Options{Level: cfg.Logging.Level, File: cfg.Logging.File, Dev: *debug}
	if *debug {
		logOpts.Level = "debug"
	}
	if *logFile != "" {
		logOpts.File = *logFile
	}
	if *withTUI && logOpts.File == "" {
		if dir, err := config.ConfigDir(); err == nil {
			logOpts.File = filepath.Join(dir, "go-midirouter.log")
		}
	}
	if err := logging.Init(logOpts); err != nil {
		fmt.Fprintf(os.Stderr, "logging: %v\n", err)
		os.Exit(1)
	}
	log := logging.For("main")

	palette, err := theme.Load(cfg.Palette)
	if err != nil {
		log.Warnw("palette not loaded, using default", "path", cfg.Palette, "err", err)
		palette = theme.DefaultPalette()
	}
	th := theme.New(palette)

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	closer.Bind(func() {
		cancel()
		wg.Wait()
		log.Infow("shutdown complete")
		logging.Sync()
	})

	env := router.EnvFrom(cfg, th)
	routers := make([]router.Router, 0, len(cfg.Routers))
	for _, rc := range cfg.Routers {
		log.Infow("opening router", "name", rc.Name, "kind", rc.Kind, "in", rc.In)
		r, err := router.FromConfig(ctx, rc, env)
		if err != nil {
			closer.Fatalln("router", rc.Name+":", err)
		}
		routers = append(routers, r)
	}

	for _, r := range routers {
		wg.Add(1)
		go func(r router.Router) {
			defer wg.Done()
			if err := r.Run(ctx); err != nil {
				log.Errorw("router stopped", "name", r.Name(), "err", err)
			}
		}(r)
	}

	if !*withTUI {
		fmt.Printf("go-midirouter: %d routers running, ctrl+c to stop\n", len(routers))
		closer.Hold()
		return
	}

	watcher := midi.NewPortWatcher(portPollRate)
	wg.Add(1)
	go func() {
		defer wg.Done()
		watcher.Run(ctx)
	}()

	m := tui.NewModel(routers, watcher, th)
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		log.Errorw("tui failed", "err", err)
	}
	closer.Close()
}

func printPorts() {
	ports, err := midi.Scan()
	if err != nil {
		fmt.Fprintf(os.Stderr, "scan: %v\n", err)
		os.Exit(1)
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

func writeDefaultConfig(path string) {
	cfg := config.DefaultConfig()
	cfg.ApplyDefaults()
	if err := cfg.Save(path); err != nil {
		fmt.Fprintf(os.Stderr, "save config: %v\n", err)
		os.Exit(1)
	}
	if path == "" {
		path, _ = config.ConfigPath()
	}
	fmt.Println("wrote", path)
}
