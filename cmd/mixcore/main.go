/*
 * This file is part of mixcore (https://github.com/fadergrid/mixcore).
 * Copyright (C) 2026 Fadergrid Audio
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU Affero General Public License as published by
 * the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
 * GNU Affero General Public License for more details.
 *
 * You should have received a copy of the GNU Affero General Public License
 * along with this program. If not, see <https://www.gnu.org/licenses/>.
 */

package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/fadergrid/mixcore/internal/audio"
	"github.com/fadergrid/mixcore/internal/control"
	"github.com/fadergrid/mixcore/internal/device"
	"github.com/fadergrid/mixcore/internal/engine"
	natsbridge "github.com/fadergrid/mixcore/internal/nats"
)

type config struct {
	devicePath string
	natsURL    string
	engineID   string
	sampleRate float64
	frames     int
	channels   int
}

func parseConfig(args []string) (*config, error) {
	fs := flag.NewFlagSet("mixcore", flag.ContinueOnError)
	cfg := &config{}

	fs.StringVar(&cfg.devicePath, "device", "", "MIDI character device path (e.g. /dev/midi00)")
	fs.StringVar(&cfg.natsURL, "nats", "", "NATS server URL for the control bridge (empty disables)")
	fs.StringVar(&cfg.engineID, "id", "mixcore", "engine instance identifier")
	fs.Float64Var(&cfg.sampleRate, "rate", 44100, "output sample rate in Hz")
	fs.IntVar(&cfg.frames, "frames", 1024, "frames per audio period")
	fs.IntVar(&cfg.channels, "channels", 2, "output channel count")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if cfg.sampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate: %v", cfg.sampleRate)
	}
	if cfg.frames <= 0 {
		return nil, fmt.Errorf("invalid frames per period: %d", cfg.frames)
	}
	if cfg.channels <= 0 {
		return nil, fmt.Errorf("invalid channel count: %d", cfg.channels)
	}
	return cfg, nil
}

func main() {
	cfg, err := parseConfig(os.Args[1:])
	if err != nil {
		os.Exit(2)
	}
	if err := run(cfg); err != nil {
		log.Fatalf("❌ %v", err)
	}
}

func run(cfg *config) error {
	registry := control.NewRegistry()

	backend := audio.NewPortAudioBackend()
	if err := backend.Initialize(); err != nil {
		return err
	}
	defer func() { _ = backend.Terminate() }()

	var bridge *natsbridge.ControlBridge
	if cfg.natsURL != "" {
		var err error
		bridge, err = natsbridge.NewControlBridge(cfg.natsURL, registry)
		if err != nil {
			return err
		}
		defer bridge.Close()
		if err := bridge.Start(); err != nil {
			return err
		}
	}

	if cfg.devicePath != "" {
		session := device.NewOSSSession(registry)
		if bridge != nil {
			session.SetStatusReporter(bridge)
			session.SetEventSink(bridge)
		}
		if err := session.Open(cfg.devicePath); err != nil {
			return err
		}
		if err := session.Start(); err != nil {
			_ = session.Close()
			return err
		}
		defer func() { _ = session.Close() }()
	}

	// Clipping protection is the last stage before output.
	clip := engine.NewClippingNode(registry, "[Master]", cfg.channels)
	chain := engine.NewChain(cfg.channels, cfg.frames, clip)

	driver := audio.NewDriver(backend, chain, nil, cfg.sampleRate)
	if err := driver.Start(); err != nil {
		return err
	}
	defer func() { _ = driver.Stop() }()

	log.Printf("🎛️ %s running, ctrl-c to exit", cfg.engineID)
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
	log.Println("👋 shutting down")
	return nil
}
