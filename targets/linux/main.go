//go:build linux

// Command pulselab runs the double-pulse sequencer as a Linux process: the
// bridge on GPIO lines through periph.io, the host link on a UART and the
// period timers in software.
package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/golang/glog"

	"pulselab/config"
	"pulselab/core"
	"pulselab/host/serial"
	"pulselab/protocol"
	"pulselab/trace"
)

var (
	configPath = flag.String("config", "", "YAML configuration file")
	device     = flag.String("device", "", "Serial device, overrides serial.device")
	quiet      = flag.Bool("quiet", false, "Disable the command log")
)

func main() {
	flag.Parse()
	defer glog.Flush()

	cfg, err := config.LoadFile(*configPath)
	if err != nil {
		glog.Fatalf("config: %v", err)
	}
	if *device != "" {
		cfg.Serial.Device = *device
	}

	gpio, pins, err := OpenPeriphGPIO(cfg.Bridge.Names())
	if err != nil {
		glog.Fatalf("bridge: %v", err)
	}
	defer gpio.Release()
	bridge, err := core.NewPinBridge(gpio, pins)
	if err != nil {
		glog.Fatalf("bridge: %v", err)
	}

	port, err := serial.Open(&serial.Config{
		Device:      cfg.Serial.Device,
		Baud:        cfg.Serial.Baud,
		ReadTimeout: time.Duration(cfg.Serial.ReadTimeoutMS) * time.Millisecond,
	})
	if err != nil {
		glog.Fatalf("serial: %v", err)
	}
	defer port.Close()

	start := time.Now()
	core.SetEventClock(func() uint64 { return uint64(time.Since(start).Microseconds()) })
	core.SetDebugWriter(logLine)
	core.SetDebugEnabled(!*quiet)

	var irq sync.Mutex
	fast := NewSoftTimer(time.Duration(cfg.Timers.FastTickUS)*time.Microsecond, &irq)
	slow := NewSoftTimer(time.Duration(cfg.Timers.SlowTickUS)*time.Microsecond, &irq)
	seq := core.NewSequencer(fast, slow, bridge)

	mailbox := &protocol.Mailbox{}
	rx := protocol.NewReceiver(mailbox)
	rx.SetErrorHandler(func(err error, data []byte) {
		core.RecordEvent(core.EvtFrameError, uint32(len(data)), 0)
		glog.V(1).Infof("RX discarded (%v): %s", err, protocol.FormatFrame(data))
	})
	link := NewLink(port, rx)
	fw := core.NewFirmware(seq, mailbox, link)
	fw.SetInterruptLock(&irq)

	if v := cfg.Initial.FastUS; v != 0 {
		fw.ApplySet(core.Fast, v, 0)
	}
	if v := cfg.Initial.SlowMS; v != 0 {
		fw.ApplySet(core.Slow, v, 0)
	}

	glog.Infof("pulselab %s: bridge DL=%s EL=%s DR=%s ER=%s, link %s at %d baud",
		protocol.Version,
		gpio.Name(pins.DriveLeft), gpio.Name(pins.EnableLeft),
		gpio.Name(pins.DriveRight), gpio.Name(pins.EnableRight),
		cfg.Serial.Device, cfg.Serial.Baud)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	handleSignals(seq, mailbox, cancel)

	go func() {
		if err := link.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			glog.Errorf("link: %v", err)
			cancel()
		}
	}()

	err = fw.Run(ctx, cfg.PollInterval)
	switch {
	case errors.Is(err, core.ErrHalted):
		glog.Info("halted by hard stop")
	case errors.Is(err, context.Canceled):
		glog.Info("stopped")
	default:
		glog.Errorf("main loop: %v", err)
	}
	glog.Infof("frames=%d discarded=%d overwritten=%d processed=%d failed=%d bridge_errors=%d",
		rx.Frames(), rx.Discarded(), mailbox.Overwritten(),
		fw.Processed(), fw.Failed(), bridge.Errors())

	if glog.V(1) {
		core.DumpEvents()
	}
	if cfg.Trace.File != "" {
		n, err := trace.WriteFile(cfg.Trace.File)
		if err != nil {
			glog.Errorf("trace: %v", err)
		} else {
			glog.Infof("trace: %d events written to %s", n, cfg.Trace.File)
		}
	}
}

// logLine routes core debug output to glog. Raw frame dumps are verbose.
func logLine(s string) {
	if strings.HasPrefix(s, "RX: ") {
		glog.V(2).Info(s)
		return
	}
	glog.Info(s)
}

// handleSignals turns the first SIGINT/SIGTERM into a hard stop through the
// command path and the second into an immediate exit of the main loop.
func handleSignals(seq *core.Sequencer, mailbox *protocol.Mailbox, cancel func()) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		glog.Info("stop requested")
		seq.LatchHardStop()
		mailbox.Put(protocol.EncodeCommand(protocol.OpStop, protocol.Fast, 0, protocol.FlagHardExit))
		<-sigCh
		glog.Error("stop requested again, force exit")
		cancel()
	}()
}
