// Command pulselab-host controls a pulse sequencer over its serial link.
//
//	pulselab-host -device /dev/ttyACM0                 interactive shell
//	pulselab-host -device /dev/ttyACM0 set t1 500     single command
package main

import (
	"flag"
	"time"

	"github.com/golang/glog"

	"pulselab/host/pulser"
	"pulselab/host/serial"
)

var (
	device  = flag.String("device", "/dev/ttyACM0", "Serial device path")
	baud    = flag.Int("baud", serial.DefaultBaud, "Baud rate")
	timeout = flag.Duration("timeout", pulser.DefaultTimeout, "Readback response timeout")
)

func main() {
	flag.Parse()
	defer glog.Flush()

	cfg := serial.DefaultConfig(*device)
	cfg.Baud = *baud
	cfg.ReadTimeout = 50 * time.Millisecond

	port, err := serial.Open(cfg)
	if err != nil {
		glog.Fatalf("connect: %v", err)
	}
	client := pulser.New(port, *timeout)
	defer client.Close()
	glog.Infof("connected to %s at %d baud", cfg.Device, cfg.Baud)

	if err := NewShell(client).Run(flag.Args()...); err != nil {
		glog.Exitf("%v", err)
	}
}
