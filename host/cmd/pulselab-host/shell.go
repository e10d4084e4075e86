package main

import (
	"flag"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/abiosoft/ishell"
	"github.com/golang/glog"

	"pulselab/host/pulser"
	"pulselab/protocol"
)

const (
	shellKey = "$shell"
	prompt   = "pulselab > "
)

var (
	evalOnly bool

	commands = []*ishell.Cmd{
		&SetCmd,
		&StartCmd,
		&StopCmd,
		&ReadbackCmd,
		&StatusCmd,
		&DrainCmd,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
}

// Device is the part of the client the shell drives.
type Device interface {
	SetTimer(ch protocol.Channel, period uint16) error
	Start(count uint16) error
	Stop(hard bool) error
	Readback(ch protocol.Channel) (uint16, uint8, error)
	Drain(d time.Duration) (string, error)
}

var _ Device = (*pulser.Client)(nil)

// Shell is the ishell front end of a Device.
type Shell struct {
	Interactive bool

	Shell  *ishell.Shell
	Device Device
}

// NewShell creates a shell bound to a device.
func NewShell(dev Device) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		Shell:       ishell.New(),
		Device:      dev,
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(prompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// Run processes args as a single command, or runs the interactive shell.
func (s *Shell) Run(args ...string) error {
	if len(args) > 0 {
		return s.Shell.Process(args...)
	}
	if !s.Interactive {
		return fmt.Errorf("command expected")
	}
	s.Shell.Run()
	return nil
}

// parseChannel accepts t1/t2, fast/slow or 1/2.
func parseChannel(s string) (protocol.Channel, error) {
	switch strings.ToLower(s) {
	case "t1", "fast", "1":
		return protocol.Fast, nil
	case "t2", "slow", "2":
		return protocol.Slow, nil
	}
	return 0, fmt.Errorf("unknown timer %q (t1|t2)", s)
}

func parseU16(s string) (uint16, error) {
	v, err := strconv.ParseUint(s, 0, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid value %q: %w", s, err)
	}
	return uint16(v), nil
}

func unit(ch protocol.Channel) string {
	if ch == protocol.Slow {
		return "ms"
	}
	return "us"
}

var (
	// SetCmd programs a timer period.
	SetCmd = ishell.Cmd{
		Name: "set",
		Help: "TIMER PERIOD  (t1: 10-1000 us, t2: 1-10000 ms)",
		Func: func(c *ishell.Context) {
			if len(c.Args) != 2 {
				c.Err(fmt.Errorf("usage: set TIMER PERIOD"))
				return
			}
			ch, err := parseChannel(c.Args[0])
			if err != nil {
				c.Err(err)
				return
			}
			v, err := parseU16(c.Args[1])
			if err != nil {
				c.Err(err)
				return
			}
			if err := ShellFrom(c).Device.SetTimer(ch, v); err != nil {
				c.Err(err)
				return
			}
			glog.V(1).Infof("SET %s %d", ch, v)
			c.Println("OK")
		},
	}

	// StartCmd starts the sequence.
	StartCmd = ishell.Cmd{
		Name: "start",
		Help: "[COUNT]  (0 runs until stopped)",
		Func: func(c *ishell.Context) {
			var count uint16
			if len(c.Args) > 0 {
				v, err := parseU16(c.Args[0])
				if err != nil {
					c.Err(err)
					return
				}
				count = v
			}
			if err := ShellFrom(c).Device.Start(count); err != nil {
				c.Err(err)
				return
			}
			c.Println("OK")
		},
	}

	// StopCmd stops the sequence.
	StopCmd = ishell.Cmd{
		Name: "stop",
		Help: "[hard]  soft stop at the cycle boundary, or immediate hard stop",
		Func: func(c *ishell.Context) {
			hard := len(c.Args) > 0 && strings.EqualFold(c.Args[0], "hard")
			if err := ShellFrom(c).Device.Stop(hard); err != nil {
				c.Err(err)
				return
			}
			if hard {
				c.Println("OK (device halted)")
				return
			}
			c.Println("OK")
		},
	}

	// ReadbackCmd prints the applied period of a timer.
	ReadbackCmd = ishell.Cmd{
		Name:    "readback",
		Aliases: []string{"rb", "get"},
		Help:    "TIMER",
		Func: func(c *ishell.Context) {
			if len(c.Args) != 1 {
				c.Err(fmt.Errorf("usage: readback TIMER"))
				return
			}
			ch, err := parseChannel(c.Args[0])
			if err != nil {
				c.Err(err)
				return
			}
			v, flags, err := ShellFrom(c).Device.Readback(ch)
			if err != nil {
				c.Err(err)
				return
			}
			c.Printf("%s period=%d %s flags=0x%02X\n", ch, v, unit(ch), flags)
		},
	}

	// StatusCmd reads back both timers.
	StatusCmd = ishell.Cmd{
		Name: "status",
		Help: "read back both timers",
		Func: func(c *ishell.Context) {
			for _, ch := range protocol.Channels {
				v, _, err := ShellFrom(c).Device.Readback(ch)
				if err != nil {
					c.Err(err)
					return
				}
				c.Printf("%s period=%d %s\n", ch, v, unit(ch))
			}
		},
	}

	// DrainCmd prints the device's log output.
	DrainCmd = ishell.Cmd{
		Name: "drain",
		Help: "[MS]  print device log output received within MS (default 200)",
		Func: func(c *ishell.Context) {
			d := 200 * time.Millisecond
			if len(c.Args) > 0 {
				ms, err := strconv.Atoi(c.Args[0])
				if err != nil {
					c.Err(err)
					return
				}
				d = time.Duration(ms) * time.Millisecond
			}
			text, err := ShellFrom(c).Device.Drain(d)
			if err != nil {
				c.Err(err)
				return
			}
			c.Print(text)
		},
	}
)
