// go-mdfu
// Copyright (c) 2026 The go-mdfu Authors.
// SPDX-License-Identifier: LGPL-3.0-or-later
//
// This file is part of go-mdfu.
//
// go-mdfu is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 3 of the License, or (at your option) any later version.
//
// go-mdfu is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with go-mdfu; if not, write to the Free Software Foundation,
// Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

// Command mdfu updates firmware on an MDFU client through a serial
// adapter, a TCP tunnel, a spidev device or an i2cdev device.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	mdfu "github.com/mdfu-host/go-mdfu"
	"github.com/mdfu-host/go-mdfu/imagefile"
	"github.com/mdfu-host/go-mdfu/tool"
)

const version = "1.0.0"

const usage = `mdfu [-h | --help] [-v <level> | --verbose <level>] [-V | --version] [-R | --release-info] <action>

Actions
    update:         Perform a firmware update
    client-info:    Get MDFU client information
    change-mode:    Ask the client to leave firmware update mode
    dump:           Read the firmware image back from the client (not
                    supported by this protocol revision; always fails)
    tools-help:     Get help on tool specific parameters

Common arguments
    --tool <tool>   Tool to connect through: serial, network, spidev, i2cdev
    --image <file>  Firmware image file (update and dump actions)

Optional arguments
    -v <level>, --verbose <level>
                    Logging verbosity level: error, warning, info, debug.
                    Default is info.

Usage examples

    Update firmware through a serial port with update_image.img
    mdfu update --tool serial --image update_image.img --port /dev/ttyACM0 --baudrate 115200
`

type options struct {
	toolName string
	image    string
	verbose  string
	retries  int
	cfg      tool.Config
}

// splitAction pulls the leading action word off the argument list.
// Invocations that only ask for help or version information carry no
// action and start directly with a flag.
func splitAction(args []string) (string, []string) {
	if len(args) == 0 || args[0] == "" || args[0][0] == '-' {
		return "", args
	}
	return args[0], args[1:]
}

func parseFlags(args []string) (*options, string, bool, error) {
	opts := &options{}
	fs := flag.NewFlagSet("mdfu", flag.ContinueOnError)
	fs.Usage = func() { fmt.Fprint(os.Stderr, usage) }

	showHelp := fs.Bool("h", false, "show this help message and exit")
	fs.BoolVar(showHelp, "help", false, "show this help message and exit")
	showVersion := fs.Bool("V", false, "print version number and exit")
	fs.BoolVar(showVersion, "version", false, "print version number and exit")
	showRelease := fs.Bool("R", false, "print release details and exit")
	fs.BoolVar(showRelease, "release-info", false, "print release details and exit")
	fs.StringVar(&opts.verbose, "v", "info", "logging verbosity level")
	fs.StringVar(&opts.verbose, "verbose", "info", "logging verbosity level")
	fs.StringVar(&opts.toolName, "tool", "", "tool to connect through")
	fs.StringVar(&opts.image, "image", "", "firmware image file")
	fs.IntVar(&opts.retries, "retries", mdfu.DefaultRetries, "command attempts per exchange")

	fs.StringVar(&opts.cfg.Port, "port", "", "serial device")
	fs.IntVar(&opts.cfg.BaudRate, "baudrate", 0, "serial baud rate")
	fs.BoolVar(&opts.cfg.Buffered, "buffered", false, "send each serial frame in a single write")
	fs.StringVar(&opts.cfg.Host, "host", "", "network tool host")
	fs.IntVar(&opts.cfg.TCPPort, "tcp-port", 0, "network tool TCP port")
	fs.StringVar(&opts.cfg.Device, "dev", "", "spidev device")
	fs.Int64Var(&opts.cfg.ClockSpeed, "clk-speed", 0, "SPI clock speed in Hz")
	fs.IntVar(&opts.cfg.Mode, "mode", 0, "SPI mode (0-3)")
	fs.StringVar(&opts.cfg.Bus, "bus", "", "i2cdev bus")
	addr := fs.Uint("address", 0, "i2cdev client address")

	action, rest := splitAction(args)
	if err := fs.Parse(rest); err != nil {
		return nil, "", false, err
	}
	// Common flags may also precede the action word.
	if action == "" && fs.NArg() > 0 {
		action = fs.Arg(0)
		if err := fs.Parse(fs.Args()[1:]); err != nil {
			return nil, "", false, err
		}
	}
	opts.cfg.Address = uint16(*addr)

	if *showHelp {
		fs.Usage()
		return opts, "", false, nil
	}
	if *showVersion {
		fmt.Println(version)
		return opts, "", false, nil
	}
	if *showRelease {
		fmt.Printf("mdfu %s implementing MDFU protocol %s\n", version, mdfu.HostProtocolVersion)
		return opts, "", false, nil
	}
	return opts, action, true, nil
}

func setLogLevel(name string) error {
	levels := map[string]logrus.Level{
		"error":   logrus.ErrorLevel,
		"warning": logrus.WarnLevel,
		"info":    logrus.InfoLevel,
		"debug":   logrus.DebugLevel,
	}
	level, ok := levels[name]
	if !ok {
		return fmt.Errorf("invalid verbosity level %q, valid levels are error, warning, info and debug", name)
	}
	mdfu.SetLogLevel(level)
	return nil
}

// newDevice assembles the transport stack for the selected tool and
// binds a device to it.
func newDevice(opts *options) (*mdfu.Device, error) {
	if opts.toolName == "" {
		return nil, fmt.Errorf("the following arguments are required: --tool")
	}
	transport, err := tool.New(tool.Type(opts.toolName), opts.cfg)
	if err != nil {
		return nil, err
	}
	return mdfu.New(transport, mdfu.WithRetries(opts.retries))
}

func runUpdate(opts *options) error {
	if opts.image == "" {
		return fmt.Errorf("the following arguments are required: --image")
	}
	device, err := newDevice(opts)
	if err != nil {
		return err
	}
	image, err := imagefile.Open(opts.image)
	if err != nil {
		return err
	}
	if err := device.Open(); err != nil {
		_ = image.Close()
		return err
	}

	updateErr := device.RunUpdate(image)

	// Session first, image source second, on success and failure alike.
	if err := device.Close(); err != nil && updateErr == nil {
		updateErr = err
	}
	if err := image.Close(); err != nil && updateErr == nil {
		updateErr = err
	}
	if updateErr != nil {
		return updateErr
	}
	fmt.Println("Firmware update completed successfully")
	return nil
}

func runClientInfo(opts *options) error {
	device, err := newDevice(opts)
	if err != nil {
		return err
	}
	if err := device.Open(); err != nil {
		return err
	}
	info, err := device.GetClientInfo()
	if closeErr := device.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return err
	}
	fmt.Print(info)
	return nil
}

func runChangeMode(opts *options) error {
	device, err := newDevice(opts)
	if err != nil {
		return err
	}
	if err := device.Open(); err != nil {
		return err
	}
	modeErr := device.RunChangeMode()
	if err := device.Close(); err != nil && modeErr == nil {
		modeErr = err
	}
	if modeErr != nil {
		return modeErr
	}
	fmt.Println("Mode change completed successfully")
	return nil
}

func runDump(opts *options) error {
	if opts.image == "" {
		return fmt.Errorf("the following arguments are required: --image")
	}
	device, err := newDevice(opts)
	if err != nil {
		return err
	}
	output, err := imagefile.Create(opts.image)
	if err != nil {
		return err
	}
	if err := device.Open(); err != nil {
		_ = output.Close()
		return err
	}

	dumpErr := device.RunDump(output)

	if err := device.Close(); err != nil && dumpErr == nil {
		dumpErr = err
	}
	if err := output.Close(); err != nil && dumpErr == nil {
		dumpErr = err
	}
	if dumpErr != nil {
		return dumpErr
	}
	fmt.Println("Firmware dump completed successfully")
	return nil
}

func run(args []string) int {
	opts, action, proceed, err := parseFlags(args)
	if err != nil {
		return 1
	}
	if !proceed {
		return 0
	}
	if err := setLogLevel(opts.verbose); err != nil {
		logrus.Error(err)
		return 1
	}
	if action == "" {
		fmt.Fprint(os.Stderr, usage)
		return 1
	}

	switch action {
	case "update":
		err = runUpdate(opts)
	case "client-info":
		err = runClientInfo(opts)
	case "change-mode":
		err = runChangeMode(opts)
	case "dump":
		err = runDump(opts)
	case "tools-help":
		fmt.Print(tool.Help())
	default:
		fmt.Fprintf(os.Stderr, "unknown action %q\n%s", action, usage)
		return 1
	}
	if err != nil {
		logrus.Error(err)
		return 1
	}
	return 0
}

func main() {
	os.Exit(run(os.Args[1:]))
}
