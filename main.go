/*
   R4300 - Emulator main.

   Copyright (c) 2024, Richard Cornwell

   Permission is hereby granted, free of charge, to any person obtaining a
   copy of this software and associated documentation files (the "Software"),
   to deal in the Software without restriction, including without limitation
   the rights to use, copy, modify, merge, publish, distribute, sublicense,
   and/or sell copies of the Software, and to permit persons to whom the
   Software is furnished to do so, subject to the following conditions:

   The above copyright notice and this permission notice shall be included in
   all copies or substantial portions of the Software.

   THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
   IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
   FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT.  IN NO EVENT SHALL
   RICHARD CORNWELL BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER
   IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN
   CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.

*/

package main

import (
	"io"
	"log/slog"
	"os"

	getopt "github.com/pborman/getopt/v2"

	reader "github.com/rcornwell/R4300/command/reader"
	config "github.com/rcornwell/R4300/config/configparser"
	"github.com/rcornwell/R4300/config/sysconfig"
	core "github.com/rcornwell/R4300/emu/core"
	master "github.com/rcornwell/R4300/emu/master"
	"github.com/rcornwell/R4300/emu/timer"
	logger "github.com/rcornwell/R4300/util/logger"

	_ "github.com/rcornwell/R4300/config/debugconfig"
	_ "github.com/rcornwell/R4300/util/debug"
)

const defaultConfig = "R4300.cfg"

func main() {
	optConfig := getopt.StringLong("config", 'c', "", "Configuration file (default R4300.cfg if present)")
	optLogFile := getopt.StringLong("log", 'l', "", "Log file")
	optROM := getopt.StringLong("rom", 'r', "", "Cartridge image")
	optScript := getopt.StringLong("script", 's', "", "Lua script to run")
	optBoot := getopt.BoolLong("boot", 'b', "Boot cartridge")
	optDebug := getopt.BoolLong("debug", 'd', "Log debug to console")
	optHelp := getopt.BoolLong("help", 'h', "Help")
	getopt.Parse()

	if *optHelp {
		getopt.Usage()
		os.Exit(0)
	}

	var logOut io.Writer
	if *optLogFile != "" {
		file, err := os.Create(*optLogFile)
		if err != nil {
			slog.Error("Unable to create log file", "error", err.Error())
			os.Exit(1)
		}
		defer file.Close()
		logOut = file
	}
	programLevel := new(slog.LevelVar)
	programLevel.Set(slog.LevelDebug)
	handler := logger.NewHandler(logOut, &slog.HandlerOptions{Level: programLevel, AddSource: false}, *optDebug)
	Logger := slog.New(handler)
	slog.SetDefault(Logger)

	Logger.Info("R4300 Started")

	// Configuration file is optional unless named.
	cfgName := *optConfig
	if cfgName == "" {
		cfgName = defaultConfig
	}
	_, err := os.Stat(cfgName)
	switch {
	case err == nil:
		err = config.LoadConfigFile(cfgName)
		if err != nil {
			Logger.Error(err.Error())
			os.Exit(1)
		}
	case *optConfig != "":
		Logger.Error("Configuration file " + cfgName + " can't be found")
		os.Exit(1)
	}

	settings := sysconfig.Config
	if settings.LogFile != "" && logOut == nil {
		file, err := os.Create(settings.LogFile)
		if err != nil {
			Logger.Error("Unable to create log file", "error", err.Error())
			os.Exit(1)
		}
		defer file.Close()
		handler.SetFile(file)
	}
	if *optROM != "" {
		settings.ROM = *optROM
	}
	if *optScript != "" {
		settings.Script = *optScript
	}
	if *optBoot {
		settings.Boot = true
	}

	emu := core.New(settings.MemoryK)
	emu.SetDynarec(settings.Dynarec)
	if settings.ROM != "" {
		if err := emu.LoadROM(settings.ROM); err != nil {
			Logger.Error(err.Error())
			os.Exit(1)
		}
	}

	masterChannel := make(chan master.Packet)

	// Create new routine to run CPU.
	cpu := core.NewCore(emu, masterChannel)
	cpu.SetPaced(settings.Paced)
	frames := timer.NewTimer(masterChannel)
	if settings.Paced {
		frames.Start()
	}

	// Start main emulator.
	go cpu.Start()

	if settings.Boot {
		if r := cpu.Request(master.Packet{Msg: master.Boot}); r.Err != nil {
			Logger.Error(r.Err.Error())
		} else {
			cpu.SendStart()
		}
	}
	if settings.Script != "" {
		if r := cpu.Request(master.Packet{Msg: master.Script, Name: settings.Script}); r.Err != nil {
			Logger.Error(r.Err.Error())
		}
	}

	reader.ConsoleReader(cpu)

	frames.Shutdown()
	cpu.Stop()
	Logger.Info("Emulator stopped.")
}
