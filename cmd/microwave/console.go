package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/sweeney/microwave/internal/logger"
)

// command is one console instruction.
type command string

const (
	cmdPower command = "power"
	cmdTime  command = "time"
	cmdStart command = "start"
	cmdOpen  command = "open"
	cmdClose command = "close"
	cmdQuit  command = "quit"
)

var aliases = map[string]command{
	"power": cmdPower, "p": cmdPower,
	"time": cmdTime, "t": cmdTime,
	"start": cmdStart, "s": cmdStart, "cancel": cmdStart,
	"open": cmdOpen, "o": cmdOpen,
	"close": cmdClose, "c": cmdClose,
	"quit": cmdQuit, "q": cmdQuit, "exit": cmdQuit,
}

const consoleHelp = "commands: power|p, time|t, start|s, open|o, close|c, quit|q"

// parseCommand maps a console line to a command. ok is false for blank
// lines; err is set for anything unrecognised.
func parseCommand(line string) (cmd command, ok bool, err error) {
	word := strings.ToLower(strings.TrimSpace(line))
	if word == "" {
		return "", false, nil
	}
	cmd, found := aliases[word]
	if !found {
		return "", false, fmt.Errorf("unknown command %q", word)
	}
	return cmd, true, nil
}

// readCommands scans r until EOF, sending each command on out. Unknown
// input is logged and answered with the command list on help. out is
// closed on EOF.
func readCommands(r io.Reader, out chan<- command, help io.Writer, log *logger.Logger) {
	defer close(out)

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		cmd, ok, err := parseCommand(sc.Text())
		if err != nil {
			log.Warnw("console", "error", err)
			fmt.Fprintln(help, consoleHelp)
			continue
		}
		if ok {
			out <- cmd
		}
	}
	if err := sc.Err(); err != nil {
		log.Errorw("console read failed", "error", err)
	}
}
