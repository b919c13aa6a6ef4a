package main

import (
	"fmt"
	"os"
	"strings"
)

// uiMode selects whether analyze and build render the live progress
// view. Auto follows stdout being a terminal.
type uiMode uint8

const (
	uiAuto uiMode = iota
	uiOn
	uiOff
)

func readUIMode(value string) (uiMode, error) {
	switch strings.TrimSpace(strings.ToLower(value)) {
	case "", "auto":
		return uiAuto, nil
	case "on":
		return uiOn, nil
	case "off":
		return uiOff, nil
	}
	return uiAuto, fmt.Errorf("--ui accepts auto, on or off, not %q", value)
}

func shouldUseTUI(mode uiMode) bool {
	switch mode {
	case uiOn:
		return true
	case uiOff:
		return false
	}
	return isTerminal(os.Stdout)
}
