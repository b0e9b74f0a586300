package main

import (
	"fmt"
	"os"

	"golang.org/x/term"
)

// promptPassword reads the device password from the terminal without echo.
var promptPassword = func(user, host string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("no password: use -p, -k, or run from a terminal")
	}
	fmt.Fprintf(os.Stderr, "Password for %s@%s: ", user, host)
	pass, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return string(pass), nil
}
