package main

import (
	"errors"
	"fmt"
	"os"

	"safework/internal/app"

	"golang.org/x/term"
)

// passphraseSource returns a function that reads the passphrase from
// SAFEWORK_PASSPHRASE, or prompts for it on the terminal. With confirm set
// the prompt asks twice and the answers must match.
func passphraseSource(confirm bool) func() (string, error) {
	return func() (string, error) {
		env, err := app.LoadEnv()
		if err != nil {
			return "", err
		}
		if env.Passphrase != "" {
			return env.Passphrase, nil
		}

		fd := int(os.Stdin.Fd())
		if !term.IsTerminal(fd) {
			return "", errors.New("no terminal to prompt for the passphrase: set SAFEWORK_PASSPHRASE")
		}

		pass, err := prompt(fd, "Passphrase: ")
		if err != nil {
			return "", err
		}
		if pass == "" {
			return "", errors.New("empty passphrase")
		}
		if confirm {
			again, err := prompt(fd, "Repeat passphrase: ")
			if err != nil {
				return "", err
			}
			if again != pass {
				return "", errors.New("passphrases do not match")
			}
		}
		return pass, nil
	}
}

func prompt(fd int, label string) (string, error) {
	fmt.Fprint(os.Stderr, label)
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading passphrase: %w", err)
	}
	return string(b), nil
}
