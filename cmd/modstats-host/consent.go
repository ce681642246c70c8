// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/bureau-foundation/modstats/lib/identity"
)

const (
	consentIntro = `This application can send anonymous usage statistics: how long you
spend in each part of the game, your hardware summary, and which add-ons
are installed. No personal information is collected.

`
	consentQuestion = "Send statistics? [y]es / [n]o / [l]ater: "
)

// emphasis is a no-op when stdout is not a terminal.
var emphasis = color.New(color.Bold)

// terminalConsent asks on an interactive terminal. Without a terminal
// the request is skipped, which leaves the agent disabled for this
// session and asks again next time.
type terminalConsent struct {
	input    io.Reader
	output   io.Writer
	terminal func() bool
}

func newTerminalConsent(input *os.File, output io.Writer) *terminalConsent {
	return &terminalConsent{
		input:    input,
		output:   output,
		terminal: func() bool { return term.IsTerminal(int(input.Fd())) },
	}
}

// Request prompts until the answer is recognized, the input ends, or
// ctx is done.
func (c *terminalConsent) Request(ctx context.Context) (identity.Identity, bool) {
	if !c.terminal() {
		return identity.Identity{}, false
	}

	// When ctx is cancelled the reader stays blocked in Scan until
	// input arrives or the process exits. Consent is requested at most
	// once per process, so at most one reader is left behind.
	answers := make(chan string)
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		defer close(answers)
		scanner := bufio.NewScanner(c.input)
		fmt.Fprint(c.output, consentIntro)
		emphasis.Fprint(c.output, consentQuestion)
		for scanner.Scan() {
			select {
			case answers <- strings.ToLower(strings.TrimSpace(scanner.Text())):
			case <-stop:
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return identity.Identity{}, false
		case answer, open := <-answers:
			if !open {
				return identity.Identity{}, false
			}
			switch answer {
			case "y", "yes":
				return identity.New(), true
			case "n", "no":
				refusal := identity.New()
				refusal.Enabled = false
				return refusal, true
			case "l", "later", "":
				return identity.Identity{}, false
			default:
				fmt.Fprint(c.output, "Please answer y, n, or l: ")
			}
		}
	}
}

// acceptConsent accepts without asking, for --yes.
type acceptConsent struct{}

func (acceptConsent) Request(context.Context) (identity.Identity, bool) {
	return identity.New(), true
}
