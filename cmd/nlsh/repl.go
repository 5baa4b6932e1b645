// ABOUTME: Line-oriented interactive loop for the bare nlsh command
// ABOUTME: Prompts and confirms on a terminal; piped input is planned and printed only

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

const prompt = "nlsh> "

var quitWords = map[string]bool{"exit": true, "quit": true, "q": true, "退出": true}

func (a *app) repl(ctx context.Context, r io.Reader, w io.Writer) error {
	interactive := stdinIsTerminal(r)
	in := bufio.NewReader(r)

	for {
		if interactive {
			fmt.Fprint(w, prompt)
		}
		line, err := in.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("reading input: %w", err)
		}
		text := strings.TrimSpace(line)
		if quitWords[strings.ToLower(text)] {
			return nil
		}

		if text != "" {
			if interactive {
				if herr := a.handle(ctx, text, in, w, false); herr != nil {
					fmt.Fprintln(w, a.render.Error(herr))
				}
			} else {
				a.printResult(w, a.agent.Plan(ctx, text))
			}
		}

		if errors.Is(err, io.EOF) || ctx.Err() != nil {
			if interactive {
				fmt.Fprintln(w)
			}
			return nil
		}
	}
}
