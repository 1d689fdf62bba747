package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	"camara_chat/pkg/chat"
	"camara_chat/pkg/markup"
)

const plainPrompt = "> "

// lineTranscript prints assistant turns as plain text. User turns are
// already on screen as typed input.
type lineTranscript struct {
	out io.Writer
}

func (t lineTranscript) Append(msg chat.Message) {
	if msg.Role != chat.RoleAssistant {
		return
	}
	fmt.Fprintf(t.out, "Assistente: %s\n\n", markup.Text(msg.Content))
}

// runPlain drives the widget one line at a time until EOF or ctx is cancelled.
// Cancellation stops the prompt at once, but a send already in flight runs to
// completion.
func runPlain(ctx context.Context, in io.Reader, out io.Writer, sender chat.Sender) error {
	widget, err := chat.New(lineTranscript{out: out})
	if err != nil {
		return err
	}

	lines, readErr := readLines(ctx, in)
	sendCtx := context.WithoutCancel(ctx)
	for {
		fmt.Fprint(out, plainPrompt)

		var line string
		select {
		case <-ctx.Done():
			fmt.Fprintln(out)
			return nil
		case err := <-readErr:
			fmt.Fprintln(out)
			return err
		case line = <-lines:
		}

		err := widget.Submit(sendCtx, line, sender)
		if err != nil && !errors.Is(err, chat.ErrEmptyMessage) {
			return err
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

// readLines scans in on its own goroutine so a blocked read never holds up
// cancellation. The error channel yields once, at EOF or on a read failure.
func readLines(ctx context.Context, in io.Reader) (<-chan string, <-chan error) {
	lines := make(chan string)
	errc := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		errc <- scanner.Err()
	}()
	return lines, errc
}
