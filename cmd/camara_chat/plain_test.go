package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"camara_chat/pkg/chat"
)

func TestRunPlain(t *testing.T) {
	var requests []chat.Request
	sender := chat.SenderFunc(func(ctx context.Context, req chat.Request) (string, error) {
		requests = append(requests, req)
		if req.Message == "teste" {
			return "", errors.New("connection refused")
		}
		return "<b>Oi!</b>", nil
	})

	var out bytes.Buffer
	in := strings.NewReader("Olá\n   \nteste\n")
	if err := runPlain(context.Background(), in, &out, sender); err != nil {
		t.Fatalf("runPlain() error = %v", err)
	}

	if len(requests) != 2 {
		t.Fatalf("expected 2 requests, got %d", len(requests))
	}
	if requests[0].Message != "Olá" || len(requests[0].History) != 2 {
		t.Errorf("unexpected first request: %+v", requests[0])
	}

	got := out.String()
	for _, want := range []string{
		"Assistente: " + chat.Greeting,
		"Assistente: Oi!\n",
		"Assistente: " + chat.FallbackReply,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "<b>") {
		t.Errorf("markup leaked into plain output:\n%s", got)
	}
	if strings.Count(got, plainPrompt) != 4 {
		t.Errorf("expected 4 prompts, got %d:\n%s", strings.Count(got, plainPrompt), got)
	}
}

// syncBuffer guards output written by runPlain while the test reads it.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestRunPlain_CancelWhileWaitingForInput(t *testing.T) {
	pr, pw := io.Pipe()
	t.Cleanup(func() { pw.Close() })

	sender := chat.SenderFunc(func(ctx context.Context, req chat.Request) (string, error) {
		t.Error("no request expected without input")
		return "", nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- runPlain(ctx, pr, &syncBuffer{}, sender)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("runPlain() error = %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("runPlain did not return after cancellation while stdin was idle")
	}
}

func TestRunPlain_CancelDoesNotAbortSend(t *testing.T) {
	pr, pw := io.Pipe()
	t.Cleanup(func() { pw.Close() })

	started := make(chan struct{})
	release := make(chan struct{})
	var sendErr error
	sender := chat.SenderFunc(func(ctx context.Context, req chat.Request) (string, error) {
		close(started)
		<-release
		sendErr = ctx.Err()
		return "<b>Oi!</b>", nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	out := &syncBuffer{}
	done := make(chan error, 1)
	go func() {
		done <- runPlain(ctx, pr, out, sender)
	}()
	go func() {
		_, _ = pw.Write([]byte("Olá\n"))
	}()

	select {
	case <-started:
	case <-time.After(time.Second):
		t.Fatal("send never started")
	}
	cancel()
	close(release)

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("runPlain() error = %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("runPlain did not return after the in-flight send completed")
	}

	if sendErr != nil {
		t.Errorf("send context should survive cancellation, got %v", sendErr)
	}
	if got := out.String(); !strings.Contains(got, "Assistente: Oi!") || strings.Contains(got, chat.FallbackReply) {
		t.Errorf("expected the real reply, got:\n%s", got)
	}
}

func TestPrintVersion(t *testing.T) {
	var out bytes.Buffer
	printVersion(&out)

	for _, want := range []string{"camara_chat version", "commit:", "built:", "go:", "platform:"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("version output missing %q:\n%s", want, out.String())
		}
	}
}
