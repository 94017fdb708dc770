package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
)

// Source feeds operator lines in and carries replies back.
type Source interface {
	Next(ctx context.Context) (string, error)
	Reply(ctx context.Context, text string) error
}

// Stdio reads lines from r and writes replies to w. Next returns io.EOF at end of input.
type Stdio struct {
	mu     sync.Mutex
	lines  chan string
	err    error // set before lines is closed
	w      io.Writer
	prompt string
}

func NewStdio(r io.Reader, w io.Writer, prompt string) *Stdio {
	s := &Stdio{lines: make(chan string), w: w, prompt: prompt}
	go func() {
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			s.lines <- sc.Text()
		}
		s.err = io.EOF
		if err := sc.Err(); err != nil {
			s.err = err
		}
		close(s.lines)
	}()
	return s
}

func (s *Stdio) Next(ctx context.Context) (string, error) {
	if s.prompt != "" {
		s.mu.Lock()
		_, _ = io.WriteString(s.w, s.prompt)
		s.mu.Unlock()
	}
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case line, ok := <-s.lines:
		if !ok {
			return "", s.err
		}
		return line, nil
	}
}

func (s *Stdio) Reply(_ context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := fmt.Fprintln(s.w, text)
	return err
}
