// ABOUTME: Interactive chat loop over a conversation session
// ABOUTME: Slash commands inspect and control the session; other lines are user messages

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/fatih/color"

	"github.com/2389/converse/internal/conversation"
	"github.com/2389/converse/internal/transcript"
)

type repl struct {
	mgr *conversation.Manager

	mu  sync.Mutex // serializes writes from the loop and the end watcher
	out io.Writer

	prompt *color.Color
	reply  *color.Color
	action *color.Color
	dim    *color.Color
	warn   *color.Color
}

func newREPL(mgr *conversation.Manager, out io.Writer) *repl {
	return &repl{
		mgr:    mgr,
		out:    out,
		prompt: color.New(color.FgGreen),
		reply:  color.New(color.FgCyan),
		action: color.New(color.FgMagenta),
		dim:    color.New(color.Faint, color.Italic),
		warn:   color.New(color.FgYellow),
	}
}

func (r *repl) printf(c *color.Color, format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c == nil {
		fmt.Fprintf(r.out, format, args...)
		return
	}
	c.Fprintf(r.out, format, args...)
}

// watchEnds reports conversations that end outside a turn, such as by inactivity.
func (r *repl) watchEnds(ctx context.Context) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	events, _ := r.mgr.Subscribe(ctx, conversation.EventConversationEnd)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for e := range events {
			r.printf(r.warn, "\n[conversation %s ended after %d messages; /new to start another]\n",
				short(e.End.ConversationID), e.End.MessageCount)
		}
	}()
	return func() {
		cancel()
		<-done
	}
}

// run reads lines from in until EOF, /quit, or ctx cancellation.
func (r *repl) run(ctx context.Context, in io.Reader) error {
	r.printf(r.reply, "Type a message, or /help for commands (Ctrl+D to exit)\n\n")

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, bufio.MaxScanTokenSize), 1024*1024) // 1MB max input
	for {
		if ctx.Err() != nil {
			return nil
		}
		r.printf(r.prompt, "> ")
		if !scanner.Scan() {
			// EOF (Ctrl+D) or error
			r.printf(nil, "\n")
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			if quit := r.command(line); quit {
				return nil
			}
			continue
		}
		r.send(ctx, line)
	}
}

func (r *repl) send(ctx context.Context, text string) {
	reply, err := r.mgr.ProcessMessage(ctx, text)
	switch {
	case errors.Is(err, conversation.ErrConversationEnded):
		r.printf(r.warn, "The conversation has ended. Use /new to start another.\n")
		return
	case err != nil && reply.ID == "":
		r.printf(r.warn, "Error: %v\n", err)
		return
	}

	r.printf(r.reply, "%s\n", reply.Text)
	meta := fmt.Sprintf("  intent=%s", reply.Intent)
	if c, ok := reply.Metadata[conversation.MetaConfidence].(float64); ok {
		meta += fmt.Sprintf(" confidence=%.2f", c)
	}
	if f, _ := reply.Metadata[conversation.MetaFollowUpIntent].(string); f != "" {
		meta += " follow_up=" + f
	}
	r.printf(r.dim, "%s\n", meta)
	if reply.Action != "" {
		r.printf(r.action, "  ⚙ %s %s\n", reply.Action, formatParams(reply.ActionParams))
	}
	if err != nil {
		r.printf(r.warn, "  (%v)\n", err)
	}
}

// command runs a slash command and reports whether the loop should exit.
func (r *repl) command(line string) bool {
	fields := strings.Fields(line)
	name, args := fields[0], fields[1:]

	switch name {
	case "/quit", "/exit":
		return true
	case "/help":
		r.printf(nil, "%s", replHelp)
	case "/new":
		if err := r.mgr.StartNewConversation(); err != nil {
			r.printf(r.warn, "Error: %v\n", err)
			return false
		}
		r.printf(r.reply, "Started conversation %s\n", short(r.mgr.GetConversationId()))
	case "/end":
		if r.mgr.GetState() == conversation.StateEnded {
			r.printf(r.dim, "Already ended.\n")
			return false
		}
		r.mgr.EndConversation()
	case "/state":
		r.printf(nil, "state:           %s\n", r.mgr.GetState())
		r.printf(nil, "conversation id: %s\n", r.mgr.GetConversationId())
		state := r.mgr.GetConversationState()
		if len(state) == 0 {
			r.printf(r.dim, "(no conversation state)\n")
		}
		for _, k := range slices.Sorted(maps.Keys(state)) {
			r.printf(nil, "  %s = %v\n", k, state[k])
		}
	case "/history":
		hist := r.mgr.GetMessageHistory()
		if len(hist) == 0 {
			r.printf(r.dim, "(no messages)\n")
		}
		for _, m := range hist {
			who := "bot "
			if m.IsUser {
				who = "you "
			}
			r.printf(r.dim, "%s ", m.Timestamp.Format("15:04:05"))
			r.printf(nil, "%s %s\n", who, m.Text)
		}
	case "/intents":
		r.mu.Lock()
		printIntents(r.out, r.mgr)
		r.mu.Unlock()
	case "/transcript":
		if len(args) == 0 {
			r.printf(nil, "%s", transcript.Markdown(r.mgr.GetTranscript()))
			return false
		}
		if err := writeTranscript(args[0], r.mgr); err != nil {
			r.printf(r.warn, "Error: %v\n", err)
			return false
		}
		r.printf(r.dim, "transcript written to %s\n", args[0])
	default:
		r.printf(r.warn, "Unknown command %s (try /help)\n", name)
	}
	return false
}

const replHelp = `Commands:
  /new              Start a new conversation
  /end              End the current conversation
  /state            Show session state and conversation state
  /history          Show retained messages
  /intents          List the intent catalog
  /transcript [F]   Print the transcript, or write it to F (.md or .html)
  /help             Show this help
  /quit             Exit
`

// writeTranscript writes the session history as HTML when path ends in .html,
// Markdown otherwise.
func writeTranscript(path string, mgr *conversation.Manager) error {
	id, hist := mgr.GetTranscript()

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating transcript: %w", err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		err = transcript.WriteHTML(f, id, hist)
	default:
		_, err = io.WriteString(f, transcript.Markdown(id, hist))
	}
	if err != nil {
		return fmt.Errorf("writing transcript: %w", err)
	}
	return f.Close()
}

func formatParams(params map[string]any) string {
	parts := make([]string, 0, len(params))
	for _, k := range slices.Sorted(maps.Keys(params)) {
		parts = append(parts, fmt.Sprintf("%s=%v", k, params[k]))
	}
	return strings.Join(parts, " ")
}

func short(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
