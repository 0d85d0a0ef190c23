package core

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/mcpsh/mcpsh/internal/completion"
	"github.com/mcpsh/mcpsh/internal/history"
	"github.com/mcpsh/mcpsh/internal/prompt"
	"github.com/mcpsh/mcpsh/internal/styles"
	"github.com/mcpsh/mcpsh/internal/termtitle"
	"github.com/mcpsh/mcpsh/pkg/debounce"
)

// Commands is the fixed set of shell builtins, in the order they surface
// through completion.
var Commands = []string{
	"help",
	"list",
	"tools",
	"resources",
	"tool-details",
	"call",
	"read",
	"exit",
	"quit",
}

// Session is the slice of the session manager the shell depends on.
type Session interface {
	Snapshot() completion.Snapshot
	Tool(name string) (mcp.Tool, bool)
	Resource(uri string) (mcp.Resource, bool)
	CallTool(ctx context.Context, name string, args map[string]any) (string, bool, error)
	ReadResource(ctx context.Context, uri string) (string, error)
	Refresh(ctx context.Context) error
	ServerName() string
}

type Shell struct {
	session      Session
	history      *history.Manager
	provider     *completion.Provider
	logger       *zap.Logger
	out          io.Writer
	historyLimit int

	// scheduleRefresh re-discovers tools after commands, debounced so a
	// burst of commands triggers one refresh.
	scheduleRefresh func()
}

func NewShell(sess Session, historyManager *history.Manager, logger *zap.Logger, historyLimit int) *Shell {
	s := &Shell{
		session:      sess,
		history:      historyManager,
		provider:     &completion.Provider{Snapshot: sess.Snapshot},
		logger:       logger,
		out:          os.Stdout,
		historyLimit: historyLimit,
	}
	s.scheduleRefresh = debounce.Debounce(2*time.Second, func() {
		if err := sess.Refresh(context.Background()); err != nil {
			logger.Debug("background refresh failed", zap.Error(err))
		}
	})
	return s
}

// RunInteractiveShell reads and dispatches commands until the user exits.
func (s *Shell) RunInteractiveShell(ctx context.Context) error {
	chanSIGINT := make(chan os.Signal, 1)
	signal.Notify(chanSIGINT, os.Interrupt)
	defer signal.Stop(chanSIGINT)

	go func() {
		for {
			// the prompt handles Ctrl+C itself
			<-chanSIGINT
		}
	}()

	title := "mcpsh"
	if name := s.session.ServerName(); name != "" {
		title += ": " + name
	}
	titleManager := termtitle.NewManager()
	_ = titleManager.SetTitle(title)
	defer func() {
		_ = titleManager.Reset()
	}()

	fmt.Fprintln(s.out, styles.NOTICE("mcpsh - interactive MCP shell. Type 'help' for commands."))

	for {
		entries, err := s.history.GetRecentEntries(s.historyLimit)
		if err != nil {
			s.logger.Warn("error getting recent history entries", zap.Error(err))
			entries = nil
		}
		historyCommands := lo.Map(entries, func(e history.Entry, _ int) string { return e.Command })

		line, err := prompt.Read(s.promptText(), historyCommands, s.provider, s.logger)
		if err != nil {
			if err == prompt.ErrInterrupted {
				s.logger.Debug("input interrupted by user")
				continue
			}
			if err == prompt.ErrEOF {
				s.logger.Debug("eof at prompt, exiting")
				return nil
			}
			s.logger.Error("error reading input", zap.Error(err))
			return err
		}

		if strings.TrimSpace(line) == "" {
			continue
		}

		s.logger.Debug("received command", zap.String("line", line))

		entry, _ := s.history.StartCommand(line, s.session.ServerName())
		shouldExit, exitCode := s.Execute(ctx, line)
		_, _ = s.history.FinishCommand(entry, exitCode)
		s.scheduleRefresh()

		if shouldExit {
			s.logger.Debug("exiting...")
			return nil
		}
	}
}

func (s *Shell) promptText() string {
	name := s.session.ServerName()
	if name == "" {
		name = "mcp"
	}
	return name + "> "
}

// Execute dispatches one submitted line. The line is tokenized with the
// same splitter completion uses, so a quoted multi-word name dispatches
// exactly as it completed. exitCode zero means success.
func (s *Shell) Execute(ctx context.Context, line string) (shouldExit bool, exitCode int) {
	seg := completion.Segment(line)

	switch seg.Verb {
	case "":
		return false, 0

	case "exit", "quit":
		return true, 0

	case "help":
		s.printHelp()
		return false, 0

	case "list":
		snap := s.session.Snapshot()
		s.printTools(snap.Tools)
		s.printResources(snap.Resources)
		return false, 0

	case "tools":
		s.printTools(s.session.Snapshot().Tools)
		return false, 0

	case "resources":
		s.printResources(s.session.Snapshot().Resources)
		return false, 0

	case "tool-details":
		return false, s.runToolDetails(seg)

	case "call":
		return false, s.runCall(ctx, seg)

	case "read":
		return false, s.runRead(ctx, seg)

	default:
		// A bare tool or resource name dispatches directly, as if prefixed
		// with call/read.
		if _, ok := s.session.Tool(seg.Verb); ok {
			direct := seg
			direct.Args = append([]completion.Token{{Text: seg.Verb}}, seg.Args...)
			return false, s.runCall(ctx, direct)
		}
		if _, ok := s.session.Resource(seg.Verb); ok {
			direct := seg
			direct.Args = []completion.Token{{Text: seg.Verb}}
			return false, s.runRead(ctx, direct)
		}

		fmt.Fprintln(s.out, styles.ERROR(fmt.Sprintf("unknown command: %s (try 'help')", seg.Verb)))
		return false, 1
	}
}

func (s *Shell) runToolDetails(seg completion.Segments) int {
	if len(seg.Args) == 0 {
		fmt.Fprintln(s.out, styles.ERROR("usage: tool-details <tool>"))
		return 1
	}

	name := seg.Args[0].Text
	tool, ok := s.session.Tool(name)
	if !ok {
		fmt.Fprintln(s.out, styles.ERROR("unknown tool: "+name))
		return 1
	}

	fmt.Fprint(s.out, renderToolDetails(tool, s.session.Snapshot().Schema(name)))
	return 0
}

func (s *Shell) runCall(ctx context.Context, seg completion.Segments) int {
	if len(seg.Args) == 0 {
		fmt.Fprintln(s.out, styles.ERROR("usage: call <tool> [{json arguments}]"))
		return 1
	}

	name := seg.Args[0].Text
	args := map[string]any{}
	if seg.HasJSON {
		if err := json.Unmarshal([]byte(seg.JSONFragment), &args); err != nil {
			fmt.Fprintln(s.out, styles.ERROR("invalid JSON arguments: "+err.Error()))
			return 1
		}
	}

	text, isError, err := s.session.CallTool(ctx, name, args)
	if err != nil {
		s.logger.Error("tool call failed", zap.String("tool", name), zap.Error(err))
		fmt.Fprintln(s.out, styles.ERROR(err.Error()))
		return 1
	}

	if isError {
		fmt.Fprintln(s.out, styles.ERROR(text))
		return 1
	}

	fmt.Fprintln(s.out, text)
	return 0
}

func (s *Shell) runRead(ctx context.Context, seg completion.Segments) int {
	if len(seg.Args) == 0 {
		fmt.Fprintln(s.out, styles.ERROR("usage: read <resource-uri>"))
		return 1
	}

	uri := seg.Args[0].Text
	text, err := s.session.ReadResource(ctx, uri)
	if err != nil {
		s.logger.Error("resource read failed", zap.String("uri", uri), zap.Error(err))
		fmt.Fprintln(s.out, styles.ERROR(err.Error()))
		return 1
	}

	fmt.Fprintln(s.out, text)
	return 0
}

func (s *Shell) printHelp() {
	fmt.Fprint(s.out, renderHelp())
}

func (s *Shell) printTools(names []string) {
	snapshotTools := make([]mcp.Tool, 0, len(names))
	for _, name := range names {
		if tool, ok := s.session.Tool(name); ok {
			snapshotTools = append(snapshotTools, tool)
		}
	}
	fmt.Fprint(s.out, renderToolList(snapshotTools))
}

func (s *Shell) printResources(uris []string) {
	snapshotResources := make([]mcp.Resource, 0, len(uris))
	for _, uri := range uris {
		if resource, ok := s.session.Resource(uri); ok {
			snapshotResources = append(snapshotResources, resource)
		}
	}
	fmt.Fprint(s.out, renderResourceList(snapshotResources))
}
