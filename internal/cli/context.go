// Package cli implements the command bodies behind cmd/app.
package cli

import (
	"fmt"
	"log/slog"
	"time"

	"adcp/config"
	"adcp/internal/calllog"
	"adcp/internal/creative"
	"adcp/internal/mcp"
	"adcp/pkg/db"
	"adcp/pkg/migration"
)

// Options carries the persistent flags shared by every command.
type Options struct {
	AgentName  string
	BaseURL    string
	LogFile    string
	Timeout    time.Duration
	RetryDelay time.Duration
	MaxRetries int
	JSON       bool
}

// ResolveBaseURL picks the agent base address: an explicit --base-url
// wins, otherwise the registry entry for --agent (or the default).
func (o Options) ResolveBaseURL() (string, error) {
	if o.BaseURL != "" {
		return o.BaseURL, nil
	}

	registry, err := config.LoadAgentRegistry()
	if err != nil {
		return "", err
	}
	agent, err := registry.Resolve(o.AgentName)
	if err != nil {
		return "", err
	}
	return agent.BaseURL, nil
}

// session bundles the wired client stack for one command invocation.
type session struct {
	base   string
	client *mcp.Client
	tasks  *creative.Tasks
	store  *calllog.Store
	close  func()
}

// buildRecorder wires the call recorders. History persistence is best
// effort: a failed database open degrades to file-only logging with a
// warning.
func buildRecorder(opts Options) (mcp.Recorder, *calllog.Store, func()) {
	var closers []func()
	var recorders []mcp.Recorder

	logPath := opts.LogFile
	if logPath == "" {
		if p, err := config.GetCallLogPath(); err == nil {
			logPath = p
		}
	}
	if logPath != "" {
		if fileRec, err := calllog.NewFileRecorder(logPath); err == nil {
			recorders = append(recorders, fileRec)
			closers = append(closers, func() { fileRec.Close() })
		} else {
			slog.Warn("call log file unavailable", "path", logPath, "error", err)
		}
	}

	var store *calllog.Store
	if dbPath, err := config.GetDatabasePath(); err == nil {
		if database, err := db.Open(dbPath); err == nil {
			if err := migration.NewRunner(database.Write()).Run(); err != nil {
				slog.Warn("call history migrations failed", "error", err)
				database.Close()
			} else {
				store = calllog.NewStore(database)
				recorders = append(recorders, store)
				closers = append(closers, func() { database.Close() })
			}
		} else {
			slog.Warn("call history unavailable", "path", dbPath, "error", err)
		}
	}

	return calllog.Multi(recorders...), store, func() {
		for _, fn := range closers {
			fn()
		}
	}
}

// clientOptions maps flag overrides onto client options.
func clientOptions(opts Options, recorder mcp.Recorder) []mcp.Option {
	clientOpts := []mcp.Option{mcp.WithRecorder(recorder)}
	if opts.Timeout > 0 {
		clientOpts = append(clientOpts, mcp.WithTimeout(opts.Timeout))
	}
	if opts.RetryDelay > 0 {
		clientOpts = append(clientOpts, mcp.WithRetryDelay(opts.RetryDelay))
	}
	if opts.MaxRetries > 0 {
		clientOpts = append(clientOpts, mcp.WithMaxRetries(opts.MaxRetries))
	}
	return clientOpts
}

// newSession resolves the agent and wires the client with its recorders.
func newSession(opts Options) (*session, error) {
	base, err := opts.ResolveBaseURL()
	if err != nil {
		return nil, err
	}

	recorder, store, closeRec := buildRecorder(opts)
	client := mcp.New(base, clientOptions(opts, recorder)...)

	return &session{
		base:   base,
		client: client,
		tasks:  creative.NewTasks(client, base),
		store:  store,
		close:  closeRec,
	}, nil
}

// openHistoryStore opens just the sqlite history for read commands.
func openHistoryStore() (*calllog.Store, func(), error) {
	dbPath, err := config.GetDatabasePath()
	if err != nil {
		return nil, nil, err
	}
	database, err := db.Open(dbPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open call history: %w", err)
	}
	if err := migration.NewRunner(database.Write()).Run(); err != nil {
		database.Close()
		return nil, nil, fmt.Errorf("migrate call history: %w", err)
	}
	return calllog.NewStore(database), func() { database.Close() }, nil
}
