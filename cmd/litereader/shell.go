package main

import (
	"bufio"
	"fmt"
	"strings"

	dberrors "github.com/FocuswithJustin/litereader/core/errors"
	"github.com/FocuswithJustin/litereader/core/sqlite"
	"github.com/FocuswithJustin/litereader/internal/logging"
)

const shellPrompt = "litereader> "

// ShellCmd reads dot-commands from stdin against one open database.
type ShellCmd struct {
	Path     string `arg:"" help:"Database file" type:"existingfile"`
	NoPrompt bool   `name:"no-prompt" help:"Do not print the prompt or banner"`
}

func (c *ShellCmd) Run(app *App) error {
	return app.track("shell", c.Path, func(db *sqlite.DB) error {
		sh := &shell{app: app, db: db, prompt: !c.NoPrompt}
		return sh.run()
	})
}

type shell struct {
	app    *App
	db     *sqlite.DB
	prompt bool
}

func (s *shell) run() error {
	logging.InfoContext(s.app.ctx, "shell_started", "path", s.db.Path())
	if s.prompt {
		s.app.printf("Connected to %s\n", s.db.Path())
		s.app.printf("Enter .tables, .dbinfo or .help; .exit quits\n")
	}

	scanner := bufio.NewScanner(s.app.in)
	for {
		if s.prompt {
			s.app.printf("%s", shellPrompt)
		}
		if !scanner.Scan() {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if done := s.exec(line); done {
			return nil
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read shell input: %w", err)
	}
	if s.prompt {
		s.app.printf("\n")
	}
	return nil
}

// exec runs one input line and reports whether the shell should stop.
// Errors are printed and the session continues.
func (s *shell) exec(line string) bool {
	var err error
	switch strings.ToLower(line) {
	case ".exit", ".quit", "exit", "quit":
		return true
	case ".tables":
		err = s.app.printTables(s.db)
	case ".dbinfo":
		err = s.app.printDBInfo(s.db)
	case ".help":
		s.app.printf(".dbinfo    Show the page size and table count\n")
		s.app.printf(".tables    List user tables\n")
		s.app.printf(".exit      Leave the shell\n")
	default:
		if strings.HasPrefix(line, ".") {
			err = dberrors.NewNotFound("command", strings.Fields(line)[0])
		} else {
			err = dberrors.NewUnsupported("input", "SQL statements are not executed; use .tables or .dbinfo")
			logging.WarnContext(s.app.ctx, "shell_input_rejected", "input", line)
		}
	}

	if err != nil {
		logging.ErrorContext(s.app.ctx, "shell_command_failed", "input", line, "error", err.Error())
		s.app.printf("Error: %v\n", err)
	}
	return false
}
