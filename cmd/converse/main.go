// ABOUTME: Entry point for the converse CLI
// ABOUTME: Interactive chat, one-shot classification, and intent listing over a local session

package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/2389/converse/internal/config"
	"github.com/2389/converse/internal/conversation"
)

// version is set at build time via -ldflags.
var version = "dev"

const banner = `
  ___ ___  _ ____   _____ _ __ ___  ___
 / __/ _ \| '_ \ \ / / _ \ '__/ __|/ _ \
| (_| (_) | | | \ V /  __/ |  \__ \  __/
 \___\___/|_| |_|\_/ \___|_|  |___/\___|
`

// getConfigPath returns the config file path and whether it was chosen explicitly.
// Priority: --config flag > CONVERSE_CONFIG env var > XDG_CONFIG_HOME/converse/config.yaml > ~/.config/converse/config.yaml
func getConfigPath(flagPath string) (string, bool) {
	if flagPath != "" {
		return flagPath, true
	}
	if envPath := os.Getenv("CONVERSE_CONFIG"); envPath != "" {
		return envPath, true
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "config.yaml", false // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "converse", "config.yaml"), false
}

// loadConfig loads the resolved config. A missing file at the default
// location means built-in defaults; an explicitly named file must exist.
func loadConfig(flagPath string) (*config.Config, string, error) {
	path, explicit := getConfigPath(flagPath)
	cfg, err := config.Load(path)
	if err == nil {
		return cfg, path, nil
	}
	if !explicit && errors.Is(err, os.ErrNotExist) {
		return config.Default(), "(defaults)", nil
	}
	return nil, path, fmt.Errorf("loading config from %s: %w", path, err)
}

func main() {
	if len(os.Args) < 2 {
		printUsage(os.Stderr)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "chat":
		err = runChat(ctx, args)
	case "classify":
		err = runClassify(args, os.Stdout)
	case "intents":
		err = runIntents(args, os.Stdout)
	case "version":
		fmt.Printf("converse %s\n", version)
	case "help", "-h", "--help":
		printUsage(os.Stdout)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		printUsage(os.Stderr)
		os.Exit(1)
	}

	if err != nil {
		color.Red("Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage(w io.Writer) {
	cyan := color.New(color.FgCyan)
	yellow := color.New(color.FgYellow)

	cyan.Fprint(w, banner)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage: converse <command> [flags] [args]")
	fmt.Fprintln(w)
	yellow.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  chat [--transcript FILE]   Interactive conversation (REPL)")
	fmt.Fprintln(w, "  classify TEXT              Classify one utterance, print JSON")
	fmt.Fprintln(w, "  intents                    List the intent catalog")
	fmt.Fprintln(w, "  version                    Print version")
	fmt.Fprintln(w)
	yellow.Fprintln(w, "Flags (all commands):")
	fmt.Fprintln(w, "  --config PATH              Config file (.yaml, .yml, .toml)")
	fmt.Fprintln(w)
	yellow.Fprintln(w, "Environment:")
	fmt.Fprintln(w, "  CONVERSE_CONFIG            Config file path (default: ~/.config/converse/config.yaml)")
	fmt.Fprintln(w)
}

func newSession(cfgPath string) (*conversation.Manager, *config.Config, string, error) {
	cfg, path, err := loadConfig(cfgPath)
	if err != nil {
		return nil, nil, path, err
	}
	logger := setupLogger(cfg.Logging)
	mgr, err := conversation.New(cfg.ConversationOptions(), logger)
	if err != nil {
		return nil, nil, path, fmt.Errorf("creating session: %w", err)
	}
	return mgr, cfg, path, nil
}

func runChat(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("chat", flag.ContinueOnError)
	cfgPath := fs.String("config", "", "Config file path")
	transcriptPath := fs.String("transcript", "", "Write the transcript to FILE on exit (.md or .html)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	mgr, cfg, path, err := newSession(*cfgPath)
	if err != nil {
		return err
	}
	defer mgr.Close()

	cyan := color.New(color.FgCyan)
	green := color.New(color.FgGreen)
	gray := color.New(color.FgHiBlack)

	cyan.Print(banner)
	gray.Printf("    version: %s\n\n", version)
	green.Print("    ▶ ")
	fmt.Printf("Config:     %s\n", path)
	green.Print("    ▶ ")
	fmt.Printf("Intents:    %d\n", len(mgr.Intents()))
	green.Print("    ▶ ")
	fmt.Printf("Threshold:  %.2f\n", cfg.Conversation.ConfidenceThreshold)
	if cfg.Conversation.AutoEndConversation {
		green.Print("    ▶ ")
		fmt.Printf("Idle end:   %s\n", cfg.Conversation.InactivityTimeout)
	}
	fmt.Println()

	r := newREPL(mgr, os.Stdout)
	stopWatch := r.watchEnds(ctx)
	defer stopWatch()

	replErr := r.run(ctx, os.Stdin)

	if *transcriptPath != "" {
		if err := writeTranscript(*transcriptPath, mgr); err != nil {
			return err
		}
		gray.Printf("transcript written to %s\n", *transcriptPath)
	}
	return replErr
}

func runClassify(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("classify", flag.ContinueOnError)
	cfgPath := fs.String("config", "", "Config file path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	text := strings.Join(fs.Args(), " ")
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("usage: classify TEXT")
	}

	mgr, _, _, err := newSession(*cfgPath)
	if err != nil {
		return err
	}
	defer mgr.Close()

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(mgr.Classify(text))
}

func runIntents(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("intents", flag.ContinueOnError)
	cfgPath := fs.String("config", "", "Config file path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	mgr, _, _, err := newSession(*cfgPath)
	if err != nil {
		return err
	}
	defer mgr.Close()

	printIntents(out, mgr)
	return nil
}

func printIntents(out io.Writer, mgr *conversation.Manager) {
	handled := make(map[string]bool)
	for _, name := range mgr.Handlers() {
		handled[name] = true
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "INTENT\tHANDLER\tENTITIES\tEXAMPLES")
	for _, def := range mgr.Intents() {
		h := "-"
		if handled[def.Name] {
			h = "yes"
		}
		entities := strings.Join(def.EntityTypes, ",")
		if entities == "" {
			entities = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", def.Name, h, entities, len(def.Examples))
	}
	w.Flush()
}
