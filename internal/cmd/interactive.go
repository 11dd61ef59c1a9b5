package cmd

import (
	"bufio"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/namelens/adlens/internal/adsearch"
	"github.com/namelens/adlens/internal/observability"
	"github.com/namelens/adlens/internal/output"
	"github.com/namelens/adlens/internal/session"
	"github.com/namelens/adlens/internal/view"
)

const interactiveHelp = `Type a query and press Enter to search.
  :retry       repeat the last search
  :show <n>    open the detail of result n
  :close       close the detail
  :depth <d>   set the depth for the next searches
  :status      check the backend again
  :help        show this help
  :quit        leave`

var interactiveCmd = &cobra.Command{
	Use:     "interactive",
	Aliases: []string{"repl"},
	Short:   "Search ads from a prompt, one query per line",
	Args:    cobra.NoArgs,
	RunE:    runInteractive,
}

func init() {
	rootCmd.AddCommand(interactiveCmd)
	interactiveCmd.Flags().String("depth", "", "Search depth (default search.default_depth)")
	interactiveCmd.Flags().Bool("no-color", false, "Disable colour")
}

func runInteractive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(nil)
	if err != nil {
		return err
	}
	depth, err := cmd.Flags().GetString("depth")
	if err != nil {
		return err
	}
	noColor, _ := cmd.Flags().GetBool("no-color")

	controller := newController(cfg, newBackend(cfg), observability.CLILogger)
	loop := &repl{
		controller: controller,
		in:         cmd.InOrStdin(),
		out:        cmd.OutOrStdout(),
		formatter:  &output.TableFormatter{Color: !noColor && isTerminal(os.Stdout)},
		prompt:     isTerminal(os.Stdin),
		depth:      depth,
	}
	return loop.run(cmd.Context())
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// repl drives a session from line input. Each entered line is a search
// unless it starts with ':'.
type repl struct {
	controller *session.Controller
	in         io.Reader
	out        io.Writer
	formatter  output.Formatter
	prompt     bool
	depth      string
}

func (r *repl) run(ctx context.Context) error {
	r.controller.Probe(ctx)
	r.render(r.controller.View())
	if r.prompt {
		fmt.Fprintln(r.out, interactiveHelp)
	}

	scanner := bufio.NewScanner(r.in)
	for {
		if r.prompt {
			fmt.Fprint(r.out, "adlens> ")
		}
		if !scanner.Scan() {
			return scanner.Err()
		}
		if ctx.Err() != nil {
			return nil
		}
		if quit := r.handle(ctx, strings.TrimSpace(scanner.Text())); quit {
			return nil
		}
	}
}

// handle runs one line and reports whether the loop should stop.
func (r *repl) handle(ctx context.Context, line string) bool {
	if line == "" {
		return false
	}
	if !strings.HasPrefix(line, ":") {
		v, err := r.controller.Submit(ctx, session.Input{Query: line, Depth: r.depth})
		r.logFailure(err)
		r.render(v)
		return false
	}

	command, arg, _ := strings.Cut(strings.TrimPrefix(line, ":"), " ")
	arg = strings.TrimSpace(arg)
	switch command {
	case "q", "quit", "exit":
		return true
	case "help", "h":
		fmt.Fprintln(r.out, interactiveHelp)
	case "status":
		r.controller.Probe(ctx)
		r.render(r.controller.View())
	case "retry", "r":
		v, ran, err := r.controller.Retry(ctx)
		if !ran {
			fmt.Fprintln(r.out, "Nothing to retry yet.")
			return false
		}
		r.logFailure(err)
		r.render(v)
	case "show", "s":
		r.show(arg)
	case "close", "c":
		r.render(r.controller.CloseDetail())
	case "depth":
		if arg == "" {
			fmt.Fprintf(r.out, "Depth: %s\n", r.displayDepth())
			return false
		}
		r.depth = arg
		fmt.Fprintf(r.out, "Depth set to %s\n", arg)
	default:
		fmt.Fprintf(r.out, "Unknown command :%s (try :help)\n", command)
	}
	return false
}

func (r *repl) show(arg string) {
	n, err := strconv.Atoi(arg)
	cards := r.controller.View().Cards
	if err != nil || n < 1 || n > len(cards) {
		fmt.Fprintf(r.out, "Pick a result between 1 and %d.\n", len(cards))
		return
	}
	v, err := r.controller.OpenDetail(cards[n-1].AdID)
	if err != nil {
		fmt.Fprintln(r.out, err)
		return
	}
	r.render(v)
}

func (r *repl) displayDepth() string {
	if r.depth != "" {
		return r.depth
	}
	if current, ok := r.controller.CurrentSearch(); ok {
		return current.Depth
	}
	return session.DefaultDepth
}

func (r *repl) render(v *view.View) {
	rendered, err := r.formatter.Format(v)
	if err != nil {
		fmt.Fprintln(r.out, err)
		return
	}
	fmt.Fprint(r.out, rendered)
}

func (r *repl) logFailure(err error) {
	if err == nil || stderrors.Is(err, adsearch.ErrEmptyQuery) || observability.CLILogger == nil {
		return
	}
	observability.CLILogger.Debug("Search failed", zap.String("kind", adsearch.Kind(err)), zap.Error(err))
}
