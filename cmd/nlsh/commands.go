// ABOUTME: Subcommands: match, plan, run, intents, stats
// ABOUTME: Each builds the app from config, then prints through the display renderer

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/mauromedda/nlsh/internal/agent"
	"github.com/mauromedda/nlsh/internal/display"
	"github.com/mauromedda/nlsh/internal/intent"
)

func matchCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "match <text>",
		Short: "Score a request against every registered intent",
		Example: `  nlsh match 查找大文件
  nlsh match "count python files in src"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			text := agent.Normalize(strings.Join(args, " "))
			fmt.Fprintln(cmd.OutOrStdout(), a.render.Matches(a.matcher.Match(text)))
			return nil
		},
	}
}

func planCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "plan <text>",
		Short: "Print the shell command for a request without running it",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			res := a.agent.Plan(cmd.Context(), strings.Join(args, " "))
			a.printResult(cmd.OutOrStdout(), res)
			if res.Kind != agent.KindCommand {
				return errNoCommand
			}
			return nil
		},
	}
}

func runCmd(opts *options) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "run <text>",
		Short: "Plan a request and run the command",
		Long: `Plan a request and run the resulting command after confirmation.
Requests that do not map to a command are answered by the configured LLM.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			in := bufio.NewReader(cmd.InOrStdin())
			return a.handle(cmd.Context(), strings.Join(args, " "), in, cmd.OutOrStdout(), yes)
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Run without asking for confirmation")
	return cmd
}

func intentsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "intents [query]",
		Short: "List registered intents, optionally fuzzy-filtered by a query",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			intents := a.matcher.Intents()
			if len(args) == 1 {
				var picked []intent.Intent
				for _, s := range intent.Suggest(args[0], intents, len(intents)) {
					i := slices.IndexFunc(intents, func(in intent.Intent) bool { return in.Name == s.Name })
					picked = append(picked, intents[i])
				}
				intents = picked
			} else {
				slices.SortFunc(intents, func(x, y intent.Intent) int {
					if c := strings.Compare(x.Domain, y.Domain); c != 0 {
						return c
					}
					return strings.Compare(x.Name, y.Name)
				})
			}
			if len(intents) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), a.render.Muted("no intents match"))
				return nil
			}

			rows := [][]string{{"NAME", "DOMAIN", "COMMAND"}}
			for _, in := range intents {
				command := ""
				if t, ok := a.engine.Get(in.Name); ok {
					command = t.Command
				}
				rows = append(rows, []string{in.Name, in.Domain, command})
			}
			lines := display.Columns(rows, 60)
			lines[0] = a.render.Muted(lines[0])
			fmt.Fprintln(cmd.OutOrStdout(), strings.Join(lines, "\n"))
			return nil
		},
	}
}

func statsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Plan each stdin line and report matcher and cache metrics",
		Example: `  printf '查找大文件\n查找大文件\ndisk usage\n' | nlsh stats`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts, cmd.OutOrStdout())
			if err != nil {
				return err
			}

			var inputs []string
			sc := bufio.NewScanner(cmd.InOrStdin())
			for sc.Scan() {
				if line := strings.TrimSpace(sc.Text()); line != "" {
					inputs = append(inputs, line)
				}
			}
			if err := sc.Err(); err != nil {
				return fmt.Errorf("reading stdin: %w", err)
			}
			if _, err := a.agent.PlanBatch(cmd.Context(), inputs); err != nil {
				return err
			}

			snap, err := a.metrics.Snapshot()
			if err != nil {
				return fmt.Errorf("gathering metrics: %w", err)
			}
			names := make([]string, 0, len(snap))
			for name := range snap {
				names = append(names, name)
			}
			slices.Sort(names)
			rows := make([][]string, 0, len(names)+1)
			for _, name := range names {
				rows = append(rows, []string{name, strconv.FormatFloat(snap[name], 'f', -1, 64)})
			}
			stats := a.matcher.Stats()
			rows = append(rows, []string{"hit_rate", strconv.FormatFloat(stats.HitRate(), 'f', 2, 64)})
			fmt.Fprintln(cmd.OutOrStdout(), strings.Join(display.Columns(rows, 0), "\n"))
			return nil
		},
	}
}

// errNoCommand makes `nlsh plan` exit non-zero when no command was produced.
var errNoCommand = errors.New("no command for this request")

// printResult shows a planning result without running anything.
func (a *app) printResult(w io.Writer, res agent.Result) {
	switch {
	case res.Kind == agent.KindCommand:
		fmt.Fprintln(w, a.render.Plan(res.Plan))
	case res.Match != nil && len(res.Missing) > 0:
		fmt.Fprintln(w, a.render.Warn(fmt.Sprintf("%s needs: %s", res.Match.Intent.Name, strings.Join(res.Missing, ", "))))
	case res.Match == nil:
		if s := a.render.Suggestions(res.Suggestions); s != "" {
			fmt.Fprintln(w, s)
		}
	}
}

// handle plans one request, confirms when asked to, and dispatches it.
func (a *app) handle(ctx context.Context, input string, in *bufio.Reader, w io.Writer, yes bool) error {
	res := a.agent.Plan(ctx, input)
	if errors.Is(res.Err, agent.ErrEmptyInput) {
		return nil
	}
	a.printResult(w, res)

	if res.Kind == agent.KindCommand && !yes && !confirm(in, w) {
		fmt.Fprintln(w, a.render.Muted("skipped"))
		return nil
	}

	resp, err := a.agent.Dispatch(ctx, res)
	if err != nil {
		return err
	}
	switch {
	case resp.Output != nil:
		fmt.Fprintln(w, a.render.Output(*resp.Output))
	case resp.Reply != "":
		fmt.Fprintln(w, a.render.Markdown(resp.Reply))
	}
	return nil
}

// confirm asks before running. Only an explicit yes runs the command.
func confirm(in *bufio.Reader, w io.Writer) bool {
	fmt.Fprint(w, "run it? [y/N] ")
	line, err := in.ReadString('\n')
	if err != nil && line == "" {
		fmt.Fprintln(w)
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes", "是", "好":
		return true
	default:
		return false
	}
}

// stdinIsTerminal reports whether r is an interactive terminal.
func stdinIsTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
