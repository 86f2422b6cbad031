package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"fortio.org/safecast"
	"github.com/spf13/cobra"

	"cmdforge/internal/diag"
	"cmdforge/internal/diagfmt"
	"cmdforge/internal/pattern"
	"cmdforge/internal/source"
)

var lexCmd = &cobra.Command{
	Use:   "lex [flags] <pattern>",
	Short: "Tokenize a command pattern",
	Long:  `Lex splits a pattern such as "teleport|tp <player>" into literal and argument tokens`,
	Args:  cobra.ExactArgs(1),
	RunE:  runLex,
}

func init() {
	lexCmd.Flags().String("format", "pretty", "output format (pretty|json)")
	lexCmd.Flags().String("aliases", "unrestricted", "alias policy (unrestricted|first-token)")
}

type tokenJSON struct {
	Lexeme  string   `json:"lexeme"`
	Kind    string   `json:"kind"`
	Aliases []string `json:"aliases,omitempty"`
	Offset  uint32   `json:"offset"`
	Len     uint32   `json:"len"`
}

func runLex(cmd *cobra.Command, args []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	policyValue, err := cmd.Flags().GetString("aliases")
	if err != nil {
		return fmt.Errorf("failed to get aliases flag: %w", err)
	}
	policy, err := pattern.ParsePolicy(policyValue)
	if err != nil {
		return err
	}

	tokens, bag, fs, err := lexPattern(args[0], policy)
	if err != nil {
		return err
	}
	if bag.Len() > 0 {
		diagfmt.Pretty(os.Stderr, bag, fs, diagfmt.PrettyOpts{
			Color:   useColor(cmd, os.Stderr),
			Context: 0,
		})
	}

	switch format {
	case "pretty":
		if err := formatTokensPretty(cmd.OutOrStdout(), tokens); err != nil {
			return err
		}
	case "json":
		if err := formatTokensJSON(cmd.OutOrStdout(), tokens); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
	if bag.HasErrors() {
		return errDiagnostics
	}
	return nil
}

// lexPattern tokenizes text as a virtual file so diagnostics point into it.
func lexPattern(text string, policy pattern.AliasPolicy) ([]pattern.Token, *diag.Bag, *source.FileSet, error) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("<pattern>", []byte(text))
	bag := diag.NewBag(100)
	lx := pattern.New(pattern.Options{Policy: policy, Reporter: diag.BagReporter{Bag: bag}})
	content := fs.Get(id).Content
	end, err := safecast.Conv[uint32](len(content))
	if err != nil {
		return nil, bag, fs, fmt.Errorf("pattern too long: %w", err)
	}
	origin := source.Span{File: id, Start: 0, End: end}
	return lx.Lex(string(content), origin), bag, fs, nil
}

func formatTokensPretty(w io.Writer, tokens []pattern.Token) error {
	for _, tok := range tokens {
		line := fmt.Sprintf("%3d:%-3d %-8s %s", tok.Offset, tok.Offset+tok.Len, tok.Kind, tok.Identity())
		if len(tok.Aliases) > 0 {
			line += "  aliases: " + strings.Join(tok.Aliases, ", ")
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func formatTokensJSON(w io.Writer, tokens []pattern.Token) error {
	out := make([]tokenJSON, 0, len(tokens))
	for _, tok := range tokens {
		out = append(out, tokenJSON{
			Lexeme:  tok.Lexeme,
			Kind:    tok.Kind.String(),
			Aliases: tok.Aliases,
			Offset:  tok.Offset,
			Len:     tok.Len,
		})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
