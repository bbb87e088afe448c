// Package match implements the match command.
package match

import (
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/bmedia/gearsync/internal/cmd/application"
	"github.com/bmedia/gearsync/internal/cmd/output"
	"github.com/bmedia/gearsync/pkg/errors"
	"github.com/bmedia/gearsync/pkg/matcher"
)

// Score is the comparison of a name with one candidate.
type Score struct {
	Name      string  `json:"name" yaml:"name"`
	Candidate string  `json:"candidate" yaml:"candidate"`
	Score     float64 `json:"score" yaml:"score"`
	Match     bool    `json:"match" yaml:"match"`
	Best      bool    `json:"best,omitempty" yaml:"best,omitempty"`
}

// NewCommand creates the match command using app context.
func NewCommand(app application.Application) *cobra.Command {
	var threshold float64

	cmd := &cobra.Command{
		Use:     "match <name> <candidate> [candidate...]",
		GroupID: "management",
		Short:   "Score product names the way a sync matches them",
		Long: `Match prints the similarity of a product name with one or more candidate
names, whether each clears the match threshold, and which candidate a sync
would pair the name with.`,
		Example: `  gearsync match "Truthear Gate" "TRUTHEAR  gate"
  gearsync match "Kefine Klean" "Kefine Klanar" "Kefine Klean DSP" --threshold 0.8`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("threshold") {
				threshold = app.Threshold()
			}
			if threshold <= 0 || threshold > 1 {
				return errors.NewValidationError("threshold", threshold, "must be in (0, 1]")
			}
			scores := Compare(args[0], args[1:], threshold)
			return Print(cmd.OutOrStdout(), app.OutputFormat(), scores)
		},
	}

	cmd.Flags().Float64Var(&threshold, "threshold", matcher.DefaultThreshold, "minimum similarity for a match")

	return cmd
}

// Compare scores name against every candidate and flags the best match.
func Compare(name string, candidates []string, threshold float64) []Score {
	scores := make([]Score, len(candidates))
	for i, c := range candidates {
		s := matcher.Similarity(name, c)
		scores[i] = Score{Name: name, Candidate: c, Score: s, Match: s >= threshold}
	}
	if i, _, ok := matcher.FindBestMatch(name, candidates, threshold); ok {
		scores[i].Best = true
	}
	return scores
}

// Print renders scores.
func Print(w io.Writer, format string, scores []Score) error {
	f := output.DetectFormat(format)
	if f != output.FormatTable {
		return output.NewFormatter(f).Format(w, scores)
	}

	rows := make([][]string, len(scores))
	for i, s := range scores {
		match := ""
		switch {
		case s.Best:
			match = "best"
		case s.Match:
			match = "yes"
		}
		rows[i] = []string{s.Candidate, strconv.FormatFloat(s.Score, 'f', 4, 64), match}
	}
	return output.NewFormatter(output.FormatTable).Format(w, output.Data{
		Headers:         []string{"Candidate", "Score", "Match"},
		Rows:            rows,
		ColumnAlignment: []output.Align{output.AlignLeft, output.AlignRight, output.AlignCenter},
	})
}
