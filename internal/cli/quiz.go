package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yungbote/healing-guide-backend/internal/knowledge"
	"github.com/yungbote/healing-guide-backend/internal/modules/constitution"
)

func newQuizCmd() *cobra.Command {
	quiz := &cobra.Command{
		Use:   "quiz",
		Short: "Inspect and score the constitution quiz offline",
	}
	quiz.AddCommand(newQuizQuestionsCmd())
	quiz.AddCommand(newQuizScoreCmd())
	return quiz
}

func newQuizQuestionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "questions",
		Short: "Print the quiz questions and their option indexes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			kb, err := knowledge.Default()
			if err != nil {
				return err
			}
			printQuestions(cmd.OutOrStdout(), kb.Questions())
			return nil
		},
	}
}

func printQuestions(w io.Writer, questions []knowledge.Question) {
	for _, q := range questions {
		fmt.Fprintf(w, "%d. [%s] %s\n", q.ID, q.Category, q.Question)
		for i, o := range q.Options {
			fmt.Fprintf(w, "   %d) %s\n", i, o.Text)
		}
	}
}

func newQuizScoreCmd() *cobra.Command {
	var (
		answers []string
		asJSON  bool
	)
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score a set of answers without touching the database",
		Example: `  healing-guide quiz score --answer 1:0 --answer 2:2 --answer 3:1
  healing-guide quiz score --answer 1:0,2:0,3:0 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if len(answers) == 0 {
				return fmt.Errorf("at least one --answer is required")
			}
			parsed := make([]constitution.Answer, 0, len(answers))
			for _, raw := range answers {
				a, err := parseAnswer(raw)
				if err != nil {
					return err
				}
				parsed = append(parsed, a)
			}

			kb, err := knowledge.Default()
			if err != nil {
				return err
			}
			result := constitution.Score(kb.Questions(), parsed)
			recs := constitution.Recommend(kb, result)

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]any{
					"constitution":    result,
					"recommendations": recs,
				})
			}
			printScore(out, result, recs)
			return nil
		},
	}
	cmd.Flags().StringSliceVarP(&answers, "answer", "a", nil, "answer as question_id:option_index (repeatable)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
	return cmd
}

func parseAnswer(raw string) (constitution.Answer, error) {
	qid, idx, ok := strings.Cut(strings.TrimSpace(raw), ":")
	if !ok {
		return constitution.Answer{}, fmt.Errorf("invalid answer %q: want question_id:option_index", raw)
	}
	q, err := strconv.Atoi(strings.TrimSpace(qid))
	if err != nil {
		return constitution.Answer{}, fmt.Errorf("invalid question id in %q: %w", raw, err)
	}
	o, err := strconv.Atoi(strings.TrimSpace(idx))
	if err != nil {
		return constitution.Answer{}, fmt.Errorf("invalid option index in %q: %w", raw, err)
	}
	return constitution.Pick(q, o), nil
}

func printScore(w io.Writer, r constitution.Result, recs constitution.Recommendations) {
	fmt.Fprintf(w, "Scores: vata=%d pitta=%d kapha=%d\n", r.Scores.Vata, r.Scores.Pitta, r.Scores.Kapha)
	fmt.Fprintf(w, "Constitution: %s\n", r.Label)
	if r.Ignored > 0 {
		fmt.Fprintf(w, "Ignored answers: %d\n", r.Ignored)
	}
	for _, section := range []struct {
		name  string
		items []string
	}{
		{"Diet", recs.Diet},
		{"Lifestyle", recs.Lifestyle},
		{"Herbs", recs.Herbs},
		{"Practices", recs.Practices},
	} {
		if len(section.items) == 0 {
			continue
		}
		fmt.Fprintf(w, "%s:\n", section.name)
		for _, item := range section.items {
			fmt.Fprintf(w, "  - %s\n", item)
		}
	}
}
