package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tutorai/tutorai/internal/session"
	"github.com/tutorai/tutorai/internal/tutor"
	"github.com/tutorai/tutorai/internal/ui/layout"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Print the saved transcript and score",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		sess, rep := session.NewPersister(s.FieldRepo(), nil).Load(cmd.Context(), cfg.InitialModule)

		fmt.Printf("Student:   %s\n", orDash(sess.LearnerID))
		fmt.Printf("Module:    %s\n", sess.CurrentModule)
		fmt.Printf("Progress:  %d/%d questions\n", sess.CurrentQuestionIndex, len(sess.Questions))
		if n := len(sess.Answers); n > 0 {
			fmt.Printf("Score:     %s/%s\n", layout.FormatScore(sess.Score), layout.FormatScore(float64(n)*cfg.MaxScore))
			if sess.Exhausted() {
				fmt.Printf("Verdict:   %s\n", tutor.Assess(sess.Score, n, cfg.MaxScore, cfg.PassRatio, cfg.ReviewRatio))
			}
		}
		for _, r := range rep.Repairs {
			fmt.Printf("Repaired:  %s\n", r)
		}

		if len(sess.Answers) == 0 {
			fmt.Println("\nNo answers yet.")
			return nil
		}

		sep := strings.Repeat("─", 60)
		for i, a := range sess.Answers {
			fmt.Println()
			fmt.Println(sep)
			fmt.Printf("Q%d. %s\n", i+1, a.Question)
			fmt.Println(sep)
			fmt.Printf("Answer:    %s\n", orDash(a.UserAnswer))
			fmt.Printf("Score:     %s/%s\n", layout.FormatScore(a.Score), layout.FormatScore(cfg.MaxScore))
			fmt.Printf("Feedback:  %s\n", a.Response)
		}
		return nil
	},
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
