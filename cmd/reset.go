package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tutorai/tutorai/internal/session"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Clear the saved session",
	Long:  "Clear saved questions, answers, score and module. The student ID is kept unless --forget-learner is given.",
	RunE: func(cmd *cobra.Command, args []string) error {
		forget, _ := cmd.Flags().GetBool("forget-learner")

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		p := session.NewPersister(s.FieldRepo(), nil)
		ctx := cmd.Context()
		if err := p.Clear(ctx); err != nil {
			return fmt.Errorf("clear session: %w", err)
		}
		if forget {
			if err := p.ForgetLearner(ctx); err != nil {
				return fmt.Errorf("forget learner: %w", err)
			}
			fmt.Println("Session and student ID cleared.")
			return nil
		}
		fmt.Println("Session cleared.")
		return nil
	},
}

func init() {
	resetCmd.Flags().Bool("forget-learner", false, "Also clear the saved student ID")
}
