package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var resumesCmd = &cobra.Command{
	Use:   "resumes",
	Short: "List the resumes available for interviews",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		client, err := newRemoteClient(cfg)
		if err != nil {
			return err
		}

		resumes, err := client.ListResumes(cmd.Context())
		if err != nil {
			return err
		}
		if len(resumes) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No resumes uploaded yet.")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tJOB ROLE\tFILE\tUPLOADED")
		for _, resume := range resumes {
			uploaded := "-"
			if !resume.CreatedAt.IsZero() {
				uploaded = resume.CreatedAt.Local().Format("2006-01-02 15:04")
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", resume.ID, resume.JobRole, resume.FileName, uploaded)
		}
		return w.Flush()
	},
}
