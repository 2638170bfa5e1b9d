package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/fentz26/jobreg/internal/models"
	"github.com/fentz26/jobreg/internal/scan"
	"github.com/fentz26/jobreg/internal/store"
)

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Add an entry to the registry",
	Long:  `Adds a job entry for a proxy subject, creating the registry if it does not exist yet.`,
	Args:  cobra.NoArgs,
	RunE:  runAdd,
}

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update the status of a registry entry",
	Args:  cobra.NoArgs,
	RunE:  runUpdate,
}

var subjectsCmd = &cobra.Command{
	Use:   "subjects",
	Short: "List the subjects known to the registry",
	Args:  cobra.NoArgs,
	RunE:  runSubjects,
}

var (
	addSubject   string
	addEntry     models.Entry
	addStatus    int
	updateName   string
	updateStatus int
	updateExit   int
)

func init() {
	f := addCmd.Flags()
	f.StringVar(&addSubject, "subject", "", "Proxy subject owning the job (required)")
	f.StringVar(&addEntry.BatchID, "batch-id", "", "Batch system job id (defaults to the job name)")
	f.StringVar(&addEntry.BlahID, "name", "", "Job name (generated when empty)")
	f.IntVar(&addStatus, "status", int(models.JobStatusIdle), "Job status")
	f.IntVar(&addEntry.ExitCode, "exit-code", 0, "Exit code")
	f.StringVar(&addEntry.ExitReason, "exit-reason", "", "Exit reason")
	f.StringVar(&addEntry.WorkerNode, "worker-node", "", "Worker node address")
	f.StringVar(&addEntry.UserPrefix, "user-prefix", "", "User prefix")
	f.StringVar(&addEntry.ProxyFile, "proxy", "", "Proxy file path")
	addCmd.MarkFlagRequired("subject")

	u := updateCmd.Flags()
	u.StringVar(&updateName, "name", "", "Job name (required)")
	u.IntVar(&updateStatus, "status", 0, "New job status (required)")
	u.IntVar(&updateExit, "exit-code", 0, "Exit code")
	updateCmd.MarkFlagRequired("name")
	updateCmd.MarkFlagRequired("status")
}

func runAdd(cmd *cobra.Command, args []string) error {
	reg, err := store.New(registryPath())
	if err != nil {
		return scan.Errorf(scan.KindResource, "error initialising job registry: %w", err)
	}
	defer reg.Close()

	e := addEntry
	e.Status = models.JobStatus(addStatus)
	if err := reg.AddEntry(cmd.Context(), &e, addSubject); err != nil {
		return scan.Errorf(scan.KindResource, "error adding entry: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Added entry %s (record %d, subject hash %s)\n", e.BlahID, e.RecNum, e.SubjectHash)
	return nil
}

func runUpdate(cmd *cobra.Command, args []string) error {
	reg, err := openRegistry()
	if err != nil {
		return err
	}
	defer reg.Close()

	if err := reg.UpdateStatus(cmd.Context(), updateName, models.JobStatus(updateStatus), updateExit); err != nil {
		return scan.Errorf(scan.KindResource, "error updating %s: %w", updateName, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Updated entry %s: %s\n", updateName, models.JobStatus(updateStatus))
	return nil
}

func runSubjects(cmd *cobra.Command, args []string) error {
	reg, err := openRegistry()
	if err != nil {
		return err
	}
	defer reg.Close()

	subjects, err := reg.Subjects(cmd.Context())
	if err != nil {
		return scan.Errorf(scan.KindResource, "error listing subjects: %w", err)
	}

	if len(subjects) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No subjects found")
		return nil
	}

	// Output results in table format
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "HASH\tSUBJECT")
	for _, s := range subjects {
		fmt.Fprintf(w, "%s\t%s\n", s.Hash, s.Subject)
	}
	return w.Flush()
}
