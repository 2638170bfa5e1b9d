package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/fentz26/jobreg/internal/scan"
	"github.com/fentz26/jobreg/internal/store"
)

const lookupUsage = "(-s <proxy subject> | -h <proxy subject hash>) [-j <job status>] [\"format\" attribute]..."

var scanCmd = &cobra.Command{
	Use:   "scan " + lookupUsage,
	Short: "Print the registry entries of a proxy subject",
	Long: `Looks up every registry entry recorded for a proxy subject and prints it.

Without further arguments each entry is printed as a ClassAd on its own line.
Otherwise the arguments are read as pairs of a printf-style format holding one
conversion and the attribute to print with it. A format without any
conversion is printed as is and does not take an attribute. The attribute
Njob prints the number of the entry within this scan. Backslash escapes in
formats are expanded; no newline is added.

Examples:
  jobreg scan -s "/DC=org/CN=Alice"
  jobreg scan -h 5d41402abc4b2a76b9719d911017c592 -j 2 '%s\n' BatchJobId
  jobreg scan -s "/DC=org/CN=Alice" '%d: ' Njob '%s\n' WorkerNode`,
	Args: cobra.ArbitraryArgs,
	RunE: runScan,
}

// lookupFlags are the subject selection flags shared by scan and browse.
type lookupFlags struct {
	subject string
	hash    string
	status  int
}

var scanLookup lookupFlags

func init() {
	scanLookup.register(scanCmd)
}

func (l *lookupFlags) register(cmd *cobra.Command) {
	f := cmd.Flags()
	// Formats come after the flags and may start with '-'.
	f.SetInterspersed(false)
	// Declaring help ourselves keeps cobra from claiming -h.
	f.Bool("help", false, "help for "+cmd.Name())
	f.StringVarP(&l.subject, "subject", "s", "", "Proxy subject to look up")
	f.StringVarP(&l.hash, "hash", "h", "", "Proxy subject hash to look up")
	f.IntVarP(&l.status, "status", "j", 0, "Only show entries in this job status")
}

// resolve returns the lookup hash, computing it from the subject if needed.
func (l *lookupFlags) resolve(flags *pflag.FlagSet) (string, error) {
	subjectSet := flags.Changed("subject")
	hashSet := flags.Changed("hash")
	switch {
	case subjectSet && hashSet:
		return "", scan.Errorf(scan.KindUsage, "Usage: %s", lookupUsage)
	case subjectSet && l.subject != "":
		return store.SubjectHash(l.subject), nil
	case hashSet && l.hash != "":
		return l.hash, nil
	}
	return "", scan.Errorf(scan.KindUsage, "Usage: %s", lookupUsage)
}

func runScan(cmd *cobra.Command, args []string) error {
	hash, err := scanLookup.resolve(cmd.Flags())
	if err != nil {
		return err
	}

	reg, err := openRegistry()
	if err != nil {
		return err
	}
	defer reg.Close()

	_, err = scan.Run(cmd.Context(), reg, scan.Options{
		Hash:      hash,
		Subject:   scanLookup.subject,
		Status:    scanLookup.status,
		Templates: args,
		Out:       cmd.OutOrStdout(),
		Logger:    logger,
	})
	return err
}
