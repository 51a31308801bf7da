package app

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// Build information. Populated at build time via -ldflags.
var (
	Version   = "0.1.0-dev"
	Commit    = "none"
	BuildDate = "unknown"
)

func newVersionCmd(st *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Annotations: map[string]string{
			annotationNoApp: "true",
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := map[string]string{
				"version":    Version,
				"commit":     Commit,
				"built":      BuildDate,
				"go_version": runtime.Version(),
				"os_arch":    runtime.GOOS + "/" + runtime.GOARCH,
			}
			return st.render(info, func(w tableWriter) {
				fmt.Fprintf(w, "helpdesk %s\n", Version)
				fmt.Fprintf(w, "  Commit:\t%s\n", Commit)
				fmt.Fprintf(w, "  Built:\t%s\n", BuildDate)
				fmt.Fprintf(w, "  Go version:\t%s\n", runtime.Version())
				fmt.Fprintf(w, "  OS/Arch:\t%s/%s\n", runtime.GOOS, runtime.GOARCH)
			})
		},
	}
}
