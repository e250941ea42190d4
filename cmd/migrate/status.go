package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"digital-library-backend/internal/infrastructure/database"
)

func printStatus(out io.Writer, statuses []database.MigrationStatus) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "VERSION\tNAME\tSTATUS")

	pending := 0
	for _, st := range statuses {
		state := "applied"
		switch {
		case st.Dirty:
			state = "dirty"
		case !st.Applied:
			state = "pending"
			pending++
		}
		fmt.Fprintf(w, "%06d\t%s\t%s\n", st.Version, st.Name, state)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(out, "\n%d migration(s), %d pending\n", len(statuses), pending)
	return nil
}
