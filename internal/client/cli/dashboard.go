package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dmitrijs2005/authsim/internal/client/identity"
)

// JoinDateLayout formats the member-since date on the dashboard.
const JoinDateLayout = "January 2, 2006"

// renderDashboard prints the welcome line followed by the user's profile.
func renderDashboard(w io.Writer, u identity.PublicUser) error {
	if _, err := fmt.Fprintf(w, "Welcome, %s!\n", u.Username); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "  Username:\t%s\n", u.Username)
	fmt.Fprintf(tw, "  Email:\t%s\n", u.Email)
	fmt.Fprintf(tw, "  Joined:\t%s\n", u.CreatedAt.Format(JoinDateLayout))
	return tw.Flush()
}
