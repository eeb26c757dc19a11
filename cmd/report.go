package cmd

import (
	"fmt"

	"deployable-sql/internal/schema"

	"github.com/charmbracelet/lipgloss"
)

var (
	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
	skipStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	failStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	dimStyle  = lipgloss.NewStyle().Faint(true)
)

// printReport prints one line per synced file, in processing order.
func printReport(results []schema.SyncResult) {
	if len(results) == 0 {
		return
	}
	fmt.Println("\n📊 Summary Report:")
	deployed := 0
	for i, r := range results {
		var icon string
		switch r.Status {
		case schema.StatusDeployed:
			icon = okStyle.Render("✓")
			deployed++
		case schema.StatusSkipped:
			icon = skipStyle.Render("-")
		default:
			icon = failStyle.Render("!")
		}
		name := r.Object
		if name == "" {
			name = r.Path
		}
		fmt.Printf("[%s] [%02d/%02d] %-16s %s %s\n",
			icon, i+1, len(results), r.Kind, name, dimStyle.Render(string(r.Status)))
		if r.ErrorMsg != "" {
			fmt.Printf("    └ %s\n", r.ErrorMsg)
		}
	}
	fmt.Println("--------------------------------------------------")
	fmt.Printf("Deployed: %d of %d\n", deployed, len(results))
}

func printStatus(states []schema.ObjectState) {
	for _, st := range states {
		a := st.Artifact
		var mark string
		switch {
		case st.Err != nil:
			mark = failStyle.Render("error")
		case a.Kind == schema.KindPermission:
			mark = dimStyle.Render("manual")
		case st.Exists:
			mark = okStyle.Render("present")
		default:
			mark = skipStyle.Render("missing")
		}
		fmt.Printf("%-10s %-16s %s\n", mark, a.Kind, a.Name)
		if st.Err != nil {
			fmt.Printf("    └ %v\n", st.Err)
		}
	}
}
