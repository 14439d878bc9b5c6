package chain

import (
	"fmt"
	"strings"

	"github.com/migral/migral/internal/cli"
)

// FormatVerificationResult formats a namespace's verification result for display.
func FormatVerificationResult(result *VerificationResult) string {
	var b strings.Builder

	var summary strings.Builder
	summary.WriteString(fmt.Sprintf("  applied:  %s\n", cli.FormatCount(len(result.AppliedLinks), "node", "nodes")))
	summary.WriteString(fmt.Sprintf("  pending:  %s\n", cli.FormatCount(len(result.PendingLinks), "node", "nodes")))
	if len(result.MismatchedLinks) > 0 {
		summary.WriteString(fmt.Sprintf("  tampered: %s\n", cli.Error(cli.FormatCount(len(result.MismatchedLinks), "node", "nodes"))))
	}
	if len(result.MissingFiles) > 0 {
		summary.WriteString(fmt.Sprintf("  missing:  %s\n", cli.Error(cli.FormatCount(len(result.MissingFiles), "file", "files"))))
	}

	if result.Valid {
		b.WriteString(cli.Box(cli.Success("chain integrity: valid"), summary.String()))
	} else {
		b.WriteString(cli.Box(cli.Failed("chain integrity: broken"), summary.String()))
	}

	if len(result.Errors) > 0 {
		b.WriteString("\n")
		list := cli.NewList()
		for _, err := range result.Errors {
			msg := fmt.Sprintf("[%s] %s", err.Name, err.Message)
			if err.Details != "" {
				msg += "\n" + cli.Indent(err.Details, 2)
			}
			list.AddError(msg)
		}
		b.WriteString(list.String())
	}

	if len(result.PendingLinks) > 0 {
		b.WriteString("\n")
		b.WriteString(cli.Header("pending nodes:") + "\n")
		table := cli.NewTable("NODE", "SEQUENCE", "STATUS")
		for _, link := range result.PendingLinks {
			table.AddRow(link.Name, link.Sequence, cli.Warning("pending"))
		}
		b.WriteString(table.String())
	}

	return b.String()
}
