package commands

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	apierrors "github.com/diogo/llamavoice/internal/errors"
)

// formatErrorMessage formats an error with additional context from structured errors
func formatErrorMessage(err error, context string) string {
	if err == nil {
		return ""
	}

	errorStyle := lipgloss.NewStyle().Foreground(colorError)
	dimStyle := lipgloss.NewStyle().Foreground(colorTextDim)

	var sb strings.Builder
	sb.WriteString(errorStyle.Render(fmt.Sprintf("✗ %s: %v", context, err)))

	if status := apierrors.GetHTTPStatus(err); status > 0 {
		sb.WriteString(dimStyle.Render(fmt.Sprintf("\n  HTTP Status: %d", status)))
	}

	switch {
	case apierrors.IsRequestError(err):
		sb.WriteString(dimStyle.Render("\n  Hint: Check that the chat backend is running ('llamavoice serve') and --server points at it"))
	case apierrors.IsCapabilityError(err):
		sb.WriteString(dimStyle.Render("\n  Hint: Run 'llamavoice config' to pick a speech engine available on this machine"))
	case apierrors.IsPermissionError(err):
		sb.WriteString(dimStyle.Render("\n  Hint: Check that a microphone is connected and the recorder can open it"))
	}

	return sb.String()
}
