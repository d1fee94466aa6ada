package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/yungbote/knowledge-backend/internal/services"
)

var (
	okf   = color.New(color.FgGreen).SprintfFunc()
	warnf = color.New(color.FgYellow).SprintfFunc()
	failf = color.New(color.FgRed).SprintfFunc()
)

func printResult(w io.Writer, r services.DeleteResult) {
	name := r.FailedName()
	switch {
	case !r.Success:
		fmt.Fprintln(w, failf("✗ %s: %s (%v)", name, r.Code(), r.Err))
	case r.AlreadyGone:
		fmt.Fprintln(w, warnf("✓ %s: already gone", name))
	default:
		fmt.Fprintln(w, okf("✓ %s: %d vectors, %d chunks, %d messages scrubbed",
			name, r.VectorsDeleted, r.ChunksDeleted, r.MessagesScrubbed))
	}
	for _, warning := range r.Warnings {
		fmt.Fprintln(w, warnf("  warning: %s", warning))
	}
}

func printSummary(w io.Writer, deleted, failed int, failedNames []string) {
	fmt.Fprintf(w, "\nDeleted: %s  Failed: %s\n", okf("%d", deleted), failf("%d", failed))
	for _, name := range failedNames {
		fmt.Fprintln(w, failf("  - %s", name))
	}
}

func exitCodeFor(status services.BatchStatus) int {
	switch status {
	case services.BatchSucceeded:
		return exitOK
	case services.BatchPartial:
		return exitPartial
	default:
		return exitFailed
	}
}
