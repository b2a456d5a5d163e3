package handlers

import (
	"io"
	"net/http"
	"os"
	"time"
)

// ReportFilename is the download name of the exported report.
const ReportFilename = "expense_report.pdf"

// DownloadPDF renders the user's transactions into a per-request temporary
// file, streams it as an attachment and removes it afterwards.
func (h *Handlers) DownloadPDF(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)

	transactions, err := h.db.ListTransactions(r.Context(), user.ID)
	if err != nil {
		h.serverError(w, r, "failed to list transactions", err)
		return
	}

	f, err := os.CreateTemp(h.exportDir, "expense_report-*.pdf")
	if err != nil {
		h.serverError(w, r, "failed to create report file", err)
		return
	}
	defer func() {
		f.Close()
		if err := os.Remove(f.Name()); err != nil {
			h.logger.WarnContext(r.Context(), "failed to remove report file", "path", f.Name(), "error", err)
		}
	}()

	if err := h.renderer.Render(f, transactions); err != nil {
		h.serverError(w, r, "failed to render report", err)
		return
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		h.serverError(w, r, "failed to rewind report file", err)
		return
	}

	h.logger.InfoContext(r.Context(), "report exported", "user_id", user.ID, "rows", len(transactions))

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+ReportFilename+`"`)
	http.ServeContent(w, r, ReportFilename, time.Now(), f)
}
