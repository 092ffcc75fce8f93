// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/danielhkuo/staff-directory/auth"
	"github.com/danielhkuo/staff-directory/csvio"
	"github.com/danielhkuo/staff-directory/models"
	"github.com/danielhkuo/staff-directory/views"
)

// MaxImportSize caps uploaded CSV files.
const MaxImportSize = 5 << 20

type ImportHandler struct {
	*Env
}

func NewImportHandler(env *Env) *ImportHandler {
	return &ImportHandler{Env: env}
}

type importData struct {
	Type        string
	Header      []string
	Departments []models.DepartmentRow
	Staff       []models.StaffRow
	Total       int
	Shown       int
	Token       string
	Summary     *models.ImportSummary
}

func importType(v string) string {
	if v == models.ImportStaff {
		return models.ImportStaff
	}
	return models.ImportDepartments
}

func (h *ImportHandler) page(w http.ResponseWriter, r *http.Request, status int, data importData, errMsg string) {
	data.Header, _ = csvio.HeaderFor(data.Type)
	h.render(w, r, status, "import", &views.Page{
		Title:  "Import",
		Active: "import",
		Error:  errMsg,
		Data:   data,
	})
}

// Page handles GET /admin/import
func (h *ImportHandler) Page(w http.ResponseWriter, r *http.Request) {
	h.page(w, r, http.StatusOK, importData{Type: importType(r.URL.Query().Get("type"))}, "")
}

// Template handles GET /admin/import/template
func (h *ImportHandler) Template(w http.ResponseWriter, r *http.Request) {
	typ := importType(r.URL.Query().Get("type"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+typ+`_template.csv"`)
	if err := csvio.WriteTemplate(w, typ); err != nil {
		slog.Error("failed to write import template", "error", err)
	}
}

// Preview handles POST /admin/import/preview
func (h *ImportHandler) Preview(w http.ResponseWriter, r *http.Request) {
	sess := auth.SessionFrom(r.Context())
	data := importData{Type: importType(r.FormValue("import_type"))}

	file, _, err := r.FormFile("csv_file")
	if err != nil {
		h.page(w, r, http.StatusBadRequest, data, "Please choose a CSV file to upload")
		return
	}
	defer file.Close()

	raw, err := io.ReadAll(io.LimitReader(file, MaxImportSize+1))
	if err != nil {
		h.page(w, r, http.StatusBadRequest, data, "Failed to read the uploaded file")
		return
	}
	if len(raw) > MaxImportSize {
		h.page(w, r, http.StatusRequestEntityTooLarge, data, "The CSV file is too large")
		return
	}

	if err := h.parse(r, raw, &data, true); err != nil {
		h.parseError(w, r, data, err)
		return
	}

	data.Token, err = h.Pending.Save(data.Type, sess.UserID, raw)
	if err != nil {
		slog.Error("failed to store pending import", "error", err)
		h.page(w, r, http.StatusInternalServerError, data, "Failed to store the uploaded file")
		return
	}

	slog.Info("import previewed", "type", data.Type, "rows", data.Total, "by", sess.Username)
	h.page(w, r, http.StatusOK, data, "")
}

// parse fills data from raw CSV. With preview set only the first rows are
// kept and annotated with their existing-record flags.
func (h *ImportHandler) parse(r *http.Request, raw []byte, data *importData, preview bool) error {
	var err error
	switch data.Type {
	case models.ImportStaff:
		data.Staff, data.Total, err = csvio.ParseStaff(bytes.NewReader(raw))
		if err != nil || !preview {
			return err
		}
		data.Staff = csvio.Preview(data.Staff)
		data.Shown = len(data.Staff)
		return h.Store.PreviewStaff(r.Context(), data.Staff)
	default:
		data.Departments, data.Total, err = csvio.ParseDepartments(bytes.NewReader(raw))
		if err != nil || !preview {
			return err
		}
		data.Departments = csvio.Preview(data.Departments)
		data.Shown = len(data.Departments)
		return h.Store.PreviewDepartments(r.Context(), data.Departments)
	}
}

func (h *ImportHandler) parseError(w http.ResponseWriter, r *http.Request, data importData, err error) {
	var headerErr *csvio.HeaderError
	switch {
	case errors.As(err, &headerErr), errors.Is(err, csvio.ErrNoRows), errors.Is(err, csvio.ErrEmptyFile):
		h.page(w, r, http.StatusBadRequest, importData{Type: data.Type}, err.Error())
	default:
		slog.Warn("failed to parse import", "type", data.Type, "error", err)
		h.page(w, r, http.StatusBadRequest, importData{Type: data.Type}, "Failed to read the CSV file: "+err.Error())
	}
}

// Confirm handles POST /admin/import/confirm
func (h *ImportHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	sess := auth.SessionFrom(r.Context())
	data := importData{Type: importType(r.FormValue("import_type"))}
	token := r.FormValue("token")
	updateExisting := r.FormValue("update_existing") == "1"

	raw, err := h.Pending.Load(data.Type, sess.UserID, token)
	if err != nil {
		if !errors.Is(err, csvio.ErrPendingNotFound) {
			slog.Warn("failed to load pending import", "error", err)
		}
		h.page(w, r, http.StatusBadRequest, data, csvio.ErrPendingNotFound.Error())
		return
	}

	if err := h.parse(r, raw, &data, false); err != nil {
		h.parseError(w, r, data, err)
		return
	}

	var summary models.ImportSummary
	if data.Type == models.ImportStaff {
		summary, err = h.Store.ImportStaff(r.Context(), data.Staff, updateExisting, sess.UserID)
	} else {
		summary, err = h.Store.ImportDepartments(r.Context(), data.Departments, updateExisting, sess.UserID)
	}
	if err != nil {
		slog.Error("import failed", "type", data.Type, "error", err)
		h.page(w, r, http.StatusInternalServerError, importData{Type: data.Type}, "Import failed, no changes were saved")
		return
	}

	if err := h.Pending.Remove(data.Type, sess.UserID, token); err != nil {
		slog.Warn("failed to remove pending import", "error", err)
	}
	h.invalidateCache()

	slog.Info("import completed",
		"type", data.Type,
		"imported", summary.Imported,
		"updated", summary.Updated,
		"skipped", summary.Skipped,
		"errors", len(summary.Errors),
		"by", sess.Username,
	)
	h.page(w, r, http.StatusOK, importData{Type: data.Type, Summary: &summary}, "")
}
