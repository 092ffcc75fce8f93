// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package views renders the HTML pages from templates embedded in the binary.

Admin pages share templates/layout.html and define a "content" block. The
print and embed pages are standalone documents that define "page".

	r, err := views.New()
	r.Render(w, http.StatusOK, "departments", &views.Page{
		Title:   "Departments",
		Session: sess,
		Data:    data,
	})

The grouping helpers (GroupDepartmentsByLetter, GroupStaffByLetter,
GroupStaffByDepartment) prepare directory data for the public pages, and
WidgetJS is the loader script served at /widget.js.
*/
package views
