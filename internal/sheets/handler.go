package sheets

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"clinic-roster/internal/roster"
)

type Handler struct{ svc *Service }

func RegisterRoutes(r gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}

	// imports
	r.POST("/imports", h.ImportSheet)
	r.POST("/imports/upload", h.ImportUpload)
	r.GET("/imports/preview", h.Preview)
	r.GET("/imports/preview/export", h.PreviewExport)

	// views
	r.GET("/sections", h.Sections)
	r.GET("/groups", h.ListGroups)
	r.DELETE("/groups/:group_id", h.DeleteGroupByID)

	// clinic sheets
	r.GET("/clinics/:day/:clinic", h.Roster)
	r.PUT("/clinics/:day/:clinic/rows", h.ApplyEdits)
	r.POST("/clinics/:day/:clinic/rows", h.AddBlankRow)
	r.POST("/clinics/:day/:clinic/columns", h.AddExtraColumn)
	r.DELETE("/clinics/:day/:clinic", h.DeleteGroup)
	r.GET("/clinics/:day/:clinic/export", h.ExportGroup)
	r.DELETE("/rows/:row_id", h.DeleteRow)

	// full export
	r.GET("/export", h.ExportAll)
}

// ===== imports =====

// ImportSheet godoc
// @Summary  Import a Google Sheet
// @Tags     imports
// @Accept   json
// @Produce  json
// @Param    body body ImportRequest true "sheet url and session label"
// @Success  201 {object} ImportResult
// @Failure  400 {object} errDTO
// @Failure  500 {object} errDTO
// @Router   /imports [post]
func (h *Handler) ImportSheet(c *gin.Context) {
	var req ImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apiErr(CodeInvalidArgument, "invalid json"))
		return
	}
	res, err := h.svc.ImportSheet(c.Request.Context(), req.SheetURL, req.Session)
	if err != nil {
		c.JSON(toHTTPStatus(err), apiErrFrom(err))
		return
	}
	c.JSON(http.StatusCreated, res)
}

// ImportUpload godoc
// @Summary  Import an uploaded CSV / XLSX file
// @Tags     imports
// @Accept   multipart/form-data
// @Produce  json
// @Param    file    formData file   true  "sign-up export"
// @Param    session formData string false "session label"
// @Param    charset formData string false "CSV charset (utf-8, shift_jis)"
// @Success  201 {object} ImportResult
// @Failure  400 {object} errDTO
// @Router   /imports/upload [post]
func (h *Handler) ImportUpload(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, apiErr(CodeInvalidArgument, "file is required"))
		return
	}
	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, apiErr(CodeInvalidArgument, "cannot open upload"))
		return
	}
	defer f.Close()

	res, err := h.svc.ImportFile(c.Request.Context(), fh.Filename, f, c.PostForm("charset"), c.PostForm("session"))
	if err != nil {
		c.JSON(toHTTPStatus(err), apiErrFrom(err))
		return
	}
	c.JSON(http.StatusCreated, res)
}

// Preview godoc
// @Summary  Expand a sheet without saving it
// @Tags     imports
// @Produce  json
// @Param    sheet_url query string true "Google Sheet URL"
// @Success  200 {object} Preview
// @Failure  400 {object} errDTO
// @Router   /imports/preview [get]
func (h *Handler) Preview(c *gin.Context) {
	res, err := h.svc.Preview(c.Request.Context(), c.Query("sheet_url"))
	if err != nil {
		c.JSON(toHTTPStatus(err), apiErrFrom(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

// PreviewExport godoc
// @Summary  Download the expanded sheet (master attendance)
// @Tags     imports
// @Produce  octet-stream
// @Param    sheet_url query string true  "Google Sheet URL"
// @Param    format    query string false "csv or xlsx"
// @Param    encoding  query string false "utf-8, utf-8-bom, shift_jis"
// @Success  200 {file} file
// @Router   /imports/preview/export [get]
func (h *Handler) PreviewExport(c *gin.Context) {
	res, err := h.svc.Preview(c.Request.Context(), c.Query("sheet_url"))
	if err != nil {
		c.JSON(toHTTPStatus(err), apiErrFrom(err))
		return
	}
	h.download(c, roster.Expanded(res.Records), roster.MasterFilename)
}

// ===== views =====

// Sections godoc
// @Summary  Grouped view in display order
// @Tags     sheets
// @Produce  json
// @Success  200 {array} attendance.Section
// @Router   /sections [get]
func (h *Handler) Sections(c *gin.Context) {
	secs, err := h.svc.Sections(c.Request.Context())
	if err != nil {
		c.JSON(toHTTPStatus(err), apiErrFrom(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": secs, "policy": h.svc.Policy()})
}

// ListGroups godoc
// @Summary  List stored groups
// @Tags     sheets
// @Produce  json
// @Success  200 {array} GroupSummary
// @Router   /groups [get]
func (h *Handler) ListGroups(c *gin.Context) {
	items, err := h.svc.ListGroups(c.Request.Context())
	if err != nil {
		c.JSON(toHTTPStatus(err), apiErrFrom(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "total": len(items)})
}

// DeleteGroupByID godoc
// @Summary  Drop a whole group
// @Tags     sheets
// @Param    group_id path string true "group id"
// @Success  204
// @Failure  404 {object} errDTO
// @Router   /groups/{group_id} [delete]
func (h *Handler) DeleteGroupByID(c *gin.Context) {
	if err := h.svc.DeleteGroupByID(c.Request.Context(), c.Param("group_id")); err != nil {
		c.JSON(toHTTPStatus(err), apiErrFrom(err))
		return
	}
	c.Status(http.StatusNoContent)
}

// ===== clinic sheets =====

// Roster godoc
// @Summary  Roster of one (day, clinic)
// @Tags     clinics
// @Produce  json
// @Param    day    path string true "Monday..Friday"
// @Param    clinic path string true "e.g. red-ball-clinic"
// @Success  200 {object} RosterView
// @Failure  404 {object} errDTO
// @Router   /clinics/{day}/{clinic} [get]
func (h *Handler) Roster(c *gin.Context) {
	res, err := h.svc.Roster(c.Request.Context(), c.Param("day"), c.Param("clinic"))
	if err != nil {
		c.JSON(toHTTPStatus(err), apiErrFrom(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

// ApplyEdits godoc
// @Summary  Save edited rows
// @Tags     clinics
// @Accept   json
// @Produce  json
// @Param    day    path string            true "day"
// @Param    clinic path string            true "clinic"
// @Param    body   body ApplyEditsRequest true "edited rows"
// @Success  200 {object} EditResult
// @Failure  404 {object} errDTO
// @Router   /clinics/{day}/{clinic}/rows [put]
func (h *Handler) ApplyEdits(c *gin.Context) {
	var req ApplyEditsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apiErr(CodeInvalidArgument, "invalid json"))
		return
	}
	res, err := h.svc.ApplyEdits(c.Request.Context(), c.Param("day"), c.Param("clinic"), req.Rows, req.DeletedRowIDs)
	if err != nil {
		c.JSON(toHTTPStatus(err), apiErrFrom(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

// AddBlankRow godoc
// @Summary  Append an empty row
// @Tags     clinics
// @Produce  json
// @Param    day    path string true "day"
// @Param    clinic path string true "clinic"
// @Success  201 {object} attendance.Record
// @Failure  404 {object} errDTO
// @Router   /clinics/{day}/{clinic}/rows [post]
func (h *Handler) AddBlankRow(c *gin.Context) {
	rec, err := h.svc.AddBlankRow(c.Request.Context(), c.Param("day"), c.Param("clinic"))
	if err != nil {
		c.JSON(toHTTPStatus(err), apiErrFrom(err))
		return
	}
	c.JSON(http.StatusCreated, rec)
}

// AddExtraColumn godoc
// @Summary  Add an extra column (e.g. a date)
// @Tags     clinics
// @Accept   json
// @Produce  json
// @Param    day    path string           true "day"
// @Param    clinic path string           true "clinic"
// @Param    body   body AddColumnRequest true "column name"
// @Success  201 {object} GroupSummary
// @Failure  409 {object} errDTO
// @Router   /clinics/{day}/{clinic}/columns [post]
func (h *Handler) AddExtraColumn(c *gin.Context) {
	var req AddColumnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apiErr(CodeInvalidArgument, "name is required"))
		return
	}
	g, err := h.svc.AddExtraColumn(c.Request.Context(), c.Param("day"), c.Param("clinic"), req.Name)
	if err != nil {
		c.JSON(toHTTPStatus(err), apiErrFrom(err))
		return
	}
	c.JSON(http.StatusCreated, summarize(g))
}

// DeleteGroup godoc
// @Summary  Delete every record of a (day, clinic)
// @Tags     clinics
// @Param    day    path string true "day"
// @Param    clinic path string true "clinic"
// @Success  200
// @Failure  404 {object} errDTO
// @Router   /clinics/{day}/{clinic} [delete]
func (h *Handler) DeleteGroup(c *gin.Context) {
	n, err := h.svc.DeleteGroup(c.Request.Context(), c.Param("day"), c.Param("clinic"))
	if err != nil {
		c.JSON(toHTTPStatus(err), apiErrFrom(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": n})
}

// DeleteRow godoc
// @Summary  Delete a row
// @Tags     clinics
// @Param    row_id path string true "row id"
// @Success  204
// @Failure  404 {object} errDTO
// @Router   /rows/{row_id} [delete]
func (h *Handler) DeleteRow(c *gin.Context) {
	if err := h.svc.DeleteRow(c.Request.Context(), c.Param("row_id")); err != nil {
		c.JSON(toHTTPStatus(err), apiErrFrom(err))
		return
	}
	c.Status(http.StatusNoContent)
}

// ExportGroup godoc
// @Summary  Download one roster
// @Tags     clinics
// @Produce  octet-stream
// @Param    day      path  string true  "day"
// @Param    clinic   path  string true  "clinic"
// @Param    format   query string false "csv or xlsx"
// @Param    encoding query string false "utf-8, utf-8-bom, shift_jis"
// @Success  200 {file} file
// @Router   /clinics/{day}/{clinic}/export [get]
func (h *Handler) ExportGroup(c *gin.Context) {
	t, name, err := h.svc.ExportGroup(c.Request.Context(), c.Param("day"), c.Param("clinic"))
	if err != nil {
		c.JSON(toHTTPStatus(err), apiErrFrom(err))
		return
	}
	h.download(c, t, name)
}

// ExportAll godoc
// @Summary  Download every stored record
// @Tags     export
// @Produce  octet-stream
// @Param    format   query string false "csv or xlsx"
// @Param    encoding query string false "utf-8, utf-8-bom, shift_jis"
// @Success  200 {file} file
// @Router   /export [get]
func (h *Handler) ExportAll(c *gin.Context) {
	t, err := h.svc.ExportAll(c.Request.Context())
	if err != nil {
		c.JSON(toHTTPStatus(err), apiErrFrom(err))
		return
	}
	h.download(c, t, roster.ExportFilename)
}

// ===== helpers =====

// download: format=csv（既定）/ xlsx
func (h *Handler) download(c *gin.Context, t roster.Table, base string) {
	var buf bytes.Buffer
	var ct, ext string

	switch strings.ToLower(c.DefaultQuery("format", "csv")) {
	case "csv":
		enc := h.svc.Encoding()
		if v := c.Query("encoding"); v != "" {
			e, err := roster.ParseEncoding(v)
			if err != nil {
				c.JSON(http.StatusBadRequest, apiErr(CodeInvalidArgument, err.Error()))
				return
			}
			enc = e
		}
		if err := roster.WriteCSV(&buf, t, enc); err != nil {
			c.JSON(http.StatusInternalServerError, apiErr(CodeInternal, err.Error()))
			return
		}
		ct, ext = enc.ContentType(), "csv"
	case "xlsx":
		if err := roster.WriteXLSX(&buf, t, roster.SheetName(base)); err != nil {
			c.JSON(http.StatusInternalServerError, apiErr(CodeInternal, err.Error()))
			return
		}
		ct, ext = roster.ContentTypeXLSX, "xlsx"
	default:
		c.JSON(http.StatusBadRequest, apiErr(CodeInvalidArgument, "format must be csv or xlsx"))
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.%s"`, base, ext))
	c.Data(http.StatusOK, ct, buf.Bytes())
}

func apiErr(code Code, msg string) errDTO {
	var e errDTO
	e.Error.Code = code
	e.Error.Message = msg
	return e
}

func apiErrFrom(err error) errDTO {
	if api, ok := err.(*APIError); ok {
		return apiErr(api.Code, api.Message)
	}
	return apiErr(CodeInternal, err.Error())
}
