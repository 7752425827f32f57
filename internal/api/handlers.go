package api

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"

	"github.com/starford/grampsxml/internal/apperr"
	"github.com/starford/grampsxml/internal/archive"
	"github.com/starford/grampsxml/internal/checksum"
	"github.com/starford/grampsxml/internal/models"
)

const maxBody = 64 << 20

// Handler holds API route handlers.
type Handler struct {
	svc *archive.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *archive.Service) *Handler {
	return &Handler{svc: svc}
}

// archivePath extracts the archive path from the URL (everything after the
// route prefix). Supports encoded slashes from OpenAPI clients
// (e.g. family%2Fsmith.gramps).
func archivePath(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

func isJSON(r *http.Request) bool {
	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return mt == "application/json"
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("failed to read body"))
		return nil, false
	}
	if len(body) == 0 {
		writeJSON(w, http.StatusBadRequest, errorBody("request body is empty"))
		return nil, false
	}
	return body, true
}

func decodeDocument(w http.ResponseWriter, body []byte) (*models.Document, bool) {
	var doc models.Document
	if err := json.Unmarshal(body, &doc); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON document"))
		return nil, false
	}
	return &doc, true
}

// Parse handles POST /api/parse.
//
//	@Summary		Parse Gramps XML into a document
//	@Tags			engine
//	@Accept			xml
//	@Produce		json
//	@Success		200	{object}	ParseResponse
//	@Failure		422	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/parse [post]
func (h *Handler) Parse(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	doc, vs, err := h.svc.Check(body)
	if err != nil {
		writeError(w, "parse", "", err)
		return
	}
	writeJSON(w, http.StatusOK, ParseResponse{Document: doc, Violations: nonNil(vs)})
}

// Validate handles POST /api/validate. The body is Gramps XML, or a JSON
// document when sent as application/json.
//
//	@Summary		Validate a document
//	@Tags			engine
//	@Accept			xml,json
//	@Produce		json
//	@Success		200	{object}	ValidateResponse
//	@Failure		400	{object}	errResponse
//	@Failure		422	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/validate [post]
func (h *Handler) Validate(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	var resp ValidateResponse
	if isJSON(r) {
		doc, ok := decodeDocument(w, body)
		if !ok {
			return
		}
		resp.Violations = h.svc.Validate(doc)
	} else {
		_, vs, err := h.svc.Check(body)
		if err != nil {
			writeError(w, "validate", "", err)
			return
		}
		resp.Violations = nonNil(vs)
	}
	resp.Valid = len(resp.Violations) == 0
	resp.Strict = h.svc.Strict()
	writeJSON(w, http.StatusOK, resp)
}

// Serialize handles POST /api/serialize.
//
//	@Summary		Render a JSON document as Gramps XML
//	@Tags			engine
//	@Accept			json
//	@Produce		xml
//	@Success		200	{string}	string	"Gramps XML"
//	@Failure		400	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/serialize [post]
func (h *Handler) Serialize(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	doc, ok := decodeDocument(w, body)
	if !ok {
		return
	}
	out, err := h.svc.Serialize(doc)
	if err != nil {
		writeError(w, "serialize", "", err)
		return
	}
	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out)
}

// ListArchives handles GET /api/archives.
//
//	@Summary		List cataloged archives
//	@Tags			archives
//	@Produce		json
//	@Param			limit	query		int		false	"Page size"
//	@Param			offset	query		int		false	"Page offset"
//	@Param			sort	query		string	false	"Sort field"	Enums(path, updated, violations)
//	@Success		200		{object}	ArchiveListResponse
//	@Security		BearerAuth
//	@Router			/archives [get]
func (h *Handler) ListArchives(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	rows, total, err := h.svc.List(r.Context(), limit, offset, q.Get("sort"))
	if err != nil {
		writeError(w, "list archives", "", err)
		return
	}
	writeJSON(w, http.StatusOK, ArchiveListResponse{Archives: nonNil(rows), Total: total})
}

// GetArchive handles GET /api/archives/*.
//
//	@Summary		Read an archive as a document with its violations
//	@Tags			archives
//	@Produce		json
//	@Param			path	path		string	true	"Archive path"
//	@Success		200		{object}	ArchiveDetail
//	@Failure		404		{object}	errResponse
//	@Failure		422		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/archives/{path} [get]
func (h *Handler) GetArchive(w http.ResponseWriter, r *http.Request) {
	path := archivePath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	detail, err := h.svc.Get(r.Context(), path)
	if err != nil {
		writeError(w, "get archive", path, err)
		return
	}
	w.Header().Set("ETag", checksum.ETag(detail.Checksum))
	writeJSON(w, http.StatusOK, detail)
}

// PutArchive handles PUT /api/archives/*. A missing archive is created; an
// existing one is replaced, honoring If-Match.
//
//	@Summary		Create or replace an archive from a JSON document
//	@Tags			archives
//	@Accept			json
//	@Produce		json
//	@Param			path		path	string	true	"Archive path"
//	@Param			If-Match	header	string	false	"SHA-256 checksum for optimistic concurrency"
//	@Success		200		{object}	ArchiveDetail
//	@Success		201		{object}	ArchiveDetail
//	@Failure		400		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/archives/{path} [put]
func (h *Handler) PutArchive(w http.ResponseWriter, r *http.Request) {
	path := archivePath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	doc, ok := decodeDocument(w, body)
	if !ok {
		return
	}

	ifMatch := checksum.FromETag(r.Header.Get("If-Match"))

	status := http.StatusOK
	detail, err := h.svc.Update(r.Context(), path, doc, ifMatch)
	if errors.Is(err, apperr.ErrNotFound) && ifMatch == "" {
		status = http.StatusCreated
		detail, err = h.svc.Create(r.Context(), path, doc)
	}
	if err != nil {
		writeError(w, "put archive", path, err)
		return
	}
	w.Header().Set("ETag", checksum.ETag(detail.Checksum))
	writeJSON(w, status, detail)
}

// DeleteArchive handles DELETE /api/archives/*.
//
//	@Summary		Delete an archive
//	@Tags			archives
//	@Param			path	path	string	true	"Archive path"
//	@Success		204		"Archive deleted"
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/archives/{path} [delete]
func (h *Handler) DeleteArchive(w http.ResponseWriter, r *http.Request) {
	path := archivePath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	if err := h.svc.Delete(r.Context(), path); err != nil {
		writeError(w, "delete archive", path, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Violations handles GET /api/violations/*.
//
//	@Summary		Stored validation report of an archive
//	@Tags			archives
//	@Produce		json
//	@Param			path	path		string	true	"Archive path"
//	@Success		200		{object}	ViolationsResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/violations/{path} [get]
func (h *Handler) Violations(w http.ResponseWriter, r *http.Request) {
	path := archivePath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	vs, err := h.svc.Violations(r.Context(), path)
	if err != nil {
		writeError(w, "violations", path, err)
		return
	}
	writeJSON(w, http.StatusOK, ViolationsResponse{Path: path, Violations: vs})
}

// ValidateAll handles POST /api/batch/validate.
//
//	@Summary		Validate every archive of the archive directory
//	@Tags			archives
//	@Produce		json
//	@Success		200	{object}	BatchResponse
//	@Security		BearerAuth
//	@Router			/batch/validate [post]
func (h *Handler) ValidateAll(w http.ResponseWriter, r *http.Request) {
	reports, err := h.svc.ValidateAll(r.Context())
	if err != nil {
		writeError(w, "batch validate", "", err)
		return
	}
	resp := BatchResponse{Reports: nonNil(reports)}
	for i := range reports {
		if reports[i].Valid() {
			resp.Valid++
		} else {
			resp.Invalid++
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// Search handles GET /api/search.
//
//	@Summary		Search entities by name, title or Gramps ID
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			kind	query		string	false	"Entity kind"	Enums(person, family, event, place, source, citation, repository, note, tag)
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	kind := models.Kind(r.URL.Query().Get("kind"))
	if kind != "" && !kind.Valid() {
		writeJSON(w, http.StatusBadRequest, errorBody("unknown kind "+string(kind)))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.svc.Search(r.Context(), q, kind, limit)
	if err != nil {
		writeError(w, "search", "", err)
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}

func nonNil[S ~[]E, E any](s S) S {
	if s == nil {
		return S{}
	}
	return s
}
