package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/yahrour/digital-closet/internal/app"
	"github.com/yahrour/digital-closet/internal/session"
	"github.com/yahrour/digital-closet/internal/util"
	"github.com/yahrour/digital-closet/internal/validation"
	"github.com/yahrour/digital-closet/pkg/domain"
)

const maxBodyBytes = 1 << 20

// Config wires required dependencies for the HTTP server.
type Config struct {
	App       *app.App
	Sessions  *session.Resolver
	Validator *validation.Validator
}

// Server exposes the wardrobe HTTP endpoints.
type Server struct {
	app      *app.App
	sessions *session.Resolver
	validate *validation.Validator
	mux      *http.ServeMux
}

// New constructs the server with routes configured.
func New(cfg Config) (*Server, error) {
	if cfg.App == nil {
		return nil, errors.New("server requires the app")
	}
	if cfg.Sessions == nil {
		return nil, errors.New("server requires a session resolver")
	}
	validate := cfg.Validator
	if validate == nil {
		validate = validation.New()
	}
	s := &Server{
		app:      cfg.App,
		sessions: cfg.Sessions,
		validate: validate,
		mux:      http.NewServeMux(),
	}
	s.routes()
	return s, nil
}

// Router returns the configured handler with the middleware chain applied.
func (s *Server) Router() http.Handler {
	return util.WithRequestID(util.WithRequestLog(util.WithCORS(s.mux)))
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", s.handleHealth)

	s.mux.Handle("/uploads", s.withUser(s.handleUploads))

	s.mux.Handle("/items", s.withUser(s.handleItems))
	s.mux.Handle("/items/", s.withUser(s.handleItemByID))

	s.mux.Handle("/categories", s.withUser(s.handleCategories))
	s.mux.Handle("/categories/usage", s.withUser(s.handleCategoryUsage))
	s.mux.Handle("/categories/", s.withUser(s.handleCategoryByID))

	s.mux.Handle("/tags", s.withUser(s.handleTags))
	s.mux.Handle("/tags/unused", s.withUser(s.handleUnusedTags))

	s.mux.Handle("/colors", s.withUser(s.handleColors))

	s.mux.Handle("/outfits", s.withUser(s.handleOutfits))
	s.mux.Handle("/outfits/", s.withUser(s.handleOutfitByID))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type userHandler func(http.ResponseWriter, *http.Request, string)

func (s *Server) withUser(next userHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := s.sessions.UserID(r)
		if err != nil {
			writeAppError(w, app.NewError(app.KindUnauthorized, "unauthorized"))
			return
		}
		next(w, r, userID)
	})
}

func (s *Server) handleUploads(w http.ResponseWriter, r *http.Request, userID string) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req validation.UploadRequestInput
	if !s.decode(w, r, &req) {
		return
	}
	targets, err := s.app.PresignUploads(r.Context(), userID, req.FileNames)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"uploads": targets})
}

func (s *Server) handleItems(w http.ResponseWriter, r *http.Request, userID string) {
	switch r.Method {
	case http.MethodGet:
		filter := domain.ItemFilter{
			Categories: listParam(r, "category"),
			Seasons:    listParam(r, "season"),
			Colors:     listParam(r, "color"),
			Tags:       listParam(r, "tag"),
		}
		page, err := s.app.Items(r.Context(), userID, filter, pageParam(r))
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, page)
	case http.MethodPost:
		var req validation.NewItemInput
		if err := readJSON(r, &req); err != nil {
			writeAppError(w, app.NewError(app.KindValidationFailed, "invalid JSON body"))
			return
		}
		if err := s.validate.Validate(&req); err != nil {
			// The referenced images are already uploaded; a rejected create
			// must not leave them orphaned.
			s.app.DiscardUploads(r.Context(), userID, req.ImageKeys)
			writeValidationError(w, err)
			return
		}
		id, err := s.app.CreateItem(r.Context(), userID, req.ToDomain())
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
	default:
		methodNotAllowed(w)
	}
}

// /items/{id} or /items/{id}/images
func (s *Server) handleItemByID(w http.ResponseWriter, r *http.Request, userID string) {
	path := strings.TrimPrefix(r.URL.Path, "/items/")
	parts := strings.SplitN(path, "/", 2)
	id, ok := parseID(parts[0])
	if !ok {
		notFound(w)
		return
	}
	if len(parts) == 2 {
		if parts[1] != "images" {
			notFound(w)
			return
		}
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		urls, err := s.app.ItemImageURLs(r.Context(), userID, id)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"urls": urls})
		return
	}

	switch r.Method {
	case http.MethodGet:
		item, err := s.app.Item(r.Context(), userID, id)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, item)
	case http.MethodPut:
		var req validation.EditItemInput
		if !s.decode(w, r, &req) {
			return
		}
		if err := s.app.UpdateItem(r.Context(), userID, id, req.ToDomain()); err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
	case http.MethodDelete:
		if err := s.app.DeleteItem(r.Context(), userID, id); err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request, userID string) {
	switch r.Method {
	case http.MethodGet:
		names, err := s.app.Categories(r.Context(), userID)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"categories": names})
	case http.MethodPost:
		var req validation.CategoryNameInput
		if !s.decode(w, r, &req) {
			return
		}
		id, err := s.app.CreateCategory(r.Context(), userID, strings.TrimSpace(req.Name))
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleCategoryUsage(w http.ResponseWriter, r *http.Request, userID string) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	page, err := s.app.CategoryUsage(r.Context(), userID, r.URL.Query().Get("q"), pageParam(r))
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// /categories/{id}
func (s *Server) handleCategoryByID(w http.ResponseWriter, r *http.Request, userID string) {
	id, ok := parseID(strings.TrimPrefix(r.URL.Path, "/categories/"))
	if !ok {
		notFound(w)
		return
	}
	switch r.Method {
	case http.MethodPut:
		var req validation.CategoryNameInput
		if !s.decode(w, r, &req) {
			return
		}
		if err := s.app.RenameCategory(r.Context(), userID, id, strings.TrimSpace(req.Name)); err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "renamed"})
	case http.MethodDelete:
		if err := s.app.DeleteCategory(r.Context(), userID, id); err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleTags(w http.ResponseWriter, r *http.Request, userID string) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	tags, err := s.app.Tags(r.Context(), userID)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tags": tags})
}

func (s *Server) handleUnusedTags(w http.ResponseWriter, r *http.Request, userID string) {
	switch r.Method {
	case http.MethodGet:
		tags, err := s.app.UnusedTags(r.Context(), userID)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"tags": tags})
	case http.MethodDelete:
		removed, err := s.app.DeleteUnusedTags(r.Context(), userID)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]int64{"removed": removed})
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleColors(w http.ResponseWriter, r *http.Request, userID string) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	colors, err := s.app.Colors(r.Context(), userID)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"colors": colors})
}

func (s *Server) handleOutfits(w http.ResponseWriter, r *http.Request, userID string) {
	switch r.Method {
	case http.MethodGet:
		page, err := s.app.Outfits(r.Context(), userID, pageParam(r))
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, page)
	case http.MethodPost:
		var req validation.NewOutfitInput
		if !s.decode(w, r, &req) {
			return
		}
		id, err := s.app.CreateOutfit(r.Context(), userID, req.ToDomain())
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
	default:
		methodNotAllowed(w)
	}
}

// /outfits/{id} or /outfits/{id}/items
func (s *Server) handleOutfitByID(w http.ResponseWriter, r *http.Request, userID string) {
	path := strings.TrimPrefix(r.URL.Path, "/outfits/")
	parts := strings.SplitN(path, "/", 2)
	id, ok := parseID(parts[0])
	if !ok {
		notFound(w)
		return
	}
	if len(parts) == 2 {
		if parts[1] != "items" {
			notFound(w)
			return
		}
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		ids, err := s.app.OutfitItemIDs(r.Context(), userID, id)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"itemIds": ids})
		return
	}

	switch r.Method {
	case http.MethodGet:
		outfit, err := s.app.Outfit(r.Context(), userID, id)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, outfit)
	case http.MethodPut:
		var req validation.EditOutfitInput
		if !s.decode(w, r, &req) {
			return
		}
		err := s.app.UpdateOutfit(r.Context(), userID, id,
			strings.TrimSpace(req.Name), strings.TrimSpace(req.Note), req.ItemIDs)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
	case http.MethodDelete:
		if err := s.app.DeleteOutfit(r.Context(), userID, id); err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	default:
		methodNotAllowed(w)
	}
}

// decode reads and validates a JSON body. Writes the error response itself
// and returns false when the request should not proceed.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dest any) bool {
	if err := readJSON(r, dest); err != nil {
		writeAppError(w, app.NewError(app.KindValidationFailed, "invalid JSON body"))
		return false
	}
	if err := s.validate.Validate(dest); err != nil {
		writeValidationError(w, err)
		return false
	}
	return true
}

func readJSON(r *http.Request, dest any) error {
	return json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(dest)
}

func writeValidationError(w http.ResponseWriter, err error) {
	var fields validation.FieldErrors
	if errors.As(err, &fields) {
		writeAppError(w, app.ValidationError("validation failed", fields))
		return
	}
	writeAppError(w, app.WrapError(app.KindValidationFailed, "invalid request", err))
}

func methodNotAllowed(w http.ResponseWriter) {
	writeJSON(w, http.StatusMethodNotAllowed, errorResponse{
		Error: "method not allowed",
		Code:  "SYSTEM_METHOD_NOT_ALLOWED",
	})
}

func notFound(w http.ResponseWriter) {
	writeJSON(w, http.StatusNotFound, errorResponse{
		Error: "not found",
		Code:  "SYSTEM_NOT_FOUND",
	})
}

func pageParam(r *http.Request) int {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// listParam reads a filter dimension from repeated or comma-separated query
// values.
func listParam(r *http.Request, name string) []string {
	var out []string
	for _, raw := range r.URL.Query()[name] {
		for _, value := range strings.Split(raw, ",") {
			value = strings.TrimSpace(value)
			if value != "" {
				out = append(out, value)
			}
		}
	}
	return out
}

func parseID(raw string) (int64, bool) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

type errorResponse struct {
	Error     string            `json:"error"`
	Code      string            `json:"code"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"requestId,omitempty"`
}

// writeAppError maps the error taxonomy onto HTTP statuses and stable codes.
func writeAppError(w http.ResponseWriter, err error) {
	kind := app.KindOf(err)
	status := statusForKind(kind)
	resp := errorResponse{
		Error:     messageOf(err, status),
		Code:      codeForKind(kind),
		RequestID: strings.TrimSpace(w.Header().Get("X-Request-Id")),
	}
	var appErr *app.Error
	if errors.As(err, &appErr) && len(appErr.Fields) > 0 {
		resp.Fields = appErr.Fields
	}
	writeJSON(w, status, resp)
}

func statusForKind(kind app.Kind) int {
	switch kind {
	case app.KindUnauthorized:
		return http.StatusUnauthorized
	case app.KindValidationFailed, app.KindMissingImage:
		return http.StatusBadRequest
	case app.KindNotFound:
		return http.StatusNotFound
	case app.KindDuplicateName:
		return http.StatusConflict
	case app.KindInvalidUser, app.KindCategoryNotFound:
		return http.StatusUnprocessableEntity
	case app.KindStorageError:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func codeForKind(kind app.Kind) string {
	switch kind {
	case app.KindUnauthorized:
		return "AUTH_INVALID_TOKEN"
	case app.KindValidationFailed:
		return "WARDROBE_VALIDATION_FAILED"
	case app.KindMissingImage:
		return "WARDROBE_IMAGE_REQUIRED"
	case app.KindNotFound:
		return "WARDROBE_NOT_FOUND"
	case app.KindDuplicateName:
		return "WARDROBE_DUPLICATE_NAME"
	case app.KindInvalidUser:
		return "WARDROBE_INVALID_USER"
	case app.KindCategoryNotFound:
		return "WARDROBE_CATEGORY_NOT_FOUND"
	case app.KindStorageError:
		return "WARDROBE_STORAGE_ERROR"
	default:
		return "SYSTEM_INTERNAL_ERROR"
	}
}

// messageOf hides internal detail for server-side failures but passes the
// taxonomy message through for client errors.
func messageOf(err error, status int) string {
	if status >= http.StatusInternalServerError {
		return "internal error"
	}
	var appErr *app.Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}
