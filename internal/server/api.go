package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/oszuidwest/zwfm-audioctl/internal/types"
)

// maxBodyBytes limits request bodies of the JSON API.
const maxBodyBytes = 64 << 10

// API response helpers

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

// writeError writes err with the status matching its kind.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	body := types.APIError{Error: err.Error()}

	var verr *types.ValidationError
	if errors.As(err, &verr) {
		body.Error = "validation failed"
		body.Fields = verr.Errors
	}
	if status >= http.StatusInternalServerError {
		slog.Error("API request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, body)
}

// statusFor maps an error kind to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, types.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, types.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, types.ErrUnsupported):
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

// parseJSON reads, parses and validates the request body.
// Returns the parsed value and true on success; on failure the error
// response has been written.
func parseJSON[T any](w http.ResponseWriter, r *http.Request) (T, bool) {
	var v T
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&v); err != nil {
		writeError(w, r, types.InvalidArgumentf("invalid JSON: %v", err))
		return v, false
	}
	if err := validateRequest(&v); err != nil {
		writeError(w, r, err)
		return v, false
	}
	return v, true
}

// queryInt parses an optional integer query parameter into verr.
func queryInt(r *http.Request, name string, verr *types.ValidationError) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		verr.Add(name, "must be an integer", raw)
	}
	return n
}

// --- Devices ---

func (s *Server) handleListDevices(w http.ResponseWriter, r *http.Request) {
	showDisabled, _ := strconv.ParseBool(r.URL.Query().Get("show_disabled"))
	devices, err := s.commands.ListDevices(showDisabled)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, devices)
}

func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	dev, err := s.commands.Device(r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dev)
}

func (s *Server) handleSetDefault(w http.ResponseWriter, r *http.Request) {
	req, ok := parseJSON[SetDefaultRequest](w, r)
	if !ok {
		return
	}
	dev, err := s.commands.SetDefault(&req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dev)
}

// --- Volume and mute ---

// targetQuery reads and validates the target query parameter.
func targetQuery(r *http.Request) (types.Target, error) {
	req := TargetRequest{Target: r.URL.Query().Get("target")}
	if err := validateRequest(&req); err != nil {
		return "", err
	}
	return targetOrDefault(req.Target), nil
}

func (s *Server) handleGetVolume(w http.ResponseWriter, r *http.Request) {
	target, err := targetQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	resp, err := s.commands.Volume(target)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSetVolume(w http.ResponseWriter, r *http.Request) {
	req, ok := parseJSON[VolumeRequest](w, r)
	if !ok {
		return
	}
	resp, err := s.commands.SetVolume(&req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetMute(w http.ResponseWriter, r *http.Request) {
	target, err := targetQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	resp, err := s.commands.Mute(target)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSetMute(w http.ResponseWriter, r *http.Request) {
	req, ok := parseJSON[MuteRequest](w, r)
	if !ok {
		return
	}
	resp, err := s.commands.SetMute(&req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- Event log and notifications ---

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	verr := types.NewValidationError()
	req := EventsRequest{
		Limit:  queryInt(r, "limit", verr),
		Offset: queryInt(r, "offset", verr),
		Filter: r.URL.Query().Get("filter"),
	}
	if verr.HasErrors() {
		writeError(w, r, verr)
		return
	}
	if err := validateRequest(&req); err != nil {
		writeError(w, r, err)
		return
	}

	resp, err := s.commands.Events(&req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleTestNotification(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), notificationTestTimeout)
	defer cancel()

	if err := s.commands.TestNotification(ctx, r.PathValue("channel")); err != nil {
		if statusFor(err) == http.StatusNotFound {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": false, "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleVersion(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.version.Info())
}
