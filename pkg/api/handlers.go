package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/ssargent/gdr/pkg/codec"
	"github.com/ssargent/gdr/pkg/logger"
	"github.com/ssargent/gdr/pkg/replay"
	"github.com/ssargent/gdr/pkg/storage"
)

const (
	defaultListLimit   = 100
	sourceFormatHeader = "X-Replay-Source-Format"
	unknownFormat      = "unknown"
)

var errInvalidRequest = errors.New("invalid request")

// Server holds the API server state
type Server struct {
	archive IReplayArchive
	codec   *codec.ReplayCodec
	config  ServerConfig
	metrics *Metrics
	log     logrus.FieldLogger
}

// NewServer creates a new API server
func NewServer(archive IReplayArchive, c *codec.ReplayCodec, config ServerConfig, metrics *Metrics) *Server {
	if c == nil {
		c = codec.NewReplayCodec()
	}
	log := config.Logger
	if log == nil {
		log = logger.Discard()
	}
	return &Server{
		archive: archive,
		codec:   c,
		config:  config,
		metrics: metrics,
		log:     log,
	}
}

// handleHealth reports that the server is up
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.metrics.RecordHealthCheck(true)
	sendSuccess(w, map[string]string{"status": "healthy"})
}

// handleCreateReplay validates a payload in either encoding and stores it
func (s *Server) handleCreateReplay(w http.ResponseWriter, r *http.Request) {
	body, err := s.readBody(w, r)
	if err != nil {
		s.sendFailure(w, err)
		return
	}

	rp, format, err := s.decode(body)
	if err != nil {
		s.sendFailure(w, err)
		return
	}

	id, err := s.archive.Create(rp)
	s.metrics.RecordArchiveOperation("create", err == nil)
	if err != nil {
		s.sendFailure(w, fmt.Errorf("failed to store replay: %w", err))
		return
	}
	s.metrics.ReplayStored()

	s.log.WithFields(logrus.Fields{
		"id":     id.String(),
		"format": format.String(),
		"inputs": len(rp.Inputs),
	}).Info("stored replay")

	summary := inspect(rp, format)
	summary.ID = id.String()
	sendCreated(w, summary)
}

// handleListReplays lists stored replays oldest first. ?limit= caps the
// number of entries.
func (s *Server) handleListReplays(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		l, err := strconv.Atoi(limitStr)
		if err != nil || l <= 0 {
			s.sendFailure(w, fmt.Errorf("%w: limit must be a positive integer", errInvalidRequest))
			return
		}
		limit = l
	}

	entries, err := s.archive.List(limit)
	s.metrics.RecordArchiveOperation("list", err == nil)
	if err != nil {
		s.sendFailure(w, fmt.Errorf("failed to list replays: %w", err))
		return
	}

	replays := make([]ReplayEntry, 0, len(entries))
	for _, e := range entries {
		replays = append(replays, newEntry(e))
	}

	sendSuccess(w, map[string]interface{}{"replays": replays, "count": len(replays)})
}

// handleGetReplay returns a stored replay encoded as ?format=, or in the
// server's default encoding
func (s *Server) handleGetReplay(w http.ResponseWriter, r *http.Request) {
	id, err := storage.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		s.sendFailure(w, err)
		return
	}

	format, err := s.requestedFormat(r, "format")
	if err != nil {
		s.sendFailure(w, err)
		return
	}

	data, err := s.archive.Read(id)
	s.metrics.RecordArchiveOperation("read", err == nil || errors.Is(err, storage.ErrReplayNotFound))
	if err != nil {
		s.sendFailure(w, err)
		return
	}

	// Stored payloads are already binary
	if format != codec.FormatBinary {
		start := time.Now()
		data, err = s.codec.Convert(data, format)
		s.metrics.RecordCodecOperation("convert", format.String(), len(data), err == nil, time.Since(start))
		if err != nil {
			s.sendFailure(w, fmt.Errorf("failed to convert replay %s: %w", id, err))
			return
		}
	}

	s.sendPayload(w, data, format, id.String()+format.Extension())
}

// handleReplaySummary describes a stored replay without decoding its inputs
func (s *Server) handleReplaySummary(w http.ResponseWriter, r *http.Request) {
	id, err := storage.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		s.sendFailure(w, err)
		return
	}

	data, err := s.archive.Read(id)
	s.metrics.RecordArchiveOperation("read", err == nil || errors.Is(err, storage.ErrReplayNotFound))
	if err != nil {
		s.sendFailure(w, err)
		return
	}

	start := time.Now()
	header, err := s.codec.DecodeSummary(data)
	s.metrics.RecordCodecOperation("decode_header", codec.FormatBinary.String(), len(data), err == nil, time.Since(start))
	if err != nil {
		s.sendFailure(w, fmt.Errorf("failed to decode replay %s: %w", id, err))
		return
	}

	summary := newSummary(header.Replay, header.Format, header.InputCount)
	summary.ID = id.String()
	sendSuccess(w, summary)
}

// handleDeleteReplay removes a stored replay
func (s *Server) handleDeleteReplay(w http.ResponseWriter, r *http.Request) {
	id, err := storage.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		s.sendFailure(w, err)
		return
	}

	err = s.archive.Delete(id)
	s.metrics.RecordArchiveOperation("delete", err == nil || errors.Is(err, storage.ErrReplayNotFound))
	if err != nil {
		s.sendFailure(w, err)
		return
	}
	s.metrics.ReplayDeleted()

	s.log.WithField("id", id.String()).Info("deleted replay")
	sendSuccess(w, map[string]string{"message": "Replay deleted successfully"})
}

// handleConvert re-encodes a payload of either encoding into ?to=, or into
// the server's default encoding
func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	target, err := s.requestedFormat(r, "to")
	if err != nil {
		s.sendFailure(w, err)
		return
	}

	body, err := s.readBody(w, r)
	if err != nil {
		s.sendFailure(w, err)
		return
	}

	rp, source, err := s.decode(body)
	if err != nil {
		s.sendFailure(w, err)
		return
	}

	start := time.Now()
	data, err := s.codec.Encode(rp, target)
	s.metrics.RecordCodecOperation("encode", target.String(), len(data), err == nil, time.Since(start))
	if err != nil {
		s.sendFailure(w, fmt.Errorf("failed to encode replay: %w", err))
		return
	}

	w.Header().Set(sourceFormatHeader, source.String())
	s.sendPayload(w, data, target, "replay"+target.Extension())
}

// handleInspect validates a payload and describes it without storing it
func (s *Server) handleInspect(w http.ResponseWriter, r *http.Request) {
	body, err := s.readBody(w, r)
	if err != nil {
		s.sendFailure(w, err)
		return
	}

	rp, format, err := s.decode(body)
	if err != nil {
		s.sendFailure(w, err)
		return
	}

	sendSuccess(w, inspect(rp, format))
}

// decode runs a full decode and records it
func (s *Server) decode(body []byte) (*replay.Replay, codec.Format, error) {
	start := time.Now()
	rp, format, err := s.codec.DecodeWithFormat(body)

	label := format.String()
	if errors.Is(err, codec.ErrUnrecognizedEncoding) || errors.Is(err, codec.ErrPayloadTooLarge) {
		label = unknownFormat
	}
	s.metrics.RecordCodecOperation("decode", label, len(body), err == nil, time.Since(start))

	if err != nil {
		s.log.WithError(err).Debug("rejected replay payload")
	}
	return rp, format, err
}

func inspect(rp *replay.Replay, format codec.Format) ReplaySummary {
	summary := newSummary(rp, format, len(rp.Inputs))
	if len(rp.Inputs) > 0 {
		last := rp.LastFrame()
		summary.LastFrame = &last
	}
	return summary
}

// readBody reads the request body, bounded by the configured payload limit
func (s *Server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body := r.Body
	if s.config.MaxPayloadBytes > 0 {
		body = http.MaxBytesReader(w, r.Body, int64(s.config.MaxPayloadBytes))
	}

	data, err := io.ReadAll(body)
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return nil, fmt.Errorf("%w: request body exceeds %d bytes", codec.ErrPayloadTooLarge, tooLarge.Limit)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read request body: %v", errInvalidRequest, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: request body is empty", errInvalidRequest)
	}
	return data, nil
}

// requestedFormat reads an encoding name from the query, falling back to
// the configured default
func (s *Server) requestedFormat(r *http.Request, param string) (codec.Format, error) {
	name := r.URL.Query().Get(param)
	if name == "" {
		return s.config.DefaultFormat, nil
	}
	format, err := codec.ParseFormat(name)
	if err != nil {
		return format, fmt.Errorf("%w: %s: %v", errInvalidRequest, param, err)
	}
	return format, nil
}

func (s *Server) sendPayload(w http.ResponseWriter, data []byte, format codec.Format, filename string) {
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		s.log.WithError(err).Warn("failed to write response")
	}
}

// sendFailure maps err to a status code and sends it
func (s *Server) sendFailure(w http.ResponseWriter, err error) {
	status := statusForError(err)
	if status >= http.StatusInternalServerError {
		s.log.WithError(err).Error("request failed")
	}
	sendError(w, err.Error(), status)
}

// statusForError maps package sentinel errors to HTTP status codes
func statusForError(err error) int {
	switch {
	case errors.Is(err, storage.ErrReplayNotFound):
		return http.StatusNotFound
	case errors.Is(err, codec.ErrPayloadTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, storage.ErrInvalidID),
		errors.Is(err, errInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, codec.ErrUnrecognizedEncoding),
		errors.Is(err, codec.ErrMalformedStructure),
		errors.Is(err, codec.ErrInvalidField),
		errors.Is(err, codec.ErrInvalidInput):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// refreshArchiveStats updates the archive gauge
func (s *Server) refreshArchiveStats() {
	n, err := s.archive.Count()
	if err != nil {
		s.log.WithError(err).Warn("failed to count replays")
		return
	}
	s.metrics.UpdateArchiveStats(n)
}

// startMetricsUpdater periodically updates archive metrics until ctx is done
func (s *Server) startMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	s.refreshArchiveStats()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.refreshArchiveStats()
		}
	}
}
