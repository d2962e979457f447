package web

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/rs/zerolog/hlog"

	"askrag/internal/models"
	"askrag/internal/rag"
	"askrag/internal/session"
)

// multipart parts above this size are spooled to disk by net/http
const multipartMemory = 32 << 20

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	entry := entryFrom(r)
	s.render(w, r, s.buildPage(entry))
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	entry := entryFrom(r)
	defer redirectHome(w, r)

	// the body is never read past the request limit, so the names of the
	// files in it are unknown here
	if r.ContentLength > s.upload.MaxRequestBytes() {
		entry.AddNotice(session.LevelWarning, s.requestLimitNotice())
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.upload.MaxRequestBytes())
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			entry.AddNotice(session.LevelWarning, s.requestLimitNotice())
		case errors.Is(err, http.ErrNotMultipart):
			entry.AddNotice(session.LevelWarning, models.NothingSelected)
		default:
			hlog.FromRequest(r).Error().Err(err).Msg("Failed to read upload")
			entry.AddNotice(session.LevelError, "Failed to read the upload.")
		}
		return
	}
	defer r.MultipartForm.RemoveAll()

	files, err := s.readFiles(r.MultipartForm.File["files"])
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("Failed to read uploaded file")
		entry.AddNotice(session.LevelError, "Failed to read the upload.")
		return
	}

	kb, err := s.orch.Upload(r.Context(), entry.State, files)
	if err != nil {
		level, text := uploadNotice(err)
		if level == session.LevelError {
			hlog.FromRequest(r).Error().Err(err).Int("files", len(files)).Msg("Upload failed")
		}
		entry.AddNotice(level, text)
		return
	}
	hlog.FromRequest(r).Info().Str("kb_id", kb.ID).Int("chunks", kb.ChunkCount()).Msg("Knowledge base ready")
	entry.AddNotice(session.LevelSuccess, models.UploadComplete)
}

// readFiles reads the content of every file within the size limit. Larger files keep
// only their name and size so the batch can be rejected without reading them.
func (s *Server) readFiles(headers []*multipart.FileHeader) ([]models.UploadedFile, error) {
	files := make([]models.UploadedFile, 0, len(headers))
	for _, fh := range headers {
		if fh.Filename == "" && fh.Size == 0 {
			continue
		}
		f := models.UploadedFile{Name: fh.Filename, Size: fh.Size}
		if fh.Size <= s.upload.MaxFileBytes() {
			content, err := readPart(fh)
			if err != nil {
				return nil, fmt.Errorf("read %s: %w", fh.Filename, err)
			}
			f.Content = content
		}
		files = append(files, f)
	}
	return files, nil
}

func readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func uploadNotice(err error) (session.Level, string) {
	var oversize *rag.OversizeError
	var unsupported *rag.UnsupportedFileError
	switch {
	case errors.Is(err, rag.ErrNoFiles):
		return session.LevelWarning, models.NothingSelected
	case errors.As(err, &oversize):
		return session.LevelWarning, fmt.Sprintf("The following files exceed the %d MB limit: %s",
			oversize.Limit/(1024*1024), strings.Join(oversize.Files, ", "))
	case errors.As(err, &unsupported):
		return session.LevelWarning, "Only PDF files are supported: " + strings.Join(unsupported.Files, ", ")
	case errors.Is(err, rag.ErrNoText):
		return session.LevelWarning, "No text could be extracted from the selected PDFs."
	default:
		return session.LevelError, fmt.Sprintf("Failed to process the uploaded files: %v", err)
	}
}

func (s *Server) requestLimitNotice() string {
	return fmt.Sprintf("The upload exceeds the %d MB request limit and was rejected. Files larger than %d MB are not accepted.",
		s.upload.MaxRequestSize, s.upload.MaxFileSizeMB)
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	entry := entryFrom(r)
	defer redirectHome(w, r)

	res := s.orch.Ask(r.Context(), entry.State, r.FormValue("question"))
	switch res.Outcome {
	case rag.OutcomeNeedsUpload:
		entry.AddNotice(session.LevelInfo, res.Message)
	case rag.OutcomeFailed:
		entry.AddNotice(session.LevelError, res.Message)
	case rag.OutcomeAnswered:
		hlog.FromRequest(r).Debug().Int("sources", len(res.Sources)).Msg("Question answered")
	}
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	entry := entryFrom(r)
	entry.State.Reset()
	entry.AddNotice(session.LevelSuccess, models.MemoryCleared)
	redirectHome(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func redirectHome(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
