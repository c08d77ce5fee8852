package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/jrsteele09/go-smartfaq/client"
	apperrors "github.com/jrsteele09/go-smartfaq/internal/errors"
)

const maxUploadBytes = 10 << 20

func (s *Server) ListFAQsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entry, _, err := s.entryForRequest(r)
		if err != nil {
			s.writeError(w, err)
			return
		}

		params := client.ListParams{
			Search:   r.URL.Query().Get("search"),
			Ordering: r.URL.Query().Get("ordering"),
		}
		if raw := r.URL.Query().Get("page"); raw != "" {
			page, err := strconv.Atoi(raw)
			if err != nil || page < 1 {
				s.writeError(w, apperrors.ErrInvalidPage)
				return
			}
			params.Page = page
		}
		if raw := r.URL.Query().Get("page_size"); raw != "" {
			if size, err := strconv.Atoi(raw); err == nil && size > 0 {
				params.PageSize = size
			}
		}

		page, err := entry.api.ListFAQs(r.Context(), params)
		if err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, page)
	}
}

func (s *Server) CreateFAQHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entry, _, err := s.entryForRequest(r)
		if err != nil {
			s.writeError(w, err)
			return
		}

		var faq client.FAQ
		if err := json.NewDecoder(r.Body).Decode(&faq); err != nil {
			s.writeError(w, badRequest("request body must be JSON"))
			return
		}

		created, err := entry.api.CreateFAQ(r.Context(), faq)
		if err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	}
}

func (s *Server) GetFAQHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entry, id, err := s.faqRequest(w, r)
		if err != nil {
			return
		}

		faq, err := entry.api.GetFAQ(r.Context(), id)
		if err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, faq)
	}
}

func (s *Server) UpdateFAQHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entry, id, err := s.faqRequest(w, r)
		if err != nil {
			return
		}

		var faq client.FAQ
		if err := json.NewDecoder(r.Body).Decode(&faq); err != nil {
			s.writeError(w, badRequest("request body must be JSON"))
			return
		}

		updated, err := entry.api.UpdateFAQ(r.Context(), id, faq)
		if err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, updated)
	}
}

func (s *Server) DeleteFAQHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entry, id, err := s.faqRequest(w, r)
		if err != nil {
			return
		}

		if err := entry.api.DeleteFAQ(r.Context(), id); err != nil {
			s.writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) DownloadFAQHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entry, id, err := s.faqRequest(w, r)
		if err != nil {
			return
		}

		data, filename, err := entry.api.DownloadPDF(r.Context(), id)
		if err != nil {
			s.writeError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
		_, _ = w.Write(data)
	}
}

func (s *Server) StatisticsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entry, _, err := s.entryForRequest(r)
		if err != nil {
			s.writeError(w, err)
			return
		}

		stats, err := entry.api.Statistics(r.Context())
		if err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, stats)
	}
}

func (s *Server) ScrapeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entry, _, err := s.entryForRequest(r)
		if err != nil {
			s.writeError(w, err)
			return
		}

		var req struct {
			URL string `json:"url"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.URL == "" {
			s.writeError(w, badRequest("url is required"))
			return
		}

		content, err := entry.api.Scrape(r.Context(), req.URL)
		if err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"content": content})
	}
}

func (s *Server) UploadPDFHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entry, _, err := s.entryForRequest(r)
		if err != nil {
			s.writeError(w, err)
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
		file, header, err := r.FormFile("file")
		if err != nil {
			s.writeError(w, badRequest("a PDF file upload is required"))
			return
		}
		defer file.Close() //nolint:errcheck

		content, err := entry.api.UploadPDF(r.Context(), header.Filename, file)
		if err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"content": content})
	}
}

// faqRequest resolves the session and the {id} path value, writing the error
// response itself when either fails.
func (s *Server) faqRequest(w http.ResponseWriter, r *http.Request) (*sessionEntry, int64, error) {
	entry, _, err := s.entryForRequest(r)
	if err != nil {
		s.writeError(w, err)
		return nil, 0, err
	}

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		s.writeError(w, apperrors.ErrNotFound)
		return nil, 0, err
	}
	return entry, id, nil
}
