package daemon

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"tonearm/internal/api"
	"tonearm/internal/config"
	"tonearm/internal/jobs"
	"tonearm/internal/review"
	"tonearm/internal/services"
)

const maxRequestBody = 1 << 20

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	snapshot, err := s.daemon.aggregator.Snapshot(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, snapshot)
}

func (s *apiServer) handleReady(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	folders, err := s.daemon.aggregator.Ready(r.Context(), queryInt(r, "limit"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, folders)
}

func (s *apiServer) handleFolder(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	path := strings.TrimSpace(r.URL.Query().Get("path"))
	if path == "" {
		s.writeServiceError(w, services.Wrap(services.ErrValidation, "api", "folder",
			"Query parameter path is required", nil))
		return
	}

	job, err := s.daemon.store.LatestForFolder(r.Context(), path)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	if job == nil {
		s.writeServiceError(w, services.Wrap(services.ErrNotFound, "api", "folder",
			fmt.Sprintf("No job record exists for %s", path), nil))
		return
	}
	proposal, ok := jobs.ProposalFromJSON(job.ProposalJSON)
	if !ok {
		s.writeServiceError(w, services.Wrap(services.ErrNotFound, "api", "folder",
			fmt.Sprintf("No proposal for %s yet; analysis has not finished", path), nil))
		return
	}

	metadata := json.RawMessage("null")
	if strings.TrimSpace(job.MetadataJSON) != "" {
		metadata = json.RawMessage(job.MetadataJSON)
	}
	s.writeJSON(w, http.StatusOK, api.FolderDetail{
		Metadata: metadata,
		Proposal: proposal,
	})
}

func (s *apiServer) handleDecision(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req api.DecisionRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&req); err != nil {
		s.writeServiceError(w, services.Wrap(services.ErrValidation, "api", "decision",
			"Request body is not valid JSON", err))
		return
	}
	verdict, ok := review.ParseVerdict(req.Action)
	if !ok {
		s.writeServiceError(w, services.Wrap(services.ErrValidation, "api", "decision",
			fmt.Sprintf("Unknown action %q; use accept, reconsider, or skip", req.Action), nil))
		return
	}

	job, err := s.daemon.gateway.Apply(r.Context(), review.Decision{
		FolderPath: req.Path,
		Verdict:    verdict,
		Feedback:   req.Feedback,
		Override:   req.Proposal,
	})
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	s.daemon.announcer.Announce(r.Context())
	s.writeJSON(w, http.StatusOK, api.DecisionResponse{OK: true, Status: job.Status})
}

func (s *apiServer) handlePaths(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.writeJSON(w, http.StatusOK, s.pathsState())
	case http.MethodPost:
		s.handlePathsUpdate(w, r)
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *apiServer) handlePathsUpdate(w http.ResponseWriter, r *http.Request) {
	var req api.PathsRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&req); err != nil {
		s.writeServiceError(w, services.Wrap(services.ErrValidation, "api", "paths",
			"Request body is not valid JSON", err))
		return
	}

	switch strings.ToLower(strings.TrimSpace(req.Action)) {
	case api.PathsActionConfirm:
		if _, err := s.daemon.paths.Confirm(); err != nil {
			s.writeServiceError(w, err)
			return
		}
		s.daemon.announcer.Announce(r.Context())
	case api.PathsActionCancel:
		s.daemon.paths.Cancel()
	case "":
		staged := false
		if strings.TrimSpace(req.SourceDir) != "" {
			if _, err := s.daemon.paths.StageSource(req.SourceDir); err != nil {
				s.writeServiceError(w, err)
				return
			}
			staged = true
		}
		if strings.TrimSpace(req.TargetDir) != "" {
			if _, err := s.daemon.paths.StageTarget(req.TargetDir); err != nil {
				s.writeServiceError(w, err)
				return
			}
			staged = true
		}
		if !staged {
			s.writeServiceError(w, services.Wrap(services.ErrValidation, "api", "paths",
				"Nothing to do; provide source_dir, target_dir, or an action", nil))
			return
		}
	default:
		s.writeServiceError(w, services.Wrap(services.ErrValidation, "api", "paths",
			fmt.Sprintf("Unknown action %q; use confirm or cancel", req.Action), nil))
		return
	}

	s.writeJSON(w, http.StatusOK, s.pathsState())
}

func (s *apiServer) pathsState() api.PathsState {
	current, staged := s.daemon.paths.State()
	return api.PathsState{Current: current, Staged: staged}
}

func (s *apiServer) handleList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	raw := strings.TrimSpace(r.URL.Query().Get("path"))
	if raw == "" {
		if home, err := os.UserHomeDir(); err == nil {
			raw = home
		} else {
			raw = string(filepath.Separator)
		}
	}
	dir, err := config.ExpandPath(raw)
	if err != nil {
		s.writeServiceError(w, services.Wrap(services.ErrValidation, "api", "list",
			fmt.Sprintf("Path %s could not be resolved", raw), err))
		return
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		s.writeServiceError(w, services.Wrap(services.ErrValidation, "api", "list",
			fmt.Sprintf("Directory %s is not readable", dir), err))
		return
	}

	listing := api.ListResponse{Entries: []api.ListEntry{}}
	if parent := filepath.Dir(dir); parent != dir {
		listing.Parent = parent
	}
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		listing.Entries = append(listing.Entries, api.ListEntry{
			Name: entry.Name(),
			Path: filepath.Join(dir, entry.Name()),
		})
	}
	s.writeJSON(w, http.StatusOK, listing)
}

func (s *apiServer) handleDebugJobs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	counts, err := s.daemon.store.Counts(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	recent, err := s.daemon.aggregator.RecentJobs(r.Context(), queryInt(r, "limit"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.DebugJobs{Counts: counts, Recent: recent})
}
