package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common"

	"github.com/Layr-Labs/eigenx-merkle-distributor/pkg/distribution"
	"github.com/Layr-Labs/eigenx-merkle-distributor/pkg/merkle"
	"github.com/Layr-Labs/eigenx-merkle-distributor/pkg/types"
	"github.com/Layr-Labs/eigenx-merkle-distributor/pkg/util"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.service.HealthCheck(); err != nil {
		s.logger.Sugar().Warnw("Health check failed", "error", err)
		http.Error(w, "Unhealthy", http.StatusServiceUnavailable)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListDistributions(w http.ResponseWriter, r *http.Request) {
	list, err := s.service.List()
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, list)
}

func (s *Server) handlePublishDistribution(w http.ResponseWriter, r *http.Request) {
	var req types.PublishRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	d, err := s.service.Publish(req.Name, req.Records)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, d.Summary())
}

func (s *Server) handleGetDistribution(w http.ResponseWriter, r *http.Request) {
	root, ok := s.rootFromPath(w, r)
	if !ok {
		return
	}

	d, err := s.service.Get(root)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleGetProof(w http.ResponseWriter, r *http.Request) {
	root, ok := s.rootFromPath(w, r)
	if !ok {
		return
	}

	index, err := strconv.Atoi(r.URL.Query().Get("index"))
	if err != nil {
		http.Error(w, "index query parameter must be an integer", http.StatusBadRequest)
		return
	}

	resp, err := s.service.GetProof(root, index)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleFindIndexByAddress(w http.ResponseWriter, r *http.Request) {
	root, ok := s.rootFromPath(w, r)
	if !ok {
		return
	}

	address := r.URL.Query().Get("address")
	if !common.IsHexAddress(address) {
		http.Error(w, "address query parameter must be a hex address", http.StatusBadRequest)
		return
	}

	index, err := s.service.FindIndexByAddress(root, common.HexToAddress(address))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, &types.IndexResponse{Index: index})
}

func (s *Server) handleFindIndex(w http.ResponseWriter, r *http.Request) {
	root, ok := s.rootFromPath(w, r)
	if !ok {
		return
	}

	var req types.IndexRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	index, err := s.service.FindIndex(root, req.Record)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, &types.IndexResponse{Index: index})
}

// handleVerify checks a proof without consulting stored distributions.
func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	var req types.VerifyRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	proof := util.Map(req.Proof, func(h common.Hash, _ uint64) [32]byte { return h })
	valid, err := merkle.VerifyRecord(req.Root, req.Index, req.Record, proof)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, &types.VerifyResponse{Valid: valid})
}

func (s *Server) rootFromPath(w http.ResponseWriter, r *http.Request) (common.Hash, bool) {
	root, err := merkle.ParseHash(r.PathValue("root"))
	if err != nil {
		http.Error(w, "root must be a 0x-prefixed 32 byte hex string", http.StatusBadRequest)
		return common.Hash{}, false
	}
	return root, true
}

func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "Failed to parse request: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

// statusForError maps domain errors onto HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, distribution.ErrDistributionNotFound),
		errors.Is(err, merkle.ErrNotFound),
		errors.Is(err, merkle.ErrIndexOutOfRange):
		return http.StatusNotFound
	case errors.Is(err, merkle.ErrEmptyInput),
		errors.Is(err, merkle.ErrEncodingOverflow),
		errors.Is(err, merkle.ErrInvalidFieldValue),
		errors.Is(err, util.ErrUnsupportedType):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusForError(err)
	if status == http.StatusInternalServerError {
		s.logger.Sugar().Errorw("Request failed", "error", err)
		http.Error(w, "Internal error", status)
		return
	}
	http.Error(w, err.Error(), status)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Sugar().Errorw("Failed to encode response", "error", err)
	}
}
