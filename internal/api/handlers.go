package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/imamik/galeractl/internal/cluster"
	"github.com/imamik/galeractl/internal/introspect"
	"github.com/imamik/galeractl/internal/provisioning"
	"github.com/imamik/galeractl/internal/store"
)

type createClusterRequest struct {
	Name string `json:"name"`
}

type addNodeRequest struct {
	Name    string `json:"wsrepNodeName"`
	Address string `json:"wsrepNodeAddress"`
	Role    string `json:"role"`
}

type clusterDetails struct {
	cluster.Cluster
	Nodes []cluster.Node `json:"nodes"`
}

type provisionResponse struct {
	*provisioning.Result
	Error string `json:"error,omitempty"`
}

type dbInfoResponse struct {
	Node cluster.Node `json:"node"`
	*introspect.Report
}

func (s *Server) createCluster(w http.ResponseWriter, r *http.Request) {
	var req createClusterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	c, err := s.store.CreateCluster(r.Context(), req.Name)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.log.Info("cluster created", "cluster", c.ID, "name", c.Name)
	writeJSONStatus(w, http.StatusCreated, c)
}

func (s *Server) listClusters(w http.ResponseWriter, r *http.Request) {
	clusters, err := s.store.ListClusters(r.Context())
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, clusters)
}

func (s *Server) getCluster(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "clusterID")
	if !ok {
		return
	}

	peers, err := s.store.PeerSet(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, clusterDetails{Cluster: peers.Cluster, Nodes: peers.Nodes})
}

func (s *Server) listNodes(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "clusterID")
	if !ok {
		return
	}

	nodes, err := s.store.ListNodes(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, nodes)
}

func (s *Server) addNode(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "clusterID")
	if !ok {
		return
	}

	var req addNodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	node, err := req.node(id)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	node, err = s.store.CreateNode(r.Context(), node)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.log.Info("node registered", "cluster", id, "node", node.Name, "address", node.Address)
	writeJSONStatus(w, http.StatusCreated, node)
}

func (req addNodeRequest) node(clusterID int64) (cluster.Node, error) {
	return cluster.NewNode(clusterID, req.Name, req.Address, req.Role)
}

func (s *Server) provision(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "clusterID")
	if !ok {
		return
	}

	peers, err := s.store.PeerSet(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	p, err := s.newProvisioner()
	if err != nil {
		s.log.Error(err, "failed to set up provisioning", "cluster", id)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	result, err := p.Provision(r.Context(), peers)
	s.writeResult(w, result, err)
}

func (s *Server) joinNode(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "clusterID")
	if !ok {
		return
	}
	name := chi.URLParam(r, "nodeName")

	peers, err := s.store.PeerSet(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	p, err := s.newProvisioner()
	if err != nil {
		s.log.Error(err, "failed to set up provisioning", "cluster", id)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	result, err := p.ProvisionNode(r.Context(), peers, name)
	s.writeResult(w, result, err)
}

func (s *Server) writeResult(w http.ResponseWriter, result *provisioning.Result, err error) {
	var batchErr *provisioning.PartialBatchFailure
	switch {
	case err == nil:
		writeJSON(w, provisionResponse{Result: result})
	case errors.As(err, &batchErr) && result != nil:
		writeJSONStatus(w, http.StatusBadGateway, provisionResponse{Result: result, Error: err.Error()})
	default:
		s.writeStoreError(w, err)
	}
}

func (s *Server) dbInfo(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "nodeID")
	if !ok {
		return
	}
	user, password, ok := r.BasicAuth()
	if !ok || user == "" {
		w.Header().Set("WWW-Authenticate", `Basic realm="database"`)
		writeError(w, http.StatusUnauthorized, "database credentials required")
		return
	}

	node, err := s.store.GetNode(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	report, err := s.inspector.Inspect(r.Context(), node.Address, introspect.Credentials{User: user, Password: password})
	if err != nil {
		s.log.Info("introspection failed", "node", node.Name, "error", err.Error())
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, dbInfoResponse{Node: node, Report: report})
}

// writeStoreError maps domain errors to status codes.
func (s *Server) writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound),
		errors.Is(err, cluster.ErrEmptyPeerSet),
		errors.Is(err, cluster.ErrNodeNotInPeerSet):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, store.ErrConflict),
		errors.Is(err, cluster.ErrMultiplePrimaries),
		errors.Is(err, cluster.ErrNoPrimary):
		writeError(w, http.StatusConflict, err.Error())
	default:
		s.log.Error(err, "request failed")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func idParam(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, v any) {
	writeJSONStatus(w, http.StatusOK, v)
}

func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSONStatus(w, status, map[string]string{"error": msg})
}
