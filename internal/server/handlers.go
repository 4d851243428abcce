package server

import (
	"net/http"
	"strconv"

	"github.com/matzehuels/klumpen/pkg/buildinfo"
	"github.com/matzehuels/klumpen/pkg/errors"
	"github.com/matzehuels/klumpen/pkg/pipeline"
	"github.com/matzehuels/klumpen/pkg/report"
	"github.com/matzehuels/klumpen/pkg/storage"
)

type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Commit  string `json:"commit"`
}

type listResponse struct {
	Analyses []storage.Summary `json:"analyses"`
}

type chainsResponse struct {
	AnalysisID string            `json:"analysis_id"`
	Chains     []report.ChainDoc `json:"chains"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Version: buildinfo.Version, Commit: buildinfo.Commit})
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	format, err := requestFormat(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	body := http.MaxBytesReader(w, r.Body, s.maxBody)
	rep, err := report.ReadReport(body, format)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if name := r.URL.Query().Get("target"); name != "" {
		rep.Target = name
	}
	if rep.Target == "" {
		rep.Target = "upload"
	}

	opts, err := s.options(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	a, hit, err := s.runner.AnalyzeWithCacheInfo(r.Context(), rep, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.store.Save(r.Context(), a); err != nil {
		s.writeError(w, r, err)
		return
	}
	setCacheHeader(w, hit)
	w.Header().Set("Location", "/v1/analyses/"+a.ID)
	respond(w, r, http.StatusCreated, a)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r, "limit", errors.ErrCodeInvalidInput)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	list, err := s.store.List(r.Context(), limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if list == nil {
		list = []storage.Summary{}
	}
	respond(w, r, http.StatusOK, listResponse{Analyses: list})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	respond(w, r, http.StatusOK, analysisFrom(r.Context()))
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(r.Context(), analysisFrom(r.Context()).ID); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleTreemap(w http.ResponseWriter, r *http.Request) {
	opts, err := s.options(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	doc, hit, err := s.runner.TreemapWithCacheInfo(r.Context(), analysisFrom(r.Context()), opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	setCacheHeader(w, hit)
	respond(w, r, http.StatusOK, doc)
}

func (s *Server) handleChain(w http.ResponseWriter, r *http.Request) {
	opts, err := s.options(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	a := analysisFrom(r.Context())

	if target := r.URL.Query().Get("target"); target != "" {
		doc, err := s.runner.Why(r.Context(), a, target, opts)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		respond(w, r, http.StatusOK, doc)
		return
	}

	docs, err := s.runner.Chains(r.Context(), a, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, chainsResponse{AnalysisID: a.ID, Chains: docs})
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	opts, err := s.options(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	q := r.URL.Query()
	gopts := pipeline.GraphOptions{
		Target: q.Get("target"),
		Short:  boolParam(q.Get("short")),
		Layout: boolParam(q.Get("layout")),
	}
	out, err := s.runner.Graph(r.Context(), analysisFrom(r.Context()), gopts, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/vnd.graphviz; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out)
}

// options merges the server defaults with the query parameters.
func (s *Server) options(r *http.Request) (pipeline.Options, error) {
	opts := s.defaults
	q := r.URL.Query()

	var err error
	if opts.Width, err = intParamOr(r, "width", opts.Width, errors.ErrCodeInvalidCanvas); err != nil {
		return opts, err
	}
	if opts.Height, err = intParamOr(r, "height", opts.Height, errors.ErrCodeInvalidCanvas); err != nil {
		return opts, err
	}
	if opts.ChainLimit, err = intParamOr(r, "limit", opts.ChainLimit, errors.ErrCodeInvalidInput); err != nil {
		return opts, err
	}
	if v := q.Get("zoom"); v != "" {
		opts.Zoom = v
	}
	if v := q.Get("entry"); v != "" {
		opts.Entry = v
	}
	opts.Refresh = boolParam(q.Get("refresh"))
	return opts, nil
}

func intParam(r *http.Request, name string, code errors.Code) (int, error) {
	return intParamOr(r, name, 0, code)
}

func intParamOr(r *http.Request, name string, def int, code errors.Code) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.Wrap(code, err, "%s must be an integer, got %q", name, v)
	}
	return n, nil
}

func boolParam(v string) bool {
	b, _ := strconv.ParseBool(v)
	return b
}

func setCacheHeader(w http.ResponseWriter, hit bool) {
	if hit {
		w.Header().Set("X-Cache", "HIT")
	} else {
		w.Header().Set("X-Cache", "MISS")
	}
}
