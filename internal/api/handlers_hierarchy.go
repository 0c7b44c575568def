package api

import (
	"net/http"

	"github.com/dgallion1/matclass/internal/hierarchy"
	"github.com/go-chi/chi/v5"
)

type nodeResponse struct {
	Code        string             `json:"codigo"`
	Description string             `json:"descricao"`
	Leaf        bool               `json:"folha"`
	Path        []hierarchy.Option `json:"caminho"`
	Children    []childResponse    `json:"filhos"`
}

type childResponse struct {
	Code        string `json:"codigo"`
	Description string `json:"descricao"`
	Children    int    `json:"num_filhos"`
}

// handleHierarchy returns a node with its ancestry and direct children.
// Without a code it returns the root.
func (s *Server) handleHierarchy(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if code == "" {
		code = hierarchy.RootCode
	}
	node, err := s.deps.Tree.Lookup(code)
	if err != nil {
		jsonError(w, "code not found: "+code, http.StatusNotFound)
		return
	}
	path, err := s.deps.Tree.Path(node.Code)
	if err != nil {
		// Orphan: indexed but not reachable from the root.
		path = []hierarchy.Option{}
	}

	children := make([]childResponse, 0, node.NumChildren())
	for _, c := range node.Children() {
		children = append(children, childResponse{
			Code:        c.Code,
			Description: c.Description,
			Children:    c.NumChildren(),
		})
	}
	writeJSON(w, http.StatusOK, nodeResponse{
		Code:        node.Code,
		Description: node.Description,
		Leaf:        node.IsLeaf() && !node.IsRoot(),
		Path:        path,
		Children:    children,
	})
}
