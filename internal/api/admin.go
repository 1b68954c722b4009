package api

import (
	"net/http"

	"github.com/topteen77/indo-israel-sub001/internal/routing"
	"github.com/topteen77/indo-israel-sub001/internal/store"
)

type AdminHandler struct {
	store      store.Store
	classifier *routing.Classifier
}

func NewAdminHandler(s store.Store, c *routing.Classifier) *AdminHandler {
	return &AdminHandler{store: s, classifier: c}
}

func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.GetStats(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

type RuleInfo struct {
	Name    string `json:"name"`
	When    string `json:"when"`
	Effects int    `json:"effects"`
}

// Rules lists the routing rules in evaluation order.
func (h *AdminHandler) Rules(w http.ResponseWriter, r *http.Request) {
	rules := h.classifier.Rules()
	infos := make([]RuleInfo, 0, len(rules))
	for _, rule := range rules {
		infos = append(infos, RuleInfo{Name: rule.Name, When: rule.When.String(), Effects: len(rule.Then)})
	}
	writeJSON(w, http.StatusOK, infos)
}
