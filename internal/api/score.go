package api

import (
	"net/http"

	"github.com/p-n-ai/clinicase/internal/casemodel"
	"github.com/p-n-ai/clinicase/internal/scoring"
)

type scoreMCQRequest struct {
	Content  casemodel.MCQContent `json:"content"`
	Selected int                  `json:"selected"`
}

type scoreEssayRequest struct {
	Question casemodel.EssayQuestion `json:"question"`
	Answer   string                  `json:"answer"`
}

func handleScoreMCQ(w http.ResponseWriter, r *http.Request) {
	var req scoreMCQRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := scoring.MCQ(req.Content, req.Selected)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func handleScoreEssay(w http.ResponseWriter, r *http.Request) {
	var req scoreEssayRequest
	if !decode(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, scoring.Essay(req.Question, req.Answer))
}
