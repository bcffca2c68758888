package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/p-n-ai/clinicase/internal/casemodel"
	"github.com/p-n-ai/clinicase/internal/validation"
)

// ValidationResult is the live validation answer for one step.
type ValidationResult struct {
	StepIndex int               `json:"stepIndex"`
	Errors    validation.Errors `json:"errors"`
	HasErrors bool              `json:"hasErrors"`
	// Error is set when the message was not a decodable step.
	Error string `json:"error,omitempty"`
}

func newValidationResult(st casemodel.Step) ValidationResult {
	errs := validation.Step(st)
	return ValidationResult{StepIndex: st.StepIndex, Errors: errs, HasErrors: errs.HasErrors()}
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	st, ok := s.decodeStep(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, newValidationResult(st))
}

// handleValidateSocket answers every step message on the socket with its
// validation result, so an editor can validate on each keystroke without a
// request per change.
func (s *Server) handleValidateSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		slog.Warn("websocket accept failed", "error", err)
		return
	}
	defer conn.CloseNow()
	conn.SetReadLimit(maxBodyBytes)

	ctx := r.Context()
	for {
		var rec casemodel.Record
		if err := wsjson.Read(ctx, conn, &rec); err != nil {
			if websocket.CloseStatus(err) == -1 && !errors.Is(err, context.Canceled) {
				slog.Debug("validation socket read failed", "error", err)
			}
			return
		}

		result := ValidationResult{StepIndex: rec.StepIndex, Errors: validation.Errors{}}
		if st, err := casemodel.FromRecord(s.reg, rec); err != nil {
			result.Error = err.Error()
		} else {
			result = newValidationResult(st)
		}
		if err := wsjson.Write(ctx, conn, result); err != nil {
			slog.Debug("validation socket write failed", "error", err)
			return
		}
	}
}
