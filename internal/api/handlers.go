package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/drrnair/dictatemed-mvp-sub000/internal/diff"
	"github.com/drrnair/dictatemed-mvp-sub000/internal/letter"
	"github.com/drrnair/dictatemed-mvp-sub000/internal/profile"
	"github.com/drrnair/dictatemed-mvp-sub000/internal/prompt"
)

// ApprovalRequest is the body for POST /api/v1/styled/approvals.
type ApprovalRequest struct {
	ClinicianID  string `json:"clinician_id"`
	LetterID     string `json:"letter_id"`
	Subspecialty string `json:"subspecialty"`
	DraftText    string `json:"draft_text"`
	FinalText    string `json:"final_text"`
}

// ApprovalResponse reports what the recorder extracted from one approval.
type ApprovalResponse struct {
	EditsRecorded int                `json:"edits_recorded"`
	Sections      []diff.SectionDiff `json:"sections"`
}

// GuidanceRequest is the body for POST /api/v1/styled/guidance. The GET
// variant takes the same fields as query parameters.
type GuidanceRequest struct {
	ClinicianID  string `json:"clinician_id"`
	Subspecialty string `json:"subspecialty"`
	LetterType   string `json:"letter_type"`
	BasePrompt   string `json:"base_prompt"`
}

// StrengthRequest is the body for the learning-strength update.
type StrengthRequest struct {
	LearningStrength float64 `json:"learning_strength"`
}

// AggregateRunRequest is the body for POST /api/v1/styled/aggregates/run.
type AggregateRunRequest struct {
	Subspecialty string `json:"subspecialty"`
	PeriodStart  string `json:"period_start"` // RFC 3339
	PeriodEnd    string `json:"period_end"`
}

// profileResponse is the wire shape of a stored profile.
type profileResponse struct {
	ClinicianID  string `json:"clinician_id"`
	Subspecialty string `json:"subspecialty"`

	SectionOrder     []letter.SectionType                     `json:"section_order,omitempty"`
	SectionInclusion map[letter.SectionType]float64           `json:"section_inclusion,omitempty"`
	SectionVerbosity map[letter.SectionType]profile.Verbosity `json:"section_verbosity,omitempty"`
	PreferredPhrases map[letter.SectionType][]string          `json:"preferred_phrases,omitempty"`
	AvoidedPhrases   map[letter.SectionType][]string          `json:"avoided_phrases,omitempty"`
	Vocabulary       map[string]string                        `json:"vocabulary,omitempty"`

	TerminologyLevel string `json:"terminology_level,omitempty"`
	GreetingStyle    string `json:"greeting_style,omitempty"`
	ClosingStyle     string `json:"closing_style,omitempty"`
	SignoffTemplate  string `json:"signoff_template,omitempty"`
	Formality        string `json:"formality,omitempty"`
	ParagraphStyle   string `json:"paragraph_style,omitempty"`

	Confidence        profile.Confidence `json:"confidence"`
	OverallConfidence float64            `json:"overall_confidence"`

	LearningStrength   float64   `json:"learning_strength"`
	TotalEditsAnalyzed int       `json:"total_edits_analyzed"`
	LastAnalyzedAt     time.Time `json:"last_analyzed_at"`

	ModelID  string   `json:"model_id,omitempty"`
	Insights []string `json:"insights,omitempty"`
}

func toProfileResponse(p *profile.Profile) profileResponse {
	return profileResponse{
		ClinicianID:        p.ClinicianID,
		Subspecialty:       p.Subspecialty,
		SectionOrder:       p.SectionOrder,
		SectionInclusion:   p.SectionInclusion,
		SectionVerbosity:   p.SectionVerbosity,
		PreferredPhrases:   p.PreferredPhrases,
		AvoidedPhrases:     p.AvoidedPhrases,
		Vocabulary:         p.Vocabulary,
		TerminologyLevel:   p.TerminologyLevel,
		GreetingStyle:      p.GreetingStyle,
		ClosingStyle:       p.ClosingStyle,
		SignoffTemplate:    p.SignoffTemplate,
		Formality:          p.Formality,
		ParagraphStyle:     p.ParagraphStyle,
		Confidence:         p.Confidence,
		OverallConfidence:  p.Confidence.OverallConfidence(),
		LearningStrength:   p.LearningStrength,
		TotalEditsAnalyzed: p.TotalEditsAnalyzed,
		LastAnalyzedAt:     p.LastAnalyzedAt,
		ModelID:            p.ModelID,
		Insights:           p.Insights,
	}
}

// recordApproval handles POST /api/v1/styled/approvals. The edit delta is
// recorded synchronously; the analysis trigger check runs in the background
// so the response never waits on it.
func (s *Server) recordApproval(w http.ResponseWriter, r *http.Request) {
	var req ApprovalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf(`{"error":"invalid JSON: %v"}`, err), http.StatusBadRequest)
		return
	}
	if req.ClinicianID == "" || req.LetterID == "" || req.Subspecialty == "" {
		http.Error(w, `{"error":"clinician_id, letter_id and subspecialty are required"}`, http.StatusBadRequest)
		return
	}

	created, sections := s.recorder.RecordApproval(r.Context(), req.ClinicianID, req.LetterID, req.Subspecialty, req.DraftText, req.FinalText)

	if created > 0 && s.processor != nil {
		clinicianID, subspecialty := req.ClinicianID, req.Subspecialty
		go s.processor.MaybeRequestAnalysis(context.Background(), clinicianID, subspecialty)
	}

	s.writeJSON(w, http.StatusOK, ApprovalResponse{EditsRecorded: created, Sections: sections})
}

// guidanceQuery handles GET /api/v1/styled/guidance.
func (s *Server) guidanceQuery(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	s.serveGuidance(w, r, GuidanceRequest{
		ClinicianID:  q.Get("clinician_id"),
		Subspecialty: q.Get("subspecialty"),
		LetterType:   q.Get("letter_type"),
		BasePrompt:   q.Get("base_prompt"),
	})
}

// guidanceBody handles POST /api/v1/styled/guidance.
func (s *Server) guidanceBody(w http.ResponseWriter, r *http.Request) {
	var req GuidanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf(`{"error":"invalid JSON: %v"}`, err), http.StatusBadRequest)
		return
	}
	s.serveGuidance(w, r, req)
}

func (s *Server) serveGuidance(w http.ResponseWriter, r *http.Request, req GuidanceRequest) {
	if req.ClinicianID == "" || req.Subspecialty == "" {
		http.Error(w, `{"error":"clinician_id and subspecialty are required"}`, http.StatusBadRequest)
		return
	}

	p, ok := s.cache.Get(req.ClinicianID, req.Subspecialty)
	if !ok {
		var err error
		p, err = s.store.GetProfile(r.Context(), req.ClinicianID, req.Subspecialty)
		if err != nil {
			s.logger.Error("profile read failed", "clinician_id", req.ClinicianID, "error", err)
			http.Error(w, `{"error":"profile read failed"}`, http.StatusInternalServerError)
			return
		}
		if p != nil {
			s.cache.Set(req.ClinicianID, req.Subspecialty, p)
		}
	}

	guidance := prompt.Condition(req.BasePrompt, p, req.LetterType)
	s.writeJSON(w, http.StatusOK, guidance)
}

// getProfile handles GET /api/v1/styled/profiles/{clinicianID}/{subspecialty}.
// It reads the store directly so callers always see the persisted state.
func (s *Server) getProfile(w http.ResponseWriter, r *http.Request) {
	clinicianID := chi.URLParam(r, "clinicianID")
	subspecialty := chi.URLParam(r, "subspecialty")

	p, err := s.store.GetProfile(r.Context(), clinicianID, subspecialty)
	if err != nil {
		s.logger.Error("profile read failed", "clinician_id", clinicianID, "error", err)
		http.Error(w, `{"error":"profile read failed"}`, http.StatusInternalServerError)
		return
	}
	if p == nil {
		http.Error(w, `{"error":"profile not found"}`, http.StatusNotFound)
		return
	}

	s.writeJSON(w, http.StatusOK, toProfileResponse(p))
}

// updateStrength handles PUT .../profiles/{clinicianID}/{subspecialty}/strength.
// Validation happens before any write: an out-of-range value changes nothing.
func (s *Server) updateStrength(w http.ResponseWriter, r *http.Request) {
	clinicianID := chi.URLParam(r, "clinicianID")
	subspecialty := chi.URLParam(r, "subspecialty")

	var req StrengthRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf(`{"error":"invalid JSON: %v"}`, err), http.StatusBadRequest)
		return
	}
	if err := profile.ValidateStrength(req.LearningStrength); err != nil {
		http.Error(w, fmt.Sprintf(`{"error":"%v"}`, err), http.StatusBadRequest)
		return
	}

	found, err := s.store.UpdateLearningStrength(r.Context(), clinicianID, subspecialty, req.LearningStrength)
	if err != nil {
		s.logger.Error("strength update failed", "clinician_id", clinicianID, "error", err)
		http.Error(w, `{"error":"strength update failed"}`, http.StatusInternalServerError)
		return
	}
	if !found {
		http.Error(w, `{"error":"profile not found"}`, http.StatusNotFound)
		return
	}

	s.cache.Invalidate(clinicianID, subspecialty)
	s.writeJSON(w, http.StatusOK, map[string]any{
		"clinician_id":      clinicianID,
		"subspecialty":      subspecialty,
		"learning_strength": req.LearningStrength,
	})
}

// runAggregate handles POST /api/v1/styled/aggregates/run.
func (s *Server) runAggregate(w http.ResponseWriter, r *http.Request) {
	var req AggregateRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf(`{"error":"invalid JSON: %v"}`, err), http.StatusBadRequest)
		return
	}
	if req.Subspecialty == "" {
		http.Error(w, `{"error":"subspecialty is required"}`, http.StatusBadRequest)
		return
	}
	start, err := time.Parse(time.RFC3339, req.PeriodStart)
	if err != nil {
		http.Error(w, fmt.Sprintf(`{"error":"invalid period_start: %v"}`, err), http.StatusBadRequest)
		return
	}
	end, err := time.Parse(time.RFC3339, req.PeriodEnd)
	if err != nil {
		http.Error(w, fmt.Sprintf(`{"error":"invalid period_end: %v"}`, err), http.StatusBadRequest)
		return
	}

	agg, err := s.aggregator.Aggregate(r.Context(), req.Subspecialty, start, end, 0)
	if err != nil {
		s.logger.Error("aggregation failed", "subspecialty", req.Subspecialty, "error", err)
		http.Error(w, `{"error":"aggregation failed"}`, http.StatusInternalServerError)
		return
	}
	if agg == nil {
		s.writeJSON(w, http.StatusOK, map[string]any{
			"skipped": true,
			"reason":  "cohort or sample size below privacy thresholds",
		})
		return
	}

	s.writeJSON(w, http.StatusOK, agg)
}

// getAggregate handles GET /api/v1/styled/aggregates/{subspecialty}/{period}.
func (s *Server) getAggregate(w http.ResponseWriter, r *http.Request) {
	subspecialty := chi.URLParam(r, "subspecialty")
	period := chi.URLParam(r, "period")

	agg, err := s.store.GetAggregate(r.Context(), subspecialty, period)
	if err != nil {
		s.logger.Error("aggregate read failed", "subspecialty", subspecialty, "error", err)
		http.Error(w, `{"error":"aggregate read failed"}`, http.StatusInternalServerError)
		return
	}
	if agg == nil {
		http.Error(w, `{"error":"aggregate not found"}`, http.StatusNotFound)
		return
	}

	s.writeJSON(w, http.StatusOK, agg)
}
