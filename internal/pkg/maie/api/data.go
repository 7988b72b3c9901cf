package api

// SubmitResponse - MAIE response to process and process_text calls
type SubmitResponse struct {
	TaskID string `json:"task_id"`
	Status string `json:"status"`
}

// TextRequest - process_text request body
type TextRequest struct {
	Text       string `json:"text"`
	TemplateID string `json:"template_id,omitempty"`
	Features   string `json:"features"`
}

// TaskStatus - status method response. Every field except Status may be absent,
// also for COMPLETE and FAILED tasks
type TaskStatus struct {
	TaskID      string   `json:"task_id,omitempty"`
	Status      string   `json:"status"`
	Error       *string  `json:"error,omitempty"`
	ErrorCode   *string  `json:"error_code,omitempty"`
	Stage       *string  `json:"stage,omitempty"`
	SubmittedAt *string  `json:"submitted_at,omitempty"`
	CompletedAt *string  `json:"completed_at,omitempty"`
	Metrics     *Metrics `json:"metrics,omitempty"`
	Results     *Results `json:"results,omitempty"`
}

// Metrics - quality and performance values of a processed task
type Metrics struct {
	InputDurationSeconds  *float64 `json:"input_duration_seconds,omitempty"`
	ProcessingTimeSeconds *float64 `json:"processing_time_seconds,omitempty"`
	RTF                   *float64 `json:"rtf,omitempty"`
	VADCoverage           *float64 `json:"vad_coverage,omitempty"`
	ASRConfidenceAvg      *float64 `json:"asr_confidence_avg,omitempty"`
}

// Results of a completed task
type Results struct {
	RawTranscript   *string  `json:"raw_transcript,omitempty"`
	CleanTranscript *string  `json:"clean_transcript,omitempty"`
	Summary         *Summary `json:"summary,omitempty"`
}

// Summary is a structured summary produced by the LLM stage
type Summary struct {
	Title   string   `json:"title,omitempty"`
	Summary string   `json:"summary,omitempty"`
	Topics  []string `json:"topics,omitempty"`
	Tags    []string `json:"tags,omitempty"`
}

// StrValue returns "" for nil
func StrValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
