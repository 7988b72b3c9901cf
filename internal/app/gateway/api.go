package gateway

import "bitbucket.org/airenas/maiebridge/internal/pkg/maie/api"

const (
	//PrmFile form field of the audio file
	PrmFile = "file"
	//PrmTemplateID form field of the template
	PrmTemplateID = "template_id"
	//PrmFeatures form field of features selector
	PrmFeatures = "features"

	maxJSONBody = 10 << 20
	maxField    = 1 << 10
)

//TextRequest is a body of process_text
type TextRequest struct {
	Text       string `json:"text"`
	TemplateID string `json:"template_id,omitempty"`
}

//StatusResult is MAIE status with computed progress
type StatusResult struct {
	*api.TaskStatus
	Progress int32 `json:"progress"`
}

//TemplateInput is a body of templates create and update
type TemplateInput struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

//KickInput is a body of user kick
type KickInput struct {
	Message string `json:"message"`
}
