package gateway

import (
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"bitbucket.org/airenas/maiebridge/internal/pkg/cmdapp"
	"bitbucket.org/airenas/maiebridge/internal/pkg/config"
	"bitbucket.org/airenas/maiebridge/internal/pkg/maie"
	"bitbucket.org/airenas/maiebridge/internal/pkg/maie/api"
	"bitbucket.org/airenas/maiebridge/internal/pkg/messages"
	"bitbucket.org/airenas/maiebridge/internal/pkg/notify"
	"bitbucket.org/airenas/maiebridge/internal/pkg/persistence"
	"bitbucket.org/airenas/maiebridge/internal/pkg/progress"
	"bitbucket.org/airenas/maiebridge/internal/pkg/template"
	"bitbucket.org/airenas/maiebridge/internal/pkg/utils"
	"github.com/pkg/errors"
)

type processHandler struct {
	data *ServiceData
}

type formParams struct {
	templateID string
	features   string
}

//ServeHTTP streams the file part to MAIE, form fields must precede the file
func (h *processHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	user := userID(r)
	if user == "" {
		httpError(w, "No user", http.StatusUnauthorized, nil)
		return
	}
	cmdapp.Log.Infof("Process audio from %s, user %s", r.RemoteAddr, user)
	mr, err := r.MultipartReader()
	if err != nil {
		httpError(w, "Can't read multipart form", http.StatusBadRequest, err)
		return
	}
	var prm formParams
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			httpError(w, "No file", http.StatusBadRequest, nil)
			return
		}
		if err != nil {
			httpError(w, "Can't read multipart form", http.StatusBadRequest, err)
			return
		}
		switch part.FormName() {
		case PrmFile:
			h.process(r.Context(), w, user, part, &prm)
			part.Close()
			return
		case PrmTemplateID:
			prm.templateID, err = readField(part)
		case PrmFeatures:
			prm.features, err = readField(part)
		default:
			err = errors.Errorf("Unknown parameter '%s'", part.FormName())
		}
		part.Close()
		if err != nil {
			httpError(w, err.Error(), http.StatusBadRequest, nil)
			return
		}
	}
}

func (h *processHandler) process(ctx context.Context, w http.ResponseWriter, user string, part *multipart.Part, prm *formParams) {
	fileName := part.FileName()
	if fileName == "" {
		httpError(w, "No file name", http.StatusBadRequest, nil)
		return
	}
	features, err := h.data.Features.Get(prm.features)
	if err != nil {
		if errors.Is(err, config.ErrFeatureNotFound) {
			httpError(w, "Unknown features: "+prm.features, http.StatusBadRequest, nil)
		} else {
			httpError(w, "Can't select features", http.StatusInternalServerError, err)
		}
		return
	}
	if !checkTemplate(ctx, w, h.data.Templates, prm.templateID, user) {
		return
	}
	res, err := h.data.MAIE.Submit(ctx, part, fileName, prm.templateID, features)
	if err != nil {
		writeMAIEError(w, "Can't submit audio", err)
		return
	}
	registerTask(ctx, h.data, &persistence.Task{ID: res.TaskID, UserID: user, Kind: persistence.KindAudio,
		FileName: fileName, TemplateID: prm.templateID}, res)
	writeJSON(w, http.StatusOK, res)
}

type processTextHandler struct {
	data *ServiceData
}

func (h *processTextHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	user := userID(r)
	if user == "" {
		httpError(w, "No user", http.StatusUnauthorized, nil)
		return
	}
	var input TextRequest
	if err := decodeJSON(r, &input); err != nil {
		httpError(w, "Can't decode input", http.StatusBadRequest, err)
		return
	}
	if strings.TrimSpace(input.Text) == "" {
		httpError(w, "No text", http.StatusBadRequest, nil)
		return
	}
	if !checkTemplate(r.Context(), w, h.data.Templates, input.TemplateID, user) {
		return
	}
	cmdapp.Log.Infof("Process text of %d bytes, user %s", len(input.Text), user)
	res, err := h.data.MAIE.SubmitText(r.Context(), input.Text, input.TemplateID)
	if err != nil {
		writeMAIEError(w, "Can't submit text", err)
		return
	}
	registerTask(r.Context(), h.data, &persistence.Task{ID: res.TaskID, UserID: user, Kind: persistence.KindText,
		TemplateID: input.TemplateID}, res)
	writeJSON(w, http.StatusOK, res)
}

func readField(part *multipart.Part) (string, error) {
	b, err := io.ReadAll(io.LimitReader(part, maxField+1))
	if err != nil {
		return "", errors.Wrapf(err, "Can't read '%s'", part.FormName())
	}
	if len(b) > maxField {
		return "", errors.Errorf("Too long '%s'", part.FormName())
	}
	return strings.TrimSpace(string(b)), nil
}

func checkTemplate(ctx context.Context, w http.ResponseWriter, templates TemplateStore, id, user string) bool {
	if id == "" {
		return true
	}
	t, err := templates.Get(ctx, id)
	if err != nil {
		if errors.Is(err, template.ErrNotFound) {
			httpError(w, "Unknown template: "+id, http.StatusBadRequest, nil)
		} else {
			httpError(w, "Can't load template", http.StatusInternalServerError, err)
		}
		return false
	}
	if !visible(t, user) {
		httpError(w, "Unknown template: "+id, http.StatusBadRequest, nil)
		return false
	}
	return true
}

//registerTask is best-effort, MAIE has already accepted the task
func registerTask(ctx context.Context, data *ServiceData, t *persistence.Task, res *api.SubmitResponse) {
	t.Status = res.Status
	t.Progress = progress.Convert(res.Status)
	if err := data.TaskSaver.Save(ctx, t); err != nil {
		cmdapp.Log.Error(errors.Wrapf(err, "Can't save task %s", t.ID))
		return
	}
	cmdapp.LogIf(data.MessageSender.Send(messages.NewQueueMessage(t.ID, t.UserID), messages.TaskSubmitted))
	data.Notifier.EmitToUser(t.UserID, notify.TaskProgress{TaskID: t.ID, Status: t.Status, Progress: t.Progress})
}

func writeMAIEError(w http.ResponseWriter, msg string, err error) {
	var httpErr *maie.HTTPError
	switch {
	case errors.Is(err, maie.ErrNoAPIKey):
		httpError(w, msg+": service is not configured", http.StatusServiceUnavailable, err)
	case errors.Is(err, maie.ErrWrongTaskID):
		httpError(w, "Wrong task ID", http.StatusBadRequest, nil)
	case errors.As(err, &httpErr) && httpErr.Code == http.StatusNotFound:
		httpError(w, "Not found", http.StatusNotFound, err)
	case errors.As(err, &httpErr) && httpErr.Code >= 400 && httpErr.Code < 500:
		httpError(w, msg+": "+utils.Trim(httpErr.Body, 200), http.StatusBadRequest, err)
	case errors.Is(err, context.Canceled):
		cmdapp.Log.Warnf("%s: %v", msg, err)
	default:
		httpError(w, msg, http.StatusBadGateway, err)
	}
}
