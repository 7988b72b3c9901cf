package gateway

import (
	"context"
	"net/http"
	"strings"

	"bitbucket.org/airenas/maiebridge/internal/pkg/cmdapp"
	"bitbucket.org/airenas/maiebridge/internal/pkg/notify"
	"bitbucket.org/airenas/maiebridge/internal/pkg/template"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
)

func visible(t *template.Template, user string) bool {
	return t.OwnerType == template.OwnerSystem || t.OwnedBy(user)
}

func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	user := userID(r)
	if user == "" {
		httpError(w, "No user", http.StatusUnauthorized, nil)
	}
	return user, user != ""
}

func readTemplateInput(w http.ResponseWriter, r *http.Request) (*TemplateInput, bool) {
	var res TemplateInput
	if err := decodeJSON(r, &res); err != nil {
		httpError(w, "Can't decode input", http.StatusBadRequest, err)
		return nil, false
	}
	res.Name = strings.TrimSpace(res.Name)
	if res.Name == "" {
		httpError(w, "No name", http.StatusBadRequest, nil)
		return nil, false
	}
	if strings.TrimSpace(res.Content) == "" {
		httpError(w, "No content", http.StatusBadRequest, nil)
		return nil, false
	}
	return &res, true
}

//loadOwned returns the template only when the user owns it
func loadOwned(ctx context.Context, w http.ResponseWriter, data *ServiceData, id, user string) (*template.Template, bool) {
	t, err := data.Templates.Get(ctx, id)
	if err != nil {
		if errors.Is(err, template.ErrNotFound) {
			httpError(w, "Not found", http.StatusNotFound, nil)
		} else {
			httpError(w, "Can't load template", http.StatusInternalServerError, err)
		}
		return nil, false
	}
	if !t.OwnedBy(user) {
		if visible(t, user) {
			httpError(w, "Template is read only", http.StatusForbidden, nil)
		} else {
			httpError(w, "Not found", http.StatusNotFound, nil)
		}
		return nil, false
	}
	return t, true
}

type templateListHandler struct {
	data *ServiceData
}

func (h *templateListHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	res, err := h.data.Templates.List(r.Context(), user)
	if err != nil {
		httpError(w, "Can't list templates", http.StatusInternalServerError, err)
		return
	}
	if res == nil {
		res = []*template.Template{}
	}
	writeJSON(w, http.StatusOK, res)
}

type templateGetHandler struct {
	data *ServiceData
}

func (h *templateGetHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	res, err := h.data.Templates.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		if errors.Is(err, template.ErrNotFound) {
			httpError(w, "Not found", http.StatusNotFound, nil)
		} else {
			httpError(w, "Can't load template", http.StatusInternalServerError, err)
		}
		return
	}
	if !visible(res, user) {
		httpError(w, "Not found", http.StatusNotFound, nil)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type templateCreateHandler struct {
	data *ServiceData
}

func (h *templateCreateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	input, ok := readTemplateInput(w, r)
	if !ok {
		return
	}
	res, err := h.data.Templates.Create(r.Context(), &template.Template{Name: input.Name, Content: input.Content,
		OwnerType: template.OwnerUser, OwnerID: &user})
	if err != nil {
		httpError(w, "Can't create template", http.StatusInternalServerError, err)
		return
	}
	cmdapp.Log.Infof("Created template %s for %s", res.ID, user)
	h.data.Notifier.EmitToUser(user, notify.TemplateChanged{TemplateID: res.ID, Name: res.Name, Action: notify.TemplateCreated})
	writeJSON(w, http.StatusCreated, res)
}

type templateUpdateHandler struct {
	data *ServiceData
}

func (h *templateUpdateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	input, ok := readTemplateInput(w, r)
	if !ok {
		return
	}
	id := mux.Vars(r)["id"]
	if _, ok := loadOwned(r.Context(), w, h.data, id, user); !ok {
		return
	}
	res, err := h.data.Templates.Update(r.Context(), id, input.Name, input.Content)
	if err != nil {
		if errors.Is(err, template.ErrNotFound) {
			httpError(w, "Not found", http.StatusNotFound, nil)
		} else {
			httpError(w, "Can't update template", http.StatusInternalServerError, err)
		}
		return
	}
	h.data.Notifier.EmitToUser(user, notify.TemplateChanged{TemplateID: res.ID, Name: res.Name, Action: notify.TemplateUpdated})
	writeJSON(w, http.StatusOK, res)
}

type templateDeleteHandler struct {
	data *ServiceData
}

func (h *templateDeleteHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	id := mux.Vars(r)["id"]
	t, ok := loadOwned(r.Context(), w, h.data, id, user)
	if !ok {
		return
	}
	if err := h.data.Templates.Delete(r.Context(), id); err != nil && !errors.Is(err, template.ErrNotFound) {
		httpError(w, "Can't delete template", http.StatusInternalServerError, err)
		return
	}
	cmdapp.Log.Infof("Deleted template %s", id)
	h.data.Notifier.EmitToUser(user, notify.TemplateChanged{TemplateID: id, Name: t.Name, Action: notify.TemplateDeleted})
	w.WriteHeader(http.StatusNoContent)
}
