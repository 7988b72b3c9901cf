package gateway

import (
	"net/http"

	"bitbucket.org/airenas/maiebridge/internal/pkg/cmdapp"
	"bitbucket.org/airenas/maiebridge/internal/pkg/mongo"
	"bitbucket.org/airenas/maiebridge/internal/pkg/progress"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
)

type statusHandler struct {
	data *ServiceData
}

//ServeHTTP returns MAIE status of the caller's task, other users' tasks are reported as not found
func (h *statusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	user := userID(r)
	if user == "" {
		httpError(w, "No user", http.StatusUnauthorized, nil)
		return
	}
	id := mux.Vars(r)["id"]
	cmdapp.Log.Debugf("Status %s, user %s", id, user)
	t, err := h.data.TaskSaver.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, mongo.ErrNotFound) {
			httpError(w, "Not found", http.StatusNotFound, nil)
		} else {
			httpError(w, "Can't load task", http.StatusInternalServerError, err)
		}
		return
	}
	if t.UserID != user {
		cmdapp.Log.Warnf("User %s asked for status of %s", user, id)
		httpError(w, "Not found", http.StatusNotFound, nil)
		return
	}
	st, err := h.data.MAIE.GetStatus(r.Context(), id)
	if err != nil {
		writeMAIEError(w, "Can't get status", err)
		return
	}
	if st.TaskID == "" {
		st.TaskID = id
	}
	writeJSON(w, http.StatusOK, &StatusResult{TaskStatus: st, Progress: progress.Convert(st.Status)})
}
