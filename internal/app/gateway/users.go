package gateway

import (
	"io"
	"net/http"

	"bitbucket.org/airenas/maiebridge/internal/pkg/cmdapp"
	"github.com/gorilla/mux"
)

type kickHandler struct {
	data *ServiceData
}

func (h *kickHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var input KickInput
	if err := decodeJSON(r, &input); err != nil && err != io.EOF {
		httpError(w, "Can't decode input", http.StatusBadRequest, err)
		return
	}
	if input.Message == "" {
		input.Message = "Session closed"
	}
	cmdapp.Log.Infof("Kick user %s", id)
	h.data.Notifier.Kick(id, input.Message)
	w.WriteHeader(http.StatusNoContent)
}
