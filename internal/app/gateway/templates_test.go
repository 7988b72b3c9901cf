package gateway

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"bitbucket.org/airenas/maiebridge/internal/pkg/notify"
	"bitbucket.org/airenas/maiebridge/internal/pkg/template"
	"bitbucket.org/airenas/maiebridge/internal/pkg/test"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newRequest(method, url, body, user string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, url, nil)
	} else {
		req = httptest.NewRequest(method, url, strings.NewReader(body))
	}
	if user != "" {
		req.Header.Set(notify.UserHeader, user)
	}
	return req
}

func TestTemplates_List(t *testing.T) {
	td := initTest(t)
	td.templates.On("List", "u1").Return([]*template.Template{userTemplate("t1", "u1"), systemTemplate("t2")}, nil)

	resp := test.Serve(NewRouter(td.data), newRequest("GET", "/templates", "", "u1"))

	require.Equal(t, 200, resp.Code)
	res := test.Decode[[]template.Template](t, resp)
	assert.Equal(t, 2, len(res))
	assert.Equal(t, "t2", res[1].ID)
}

func TestTemplates_ListEmpty(t *testing.T) {
	td := initTest(t)
	td.templates.On("List", "u1").Return(nil, nil)

	resp := test.Serve(NewRouter(td.data), newRequest("GET", "/templates", "", "u1"))

	assert.Equal(t, 200, resp.Code)
	assert.Equal(t, "[]\n", resp.Body.String())
}

func TestTemplates_NoUser(t *testing.T) {
	for _, r := range []*http.Request{newRequest("GET", "/templates", "", ""),
		newRequest("POST", "/templates", `{"name":"n","content":"c"}`, ""),
		newRequest("GET", "/templates/t1", "", ""),
		newRequest("PUT", "/templates/t1", `{"name":"n","content":"c"}`, ""),
		newRequest("DELETE", "/templates/t1", "", "")} {
		td := initTest(t)
		resp := test.Serve(NewRouter(td.data), r)
		assert.Equal(t, 401, resp.Code, r.Method)
	}
}

func TestTemplates_Get(t *testing.T) {
	tests := []struct {
		name string
		tmpl *template.Template
		err  error
		code int
	}{
		{name: "own", tmpl: userTemplate("t1", "u1"), code: 200},
		{name: "system", tmpl: systemTemplate("t1"), code: 200},
		{name: "foreign", tmpl: userTemplate("t1", "u2"), code: 404},
		{name: "missing", err: template.ErrNotFound, code: 404},
		{name: "fail", err: errors.New("olia"), code: 500},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			td := initTest(t)
			td.templates.On("Get", "t1").Return(tt.tmpl, tt.err)

			resp := test.Serve(NewRouter(td.data), newRequest("GET", "/templates/t1", "", "u1"))

			assert.Equal(t, tt.code, resp.Code)
		})
	}
}

func TestTemplates_Create(t *testing.T) {
	td := initTest(t)
	td.templates.On("Create", mock.Anything).Return(userTemplate("t1", "u1"), nil)
	td.notifier.On("EmitToUser", "u1", notify.TemplateChanged{TemplateID: "t1", Name: "n", Action: notify.TemplateCreated}).Return()

	resp := test.Serve(NewRouter(td.data), newRequest("POST", "/templates", `{"name":" n ","content":"c"}`, "u1"))

	require.Equal(t, 201, resp.Code)
	in := td.templates.Calls[0].Arguments[0].(*template.Template)
	assert.Equal(t, "n", in.Name)
	assert.Equal(t, template.OwnerUser, in.OwnerType)
	assert.Equal(t, "u1", *in.OwnerID)
	td.notifier.AssertExpectations(t)
}

func TestTemplates_CreateInvalid(t *testing.T) {
	for _, body := range []string{`{"name":"","content":"c"}`, `{"name":"n","content":" "}`, `{"name":`, `{"name":"n","content":"c","ownerId":"u2"}`} {
		td := initTest(t)
		resp := test.Serve(NewRouter(td.data), newRequest("POST", "/templates", body, "u1"))
		assert.Equal(t, 400, resp.Code, body)
		td.templates.AssertNotCalled(t, "Create", mock.Anything)
	}
}

func TestTemplates_Update(t *testing.T) {
	td := initTest(t)
	td.templates.On("Get", "t1").Return(userTemplate("t1", "u1"), nil)
	res := userTemplate("t1", "u1")
	res.Name = "n1"
	td.templates.On("Update", "t1", "n1", "c1").Return(res, nil)
	td.notifier.On("EmitToUser", "u1", notify.TemplateChanged{TemplateID: "t1", Name: "n1", Action: notify.TemplateUpdated}).Return()

	resp := test.Serve(NewRouter(td.data), newRequest("PUT", "/templates/t1", `{"name":"n1","content":"c1"}`, "u1"))

	assert.Equal(t, 200, resp.Code)
	assert.Equal(t, "n1", test.Decode[template.Template](t, resp).Name)
	td.notifier.AssertExpectations(t)
}

func TestTemplates_UpdateNotOwned(t *testing.T) {
	tests := []struct {
		name string
		tmpl *template.Template
		code int
	}{
		{name: "system", tmpl: systemTemplate("t1"), code: 403},
		{name: "foreign", tmpl: userTemplate("t1", "u2"), code: 404},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			td := initTest(t)
			td.templates.On("Get", "t1").Return(tt.tmpl, nil)

			resp := test.Serve(NewRouter(td.data), newRequest("PUT", "/templates/t1", `{"name":"n1","content":"c1"}`, "u1"))

			assert.Equal(t, tt.code, resp.Code)
			td.templates.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
			td.notifier.AssertNotCalled(t, "EmitToUser", mock.Anything, mock.Anything)
		})
	}
}

func TestTemplates_Delete(t *testing.T) {
	td := initTest(t)
	td.templates.On("Get", "t1").Return(userTemplate("t1", "u1"), nil)
	td.templates.On("Delete", "t1").Return(nil)
	td.notifier.On("EmitToUser", "u1", notify.TemplateChanged{TemplateID: "t1", Name: "n", Action: notify.TemplateDeleted}).Return()

	resp := test.Serve(NewRouter(td.data), newRequest("DELETE", "/templates/t1", "", "u1"))

	assert.Equal(t, 204, resp.Code)
	td.templates.AssertExpectations(t)
	td.notifier.AssertExpectations(t)
}

func TestTemplates_DeleteFail(t *testing.T) {
	td := initTest(t)
	td.templates.On("Get", "t1").Return(userTemplate("t1", "u1"), nil)
	td.templates.On("Delete", "t1").Return(errors.New("olia"))

	resp := test.Serve(NewRouter(td.data), newRequest("DELETE", "/templates/t1", "", "u1"))

	assert.Equal(t, 500, resp.Code)
	td.notifier.AssertNotCalled(t, "EmitToUser", mock.Anything, mock.Anything)
}
