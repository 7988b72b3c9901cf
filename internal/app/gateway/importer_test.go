package gateway

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"bitbucket.org/airenas/maiebridge/internal/pkg/template"
	"bitbucket.org/airenas/maiebridge/internal/pkg/test/mocks"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const importYaml = `
templates:
  - id: meeting
    name: Meeting notes
    content: Summarize the meeting
  - id: mine
    name: Mine
    content: Short
    owner: u1
`

func TestImport(t *testing.T) {
	store := &mocks.Templates{}
	store.On("Get", "meeting").Return(systemTemplate("meeting"), nil)
	store.On("Update", "meeting", "Meeting notes", "Summarize the meeting").Return(systemTemplate("meeting"), nil)
	store.On("Get", "mine").Return(nil, template.ErrNotFound)
	store.On("Create", mock.Anything).Return(userTemplate("mine", "u1"), nil)

	n, err := Import(context.Background(), store, strings.NewReader(importYaml))

	require.Nil(t, err)
	assert.Equal(t, 2, n)
	created := store.Calls[3].Arguments[0].(*template.Template)
	assert.Equal(t, "mine", created.ID)
	assert.Equal(t, template.OwnerUser, created.OwnerType)
	assert.Equal(t, "u1", *created.OwnerID)
	store.AssertExpectations(t)
}

func TestImport_System(t *testing.T) {
	store := &mocks.Templates{}
	store.On("Get", "s").Return(nil, template.ErrNotFound)
	store.On("Create", mock.Anything).Return(systemTemplate("s"), nil)

	_, err := Import(context.Background(), store, strings.NewReader("templates:\n  - {id: s, name: n, content: c}\n"))

	require.Nil(t, err)
	created := store.Calls[1].Arguments[0].(*template.Template)
	assert.Equal(t, template.OwnerSystem, created.OwnerType)
	assert.Nil(t, created.OwnerID)
}

func TestImport_Invalid(t *testing.T) {
	store := &mocks.Templates{}

	_, err := Import(context.Background(), store, strings.NewReader("templates:\n  - {id: s, name: n}\n"))
	assert.NotNil(t, err)
	_, err = Import(context.Background(), store, strings.NewReader("templates: ["))
	assert.NotNil(t, err)
	store.AssertNotCalled(t, "Get", mock.Anything)
}

func TestImport_Fail(t *testing.T) {
	store := &mocks.Templates{}
	store.On("Get", "s").Return(nil, errors.New("olia"))

	n, err := Import(context.Background(), store, strings.NewReader("templates:\n  - {id: s, name: n, content: c}\n"))

	assert.NotNil(t, err)
	assert.Equal(t, 0, n)
}

func TestImportFile(t *testing.T) {
	f := filepath.Join(t.TempDir(), "t.yml")
	require.Nil(t, os.WriteFile(f, []byte(importYaml), 0644))
	store := &mocks.Templates{}
	store.On("Get", mock.Anything).Return(nil, template.ErrNotFound)
	store.On("Create", mock.Anything).Return(systemTemplate("x"), nil)

	n, err := ImportFile(context.Background(), store, f)

	assert.Nil(t, err)
	assert.Equal(t, 2, n)
}

func TestImportFile_Missing(t *testing.T) {
	_, err := ImportFile(context.Background(), &mocks.Templates{}, filepath.Join(t.TempDir(), "none.yml"))
	assert.NotNil(t, err)
}
