package gateway

import (
	"context"
	"io"
	"os"

	"bitbucket.org/airenas/maiebridge/internal/pkg/cmdapp"
	"bitbucket.org/airenas/maiebridge/internal/pkg/template"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

type importFile struct {
	Templates []importTemplate `yaml:"templates"`
}

type importTemplate struct {
	ID      string `yaml:"id"`
	Name    string `yaml:"name"`
	Content string `yaml:"content"`
	Owner   string `yaml:"owner"`
}

//ImportFile loads templates from yaml file
func ImportFile(ctx context.Context, store TemplateStore, file string) (int, error) {
	f, err := os.Open(file)
	if err != nil {
		return 0, errors.Wrapf(err, "Can't open %s", file)
	}
	defer f.Close()
	return Import(ctx, store, f)
}

//Import creates or updates templates from yaml.
//Templates without owner become system templates
func Import(ctx context.Context, store TemplateStore, r io.Reader) (int, error) {
	var data importFile
	if err := yaml.NewDecoder(r).Decode(&data); err != nil {
		return 0, errors.Wrap(err, "Can't decode yaml")
	}
	for i, t := range data.Templates {
		if t.ID == "" || t.Name == "" || t.Content == "" {
			return i, errors.Errorf("Template %d: id, name and content are required", i+1)
		}
	}
	for i, t := range data.Templates {
		if err := importOne(ctx, store, &t); err != nil {
			return i, err
		}
	}
	return len(data.Templates), nil
}

func importOne(ctx context.Context, store TemplateStore, t *importTemplate) error {
	_, err := store.Get(ctx, t.ID)
	if err == nil {
		cmdapp.Log.Infof("Updating template %s", t.ID)
		_, err = store.Update(ctx, t.ID, t.Name, t.Content)
		return err
	}
	if !errors.Is(err, template.ErrNotFound) {
		return err
	}
	cmdapp.Log.Infof("Creating template %s", t.ID)
	res := &template.Template{ID: t.ID, Name: t.Name, Content: t.Content, OwnerType: template.OwnerSystem}
	if t.Owner != "" {
		owner := t.Owner
		res.OwnerType, res.OwnerID = template.OwnerUser, &owner
	}
	_, err = store.Create(ctx, res)
	return err
}
