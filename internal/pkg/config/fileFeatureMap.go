package config

import (
	"path/filepath"
	"strings"

	"bitbucket.org/airenas/maiebridge/internal/pkg/cmdapp"
	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

//ErrFeatureNotFound is returned for unknown feature set selector
var ErrFeatureNotFound = errors.New("Feature set not found")

//DefaultFeatures are used for the "default" selector if no map file is provided
var DefaultFeatures = map[string]string{
	"default":    "clean_transcript,summary",
	"summary":    "summary",
	"transcript": "raw_transcript,clean_transcript",
}

// FileFeatureMap maps feature set selectors to MAIE features value.
// The file is reloaded on change
type FileFeatureMap struct {
	Path string
	v    *viper.Viper
}

//NewFileFeatureMap creates FileFeatureMap instance. Built-in defaults are used when path is empty
func NewFileFeatureMap(path string) (*FileFeatureMap, error) {
	if path == "" {
		cmdapp.Log.Info("No features.path, using default feature sets")
		return newDefaultFeatureMap(), nil
	}
	return newFileFeatureMap(filepath.Join(path, "features.map.yml"))
}

func newDefaultFeatureMap() *FileFeatureMap {
	res := &FileFeatureMap{v: viper.New()}
	for k, v := range DefaultFeatures {
		res.v.SetDefault(k, v)
	}
	return res
}

func newFileFeatureMap(file string) (*FileFeatureMap, error) {
	cmdapp.Log.Infof("Init feature map from: %s", file)
	res := newDefaultFeatureMap()
	res.Path = file
	res.v.SetConfigFile(file)
	res.v.SetConfigType("yml")
	if err := res.v.ReadInConfig(); err != nil {
		return nil, errors.Wrap(err, "Can't read feature map file: "+file)
	}

	res.v.OnConfigChange(func(e fsnotify.Event) {
		cmdapp.Log.Infof("Feature map reloaded from: %s (%s)", e.Name, e.Op.String())
	})
	res.v.WatchConfig()
	return res, nil
}

// Get returns MAIE features value for the selector, "" selects default
func (fm *FileFeatureMap) Get(name string) (string, error) {
	if name == "" {
		name = "default"
	}
	res := strings.TrimSpace(fm.v.GetString(name))
	if res == "" {
		return "", ErrFeatureNotFound
	}
	return res, nil
}
