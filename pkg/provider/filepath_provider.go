package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/diegoholiveira/jsonlogic/v3"
	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"
	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	"github.com/open-feature/flagtmpl/pkg/model"
	"github.com/open-feature/flagtmpl/pkg/store"
	flagsync "github.com/open-feature/flagtmpl/pkg/sync"
)

var (
	_ IProvider   = (*FilePathProvider)(nil)
	_ Snapshotter = (*FilePathProvider)(nil)
)

type FilePathConfiguration struct {
	URI    string
	Target model.Target
}

// FilePathProvider evaluates flags from a local JSON or YAML flag document and reloads it
// whenever the file changes.
type FilePathProvider struct {
	URI    string
	Target model.Target

	path    string
	store   *store.State
	mux     *flagsync.Multiplexer
	watcher *fsnotify.Watcher
	wg      sync.WaitGroup
	once    sync.Once
}

func NewFilePathProvider(cfg FilePathConfiguration) (*FilePathProvider, error) {
	if cfg.URI == "" {
		return nil, &model.ConfigurationError{
			Key:    "uri",
			Reason: "the file provider requires the path of a flag document",
		}
	}
	path, err := filepath.Abs(cfg.URI)
	if err != nil {
		return nil, &model.ConfigurationError{Key: "uri", Value: cfg.URI, Err: err}
	}

	fp := &FilePathProvider{
		URI:    cfg.URI,
		Target: cfg.Target,
		path:   filepath.Clean(path),
		store:  store.NewFlags(),
	}

	flags, err := fp.parse()
	if err != nil {
		return nil, &model.ConfigurationError{Key: "uri", Value: cfg.URI, Reason: "invalid flag document", Err: err}
	}
	if err := fp.store.Replace(flags); err != nil {
		return nil, err
	}
	if fp.mux, err = flagsync.NewMux(fp.store); err != nil {
		return nil, err
	}

	fp.watcher, err = fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	// watch the directory so that editors replacing the file are still seen
	if err := fp.watcher.Add(filepath.Dir(fp.path)); err != nil {
		_ = fp.watcher.Close()
		return nil, &model.ConfigurationError{Key: "uri", Value: cfg.URI, Err: err}
	}

	fp.wg.Add(1)
	go fp.watch()

	log.WithField("uri", cfg.URI).Debugf("loaded %d flags", len(flags.Flags))
	return fp, nil
}

// Mux publishes a payload after every successful reload.
func (fp *FilePathProvider) Mux() *flagsync.Multiplexer {
	return fp.mux
}

// Snapshot returns the flag document as of the last successful load, serialized as JSON.
func (fp *FilePathProvider) Snapshot() string {
	return fp.mux.GetAllFlags()
}

func (fp *FilePathProvider) Shutdown() error {
	var err error
	fp.once.Do(func() {
		err = fp.watcher.Close()
		fp.wg.Wait()
	})
	return err
}

func (fp *FilePathProvider) watch() {
	defer fp.wg.Done()

	for {
		select {
		case event, ok := <-fp.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != fp.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				fp.reload()
			}
		case err, ok := <-fp.watcher.Errors:
			if !ok {
				return
			}
			log.WithError(err).Error("flag file watcher error")
		}
	}
}

func (fp *FilePathProvider) reload() {
	flags, err := fp.parse()
	if err != nil {
		// editors may write the file in several steps, keep the last good document
		log.WithError(err).WithField("uri", fp.URI).Warn("ignoring invalid flag document")
		return
	}
	if err := fp.store.Replace(flags); err != nil {
		log.WithError(err).Error("unable to update flag store")
		return
	}
	if err := fp.mux.Publish(); err != nil {
		log.WithError(err).Error("unable to publish flag update")
		return
	}
	log.WithField("uri", fp.URI).Info("Flag values updated.")
}

func (fp *FilePathProvider) parse() (model.Flags, error) {
	var flags = model.Flags{}
	rawFile, err := os.ReadFile(fp.path)
	if err != nil {
		return flags, err
	}

	switch strings.ToLower(filepath.Ext(fp.path)) {
	case ".yaml", ".yml":
		if rawFile, err = yamlToJSON(rawFile); err != nil {
			return flags, err
		}
	}

	schemaLoader := gojsonschema.NewStringLoader(flagSchema)
	flagFile := gojsonschema.NewBytesLoader(rawFile)
	result, err := gojsonschema.Validate(schemaLoader, flagFile)
	if err != nil {
		return flags, err
	} else if !result.Valid() {
		var problems []string
		for _, e := range result.Errors() {
			problems = append(problems, e.String())
		}
		return flags, fmt.Errorf("invalid flag document: %s", strings.Join(problems, "; "))
	}

	if err := json.Unmarshal(rawFile, &flags); err != nil {
		return flags, err
	}
	for key, flag := range flags.Flags {
		if _, ok := flag.Variants[flag.DefaultVariant]; !ok {
			return flags, fmt.Errorf("flag %s: default variant %q is not a variant", key, flag.DefaultVariant)
		}
	}
	return flags, nil
}

func yamlToJSON(raw []byte) ([]byte, error) {
	var doc interface{}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, errors.New("empty flag document")
	}
	return json.Marshal(doc)
}

func (fp *FilePathProvider) BoolVariation(flagKey string, defaultValue interface{}) interface{} {
	return fp.resolve(flagKey, defaultValue)
}

func (fp *FilePathProvider) StringVariation(flagKey string, defaultValue interface{}) interface{} {
	return fp.resolve(flagKey, defaultValue)
}

func (fp *FilePathProvider) NumberVariation(flagKey string, defaultValue interface{}) interface{} {
	return fp.resolve(flagKey, defaultValue)
}

func (fp *FilePathProvider) JSONVariation(flagKey string, defaultValue interface{}) interface{} {
	return fp.resolve(flagKey, defaultValue)
}

// resolve returns the raw variant value; checking it against the requested kind is left to
// the ValidatingClient.
func (fp *FilePathProvider) resolve(flagKey string, defaultValue interface{}) interface{} {
	logger := log.WithField("flag", flagKey)

	flag, ok := fp.store.Get(context.Background(), flagKey)
	if !ok {
		logger.Debug("flag not found, using default")
		return defaultValue
	}
	if flag.State == model.DisabledState {
		logger.Debug("flag disabled, using default")
		return defaultValue
	}

	variant := flag.DefaultVariant
	if targeted, ok := fp.evaluateTargeting(flag); ok {
		variant = targeted
	}

	value, ok := flag.Variants[variant]
	if !ok {
		logger.WithField("variant", variant).Warn("variant not found, using default")
		return defaultValue
	}
	return value
}

func (fp *FilePathProvider) evaluateTargeting(flag model.Flag) (string, bool) {
	rule := bytes.TrimSpace(flag.Targeting)
	if len(rule) == 0 || bytes.Equal(rule, []byte("{}")) {
		return "", false
	}

	data, err := json.Marshal(map[string]interface{}{
		"targetingKey": fp.Target.Identifier,
		"name":         fp.Target.Name,
		"target":       fp.Target.Target,
	})
	if err != nil {
		return "", false
	}

	var result bytes.Buffer
	if err := jsonlogic.Apply(bytes.NewReader(rule), bytes.NewReader(data), &result); err != nil {
		log.WithError(err).WithField("flag", flag.Key).Warn("targeting rule failed, using default variant")
		return "", false
	}

	var variant interface{}
	if err := json.Unmarshal(result.Bytes(), &variant); err != nil {
		return "", false
	}
	name, ok := variant.(string)
	if !ok {
		return "", false
	}
	if _, known := flag.Variants[name]; !known {
		return "", false
	}
	return name, true
}
