package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/robfig/cron"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/open-feature/flagtmpl/pkg/inject"
	"github.com/open-feature/flagtmpl/pkg/provider"
	flagsync "github.com/open-feature/flagtmpl/pkg/sync"
)

var (
	templatePath string
	outputPath   string
	dataPath     string
	schedule     string
	watch        bool
)

// renderTemplate renders the template at path with the flag functions bound to client.
func renderTemplate(client *provider.ValidatingClient, path string, data interface{}, w io.Writer) error {
	text, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	tmpl, err := inject.New(filepath.Base(path), client).Parse(string(text))
	if err != nil {
		return fmt.Errorf("unable to parse template %s: %w", path, err)
	}

	// render fully before writing so a failed flag evaluation never leaves partial output
	var out bytes.Buffer
	if err := tmpl.Execute(&out, data); err != nil {
		return err
	}
	_, err = w.Write(out.Bytes())
	return err
}

// loadData reads template data from a YAML or JSON file.
func loadData(path string) (map[string]interface{}, error) {
	data := map[string]interface{}{}
	if path == "" {
		return data, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("unable to parse data file %s: %w", path, err)
	}
	return data, nil
}

func writeOutput(path string, render func(io.Writer) error) error {
	if path == "" {
		return render(os.Stdout)
	}
	var out bytes.Buffer
	if err := render(&out); err != nil {
		return err
	}
	return os.WriteFile(path, out.Bytes(), 0o644)
}

// renderCmd represents the render command
var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render a template with feature flag functions",
	Long: `Render a Go text/template with feature_flag, feature_flag_str, feature_flag_num and
feature_flag_json available. With --schedule or --watch the template is rendered again
until the process is interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := loadData(dataPath)
		if err != nil {
			return err
		}

		rt := newRuntime()
		defer rt.Shutdown()
		client, err := rt.Client()
		if err != nil {
			return err
		}

		renderOnce := func() error {
			return writeOutput(outputPath, func(w io.Writer) error {
				return renderTemplate(client, templatePath, data, w)
			})
		}
		if err := renderOnce(); err != nil {
			return err
		}
		if schedule == "" && !watch {
			return nil
		}

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		if schedule != "" {
			c := cron.New()
			err := c.AddFunc(schedule, func() {
				if err := renderOnce(); err != nil {
					log.WithError(err).Error("scheduled render failed")
				}
			})
			if err != nil {
				return fmt.Errorf("invalid schedule %q: %w", schedule, err)
			}
			c.Start()
			defer c.Stop()
		}

		if watch {
			fp, ok := client.Provider().(*provider.FilePathProvider)
			if !ok {
				return errors.New("--watch requires the file provider")
			}
			go fp.Mux().Watch(ctx, "render", func(flagsync.Payload) {
				if err := renderOnce(); err != nil {
					log.WithError(err).Error("render after flag update failed")
				}
			})
		}

		<-ctx.Done()
		return nil
	},
}

func init() {
	renderCmd.Flags().StringVarP(&templatePath, "template", "t", "", "template file to render")
	renderCmd.Flags().StringVarP(&outputPath, "output", "o", "", "output file, stdout when empty")
	renderCmd.Flags().StringVar(&dataPath, "data", "", "YAML or JSON file with template data")
	renderCmd.Flags().StringVar(&schedule, "schedule", "", `cron schedule to render again on, e.g. "@every 30s"`)
	renderCmd.Flags().BoolVar(&watch, "watch", false, "render again when the flag file changes")
	_ = renderCmd.MarkFlagRequired("template")
	rootCmd.AddCommand(renderCmd)
}
