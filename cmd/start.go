package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/open-feature/flagtmpl/pkg/service"
)

var (
	serviceProvider string
	httpServicePort int32
)

func findService(name string) (service.IService, error) {
	registeredServices := map[string]service.IService{
		"http": &service.HTTPService{
			HTTPServiceConfiguration: &service.HTTPServiceConfiguration{
				Port: httpServicePort,
			},
		},
	}
	v, ok := registeredServices[name]
	if !ok {
		return nil, fmt.Errorf("unknown service-provider %q", name)
	}
	log.Debugf("Using %s service-provider", name)
	return v, nil
}

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Serve flag evaluations over HTTP",
	Long:  `Serve GET /flags/{kind}/{flagKey}?default=<json> backed by the configured provider.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		serviceImpl, err := findService(serviceProvider)
		if err != nil {
			return err
		}

		rt := newRuntime()
		defer rt.Shutdown()
		client, err := rt.Client()
		if err != nil {
			return err
		}

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		if err := serviceImpl.Serve(ctx, client); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		log.Info("shutting down")
		return nil
	},
}

func init() {
	startCmd.Flags().Int32VarP(&httpServicePort, "port", "p", 8080, "Port to listen on")
	startCmd.Flags().StringVarP(&serviceProvider, "service-provider", "s", "http", "Set a serve provider e.g. http")
	rootCmd.AddCommand(startCmd)
}
