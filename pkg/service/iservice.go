package service

import (
	"context"

	"github.com/open-feature/flagtmpl/pkg/provider"
)

type IService interface {
	Serve(ctx context.Context, client *provider.ValidatingClient) error
}
