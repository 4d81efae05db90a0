package server

import (
	"context"
	"fmt"

	"github.com/NeuralTrust/AdmissionGate/pkg/config"
	"github.com/NeuralTrust/AdmissionGate/pkg/server/router"
	"github.com/sirupsen/logrus"
)

type (
	ProxyServerDI struct {
		Config  *config.Config
		Logger  *logrus.Logger
		Routers []router.ServerRouter
	}
	ProxyServer struct {
		*BaseServer
	}
)

func NewProxyServer(di ProxyServerDI) (*ProxyServer, error) {
	base := NewBaseServer(di.Config, di.Logger)
	if err := base.WithRouters(di.Routers...); err != nil {
		return nil, err
	}
	return &ProxyServer{BaseServer: base}, nil
}

func (s *ProxyServer) Run() error {
	addr := fmt.Sprintf(":%d", s.Config.Server.Port)
	s.Logger.WithField("addr", addr).Info("starting proxy server")
	return s.Router.Listen(addr)
}

func (s *ProxyServer) Shutdown(ctx context.Context) error {
	return s.shutdown(ctx)
}
