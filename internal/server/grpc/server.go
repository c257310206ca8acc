// Package grpc exposes the entry gateway and account service over gRPC.
package grpc

import (
	"context"
	"net"
	"time"

	"github.com/dmitrijs2005/diary/internal/api"
	"github.com/dmitrijs2005/diary/internal/logging"
	"github.com/dmitrijs2005/diary/internal/models"
	smodels "github.com/dmitrijs2005/diary/internal/server/models"
	"google.golang.org/grpc"
)

// Gateway is the entry store as seen by the transport.
type Gateway interface {
	Insert(ctx context.Context, e models.Entry) (models.Entry, error)
	Update(ctx context.Context, e models.Entry) (models.Entry, error)
	Delete(ctx context.Context, id string) (models.Entry, error)
	DeleteAll(ctx context.Context) ([]models.Entry, error)
	ListAll(ctx context.Context, loc *time.Location) <-chan models.Result[models.Diaries]
	ListFiltered(ctx context.Context, center time.Time, loc *time.Location) <-chan models.Result[models.Diaries]
	GetByID(ctx context.Context, id string) <-chan models.Result[models.Entry]
}

// Accounts registers users and issues access tokens.
type Accounts interface {
	Register(ctx context.Context, username, password string) (*smodels.User, error)
	Login(ctx context.Context, username, password string) (string, error)
}

type GRPCServer struct {
	api.UnimplementedDiaryServer
	address   string
	accounts  Accounts
	gateway   Gateway
	logger    logging.Logger
	jwtSecret []byte
}

func NewGRPCServer(a string, l logging.Logger, accounts Accounts, gw Gateway, secretKey string) *GRPCServer {
	return &GRPCServer{
		address:   a,
		logger:    l.With("module", "grpc_server"),
		accounts:  accounts,
		gateway:   gw,
		jwtSecret: []byte(secretKey),
	}
}

// NewServer builds a grpc.Server with the auth interceptors and the diary
// service registered.
func (s *GRPCServer) NewServer(opts ...grpc.ServerOption) *grpc.Server {
	opts = append(opts,
		grpc.ChainUnaryInterceptor(s.accessTokenInterceptor),
		grpc.ChainStreamInterceptor(s.accessTokenStreamInterceptor),
	)
	srv := grpc.NewServer(opts...)
	api.RegisterDiaryServer(srv, s)
	return srv
}

func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := s.NewServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", s.address)

	// starts accepting incoming connections
	if err := srv.Serve(listen); err != nil {
		return err
	}

	return nil
}
