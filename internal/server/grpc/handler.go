package grpc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/diary/internal/api"
	"github.com/dmitrijs2005/diary/internal/common"
	"github.com/dmitrijs2005/diary/internal/models"
	"google.golang.org/grpc"
)

func (s *GRPCServer) Register(ctx context.Context, req *api.RegisterRequest) (*api.RegisterResponse, error) {

	s.logger.Info(ctx, "Registration request", "username", req.Username)

	user, err := s.accounts.Register(ctx, req.Username, req.Password)
	if err != nil {
		if !errors.Is(err, common.ErrAlreadyExists) && !errors.Is(err, common.ErrInvalidArgument) {
			s.logger.Error(ctx, "registration failed", "error", err)
		}
		return nil, api.ToStatus(err)
	}

	s.logger.Info(ctx, "Registered", "username", req.Username, "id", user.ID)
	return &api.RegisterResponse{UserID: user.ID}, nil
}

func (s *GRPCServer) Login(ctx context.Context, req *api.LoginRequest) (*api.LoginResponse, error) {

	token, err := s.accounts.Login(ctx, req.Username, req.Password)
	if err != nil {
		return nil, api.ToStatus(err)
	}

	return &api.LoginResponse{AccessToken: token}, nil
}

func (s *GRPCServer) Ping(ctx context.Context, req *api.PingRequest) (*api.PingResponse, error) {
	return &api.PingResponse{Status: "OK"}, nil
}

func (s *GRPCServer) Insert(ctx context.Context, req *api.EntryRequest) (*api.EntryResponse, error) {
	e, err := s.gateway.Insert(ctx, req.Entry)
	if err != nil {
		return nil, s.fail(ctx, "insert", err)
	}
	return &api.EntryResponse{Entry: e}, nil
}

func (s *GRPCServer) Update(ctx context.Context, req *api.EntryRequest) (*api.EntryResponse, error) {
	e, err := s.gateway.Update(ctx, req.Entry)
	if err != nil {
		return nil, s.fail(ctx, "update", err)
	}
	return &api.EntryResponse{Entry: e}, nil
}

func (s *GRPCServer) Delete(ctx context.Context, req *api.DeleteRequest) (*api.EntryResponse, error) {
	e, err := s.gateway.Delete(ctx, req.ID)
	if err != nil {
		return nil, s.fail(ctx, "delete", err)
	}
	return &api.EntryResponse{Entry: e}, nil
}

func (s *GRPCServer) DeleteAll(ctx context.Context, req *api.DeleteAllRequest) (*api.DeleteAllResponse, error) {
	list, err := s.gateway.DeleteAll(ctx)
	if err != nil {
		return nil, s.fail(ctx, "delete_all", err)
	}
	return &api.DeleteAllResponse{Entries: list}, nil
}

func (s *GRPCServer) WatchAll(req *api.WatchAllRequest, stream grpc.ServerStreamingServer[api.DiariesEvent]) error {
	loc, err := location(req.Zone)
	if err != nil {
		return api.ToStatus(err)
	}
	ctx := stream.Context()
	return forward(ctx, s.gateway.ListAll(ctx, loc), stream, diariesEvent)
}

func (s *GRPCServer) WatchFiltered(req *api.WatchFilteredRequest, stream grpc.ServerStreamingServer[api.DiariesEvent]) error {
	loc, err := location(req.Zone)
	if err != nil {
		return api.ToStatus(err)
	}
	ctx := stream.Context()
	return forward(ctx, s.gateway.ListFiltered(ctx, req.Center, loc), stream, diariesEvent)
}

func (s *GRPCServer) WatchEntry(req *api.WatchEntryRequest, stream grpc.ServerStreamingServer[api.EntryEvent]) error {
	ctx := stream.Context()
	return forward(ctx, s.gateway.GetByID(ctx, req.ID), stream, entryEvent)
}

func (s *GRPCServer) fail(ctx context.Context, op string, err error) error {
	if !errors.Is(err, common.ErrNotFound) && !errors.Is(err, common.ErrNotAuthenticated) {
		s.logger.Error(ctx, "operation failed", "op", op, "error", err)
	}
	return api.ToStatus(err)
}

func location(zone string) (*time.Location, error) {
	if zone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return nil, fmt.Errorf("%w: unknown zone %q", common.ErrInvalidArgument, zone)
	}
	return loc, nil
}

func diariesEvent(r models.Result[models.Diaries]) *api.DiariesEvent {
	if r.IsError() {
		return &api.DiariesEvent{Error: api.NewStreamError(r.Err)}
	}
	return &api.DiariesEvent{Diaries: r.Data}
}

func entryEvent(r models.Result[models.Entry]) *api.EntryEvent {
	if r.IsError() {
		return &api.EntryEvent{Error: api.NewStreamError(r.Err)}
	}
	e := r.Data
	return &api.EntryEvent{Entry: &e}
}

// forward relays gateway results to the client until either side ends.
// Authentication failures end the RPC with a status instead of an event.
func forward[T, E any](ctx context.Context, results <-chan models.Result[T], stream grpc.ServerStreamingServer[E], conv func(models.Result[T]) *E) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case r, ok := <-results:
			if !ok {
				return nil
			}
			if r.IsError() && errors.Is(r.Err, common.ErrNotAuthenticated) {
				return api.ToStatus(r.Err)
			}
			if err := stream.Send(conv(r)); err != nil {
				return err
			}
		}
	}
}
