package client

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/dmitrijs2005/diary/internal/api"
	"github.com/dmitrijs2005/diary/internal/common"
	"github.com/dmitrijs2005/diary/internal/models"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// Tokens stores the access token between runs.
type Tokens interface {
	Token(ctx context.Context) (string, error)
	Login(ctx context.Context, token string) error
}

type GRPCClient struct {
	endpointURL string
	conn        *grpc.ClientConn
	client      api.DiaryClient
	tokens      Tokens
	zone        string
}

// NewDiaryClient connects to endpointURL. Streams group entries by day in
// loc.
func NewDiaryClient(endpointURL string, tokens Tokens, loc *time.Location, opts ...grpc.DialOption) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL, tokens: tokens, zone: zoneName(loc)}
	if err := c.InitGRPCClient(opts...); err != nil {
		return nil, err
	}
	return c, nil
}

// zoneName is the IANA name sent to the server. The process-local zone has
// no portable name and is sent as UTC.
func zoneName(loc *time.Location) string {
	if loc == nil || loc == time.Local {
		return ""
	}
	return loc.String()
}

func (s *GRPCClient) InitGRPCClient(opts ...grpc.DialOption) error {
	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(s.accessTokenInterceptor),
		grpc.WithStreamInterceptor(s.accessTokenStreamInterceptor),
	}, opts...)

	conn, err := grpc.NewClient(s.endpointURL, opts...)
	if err != nil {
		return err
	}
	s.conn = conn
	s.client = api.NewDiaryClient(conn)
	return nil
}

func (s *GRPCClient) Close() error {
	return s.conn.Close()
}

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Delete(common.AccessTokenHeaderName)
	md.Set(common.AccessTokenHeaderName, token)

	return metadata.NewOutgoingContext(ctx, md)
}

func (s *GRPCClient) authorize(ctx context.Context, method string) context.Context {
	if api.PublicMethods[method] || s.tokens == nil {
		return ctx
	}
	token, err := s.tokens.Token(ctx)
	if err != nil || token == "" {
		return ctx
	}
	return withAccessToken(ctx, token)
}

func (s *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply interface{},
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	return invoker(s.authorize(ctx, method), method, req, reply, cc, opts...)
}

func (s *GRPCClient) accessTokenStreamInterceptor(
	ctx context.Context,
	desc *grpc.StreamDesc,
	cc *grpc.ClientConn,
	method string,
	streamer grpc.Streamer,
	opts ...grpc.CallOption,
) (grpc.ClientStream, error) {
	return streamer(s.authorize(ctx, method), desc, cc, method, opts...)
}

func (s *GRPCClient) mapError(err error) error {
	if st, ok := status.FromError(err); ok && st.Code() == codes.Unavailable {
		return ErrUnavailable
	}
	return api.FromStatus(err)
}

// sessionError reports a rejected token on entry calls as a missing
// session.
func (s *GRPCClient) sessionError(err error) error {
	err = s.mapError(err)
	if errors.Is(err, common.ErrUnauthorized) {
		return common.ErrNotAuthenticated
	}
	return err
}

func (s *GRPCClient) Register(ctx context.Context, userName, password string) error {
	_, err := s.client.Register(ctx, &api.RegisterRequest{Username: userName, Password: password})
	if err != nil {
		return s.mapError(err)
	}
	return nil
}

// Login signs in and stores the access token.
func (s *GRPCClient) Login(ctx context.Context, userName, password string) error {
	resp, err := s.client.Login(ctx, &api.LoginRequest{Username: userName, Password: password})
	if err != nil {
		return s.mapError(err)
	}
	return s.tokens.Login(ctx, resp.AccessToken)
}

func (s *GRPCClient) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := s.client.Ping(ctx, &api.PingRequest{}); err != nil {
		return s.mapError(err)
	}
	return nil
}

func (s *GRPCClient) Insert(ctx context.Context, entry models.Entry) (models.Entry, error) {
	resp, err := s.client.Insert(ctx, &api.EntryRequest{Entry: entry})
	if err != nil {
		return models.Entry{}, s.sessionError(err)
	}
	return resp.Entry, nil
}

func (s *GRPCClient) Update(ctx context.Context, entry models.Entry) (models.Entry, error) {
	resp, err := s.client.Update(ctx, &api.EntryRequest{Entry: entry})
	if err != nil {
		return models.Entry{}, s.sessionError(err)
	}
	return resp.Entry, nil
}

func (s *GRPCClient) Delete(ctx context.Context, id string) (models.Entry, error) {
	resp, err := s.client.Delete(ctx, &api.DeleteRequest{ID: id})
	if err != nil {
		return models.Entry{}, s.sessionError(err)
	}
	return resp.Entry, nil
}

func (s *GRPCClient) DeleteAll(ctx context.Context) ([]models.Entry, error) {
	resp, err := s.client.DeleteAll(ctx, &api.DeleteAllRequest{})
	if err != nil {
		return nil, s.sessionError(err)
	}
	return resp.Entries, nil
}

// ListAll streams the caller's entries grouped by day.
func (s *GRPCClient) ListAll(ctx context.Context) <-chan models.Result[models.Diaries] {
	return relay(ctx, s, func(ctx context.Context) (grpc.ServerStreamingClient[api.DiariesEvent], error) {
		return s.client.WatchAll(ctx, &api.WatchAllRequest{Zone: s.zone})
	}, diaries)
}

// ListFiltered streams the entries strictly within a day of center.
func (s *GRPCClient) ListFiltered(ctx context.Context, center time.Time) <-chan models.Result[models.Diaries] {
	return relay(ctx, s, func(ctx context.Context) (grpc.ServerStreamingClient[api.DiariesEvent], error) {
		return s.client.WatchFiltered(ctx, &api.WatchFilteredRequest{Center: center, Zone: s.zone})
	}, diaries)
}

// GetByID streams one entry. A missing entry yields ErrNotFound and the
// stream keeps watching.
func (s *GRPCClient) GetByID(ctx context.Context, id string) <-chan models.Result[models.Entry] {
	return relay(ctx, s, func(ctx context.Context) (grpc.ServerStreamingClient[api.EntryEvent], error) {
		return s.client.WatchEntry(ctx, &api.WatchEntryRequest{ID: id})
	}, entry)
}

func diaries(ev *api.DiariesEvent) models.Result[models.Diaries] {
	if ev.Error != nil {
		return models.Failure[models.Diaries](ev.Error.Err())
	}
	return models.Success(ev.Diaries)
}

func entry(ev *api.EntryEvent) models.Result[models.Entry] {
	switch {
	case ev.Error != nil:
		return models.Failure[models.Entry](ev.Error.Err())
	case ev.Entry == nil:
		return models.Failure[models.Entry](common.ErrNotFound)
	default:
		return models.Success(*ev.Entry)
	}
}

// relay emits Loading, then one result per stream event. A broken stream
// ends with a final Failure; the channel closes when the stream or ctx
// ends.
func relay[E, T any](
	ctx context.Context,
	s *GRPCClient,
	open func(ctx context.Context) (grpc.ServerStreamingClient[E], error),
	conv func(*E) models.Result[T],
) <-chan models.Result[T] {
	out := make(chan models.Result[T], 1)
	out <- models.Loading[T]()

	go func() {
		defer close(out)

		send := func(r models.Result[T]) bool {
			select {
			case out <- r:
				return true
			case <-ctx.Done():
				return false
			}
		}

		stream, err := open(ctx)
		if err != nil {
			send(models.Failure[T](s.sessionError(err)))
			return
		}

		for {
			ev, err := stream.Recv()
			if err != nil {
				if errors.Is(err, io.EOF) || ctx.Err() != nil {
					return
				}
				send(models.Failure[T](s.sessionError(err)))
				return
			}
			if !send(conv(ev)) {
				return
			}
		}
	}()

	return out
}
