package api

import (
	"time"

	"github.com/dmitrijs2005/diary/internal/models"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type RegisterResponse struct {
	UserID string `json:"user_id"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
}

type PingRequest struct{}

type PingResponse struct {
	Status string `json:"status"`
}

type EntryRequest struct {
	Entry models.Entry `json:"entry"`
}

type EntryResponse struct {
	Entry models.Entry `json:"entry"`
}

type DeleteRequest struct {
	ID string `json:"id"`
}

type DeleteAllRequest struct{}

type DeleteAllResponse struct {
	Entries []models.Entry `json:"entries"`
}

// WatchAllRequest asks for the caller's entries grouped by calendar date in
// Zone, an IANA zone name. Empty means UTC.
type WatchAllRequest struct {
	Zone string `json:"zone,omitempty"`
}

type WatchFilteredRequest struct {
	Center time.Time `json:"center"`
	Zone   string    `json:"zone,omitempty"`
}

type WatchEntryRequest struct {
	ID string `json:"id"`
}

// StreamError is a failure emitted inside a live stream. The stream stays
// open after it unless the server closes it.
type StreamError struct {
	Code    codes.Code `json:"code"`
	Message string     `json:"message"`
}

func NewStreamError(err error) *StreamError {
	s := status.Convert(ToStatus(err))
	return &StreamError{Code: s.Code(), Message: s.Message()}
}

// Err converts the event back into a sentinel-aware error.
func (e *StreamError) Err() error {
	return FromStatus(status.Error(e.Code, e.Message))
}

type DiariesEvent struct {
	Diaries models.Diaries `json:"diaries,omitempty"`
	Error   *StreamError   `json:"error,omitempty"`
}

type EntryEvent struct {
	Entry *models.Entry `json:"entry,omitempty"`
	Error *StreamError  `json:"error,omitempty"`
}
