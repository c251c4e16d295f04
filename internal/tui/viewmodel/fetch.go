package viewmodel

import (
	"context"
	"sync/atomic"
)

var owners atomic.Int64

// FetchToken identifies one request issued by one mounted component.
type FetchToken struct {
	Owner int64
	Seq   int64
}

// Fetcher issues tokens for a single component and cancels superseded requests.
// A response is applied only when its token is still Current.
type Fetcher struct {
	cancel context.CancelFunc
	token  FetchToken
}

// NewFetcher returns a fetcher with a fresh owner id.
func NewFetcher() *Fetcher {
	return &Fetcher{token: FetchToken{Owner: owners.Add(1)}}
}

// Next cancels the previous request and returns the context and token for a new one.
func (f *Fetcher) Next(parent context.Context) (context.Context, FetchToken) {
	if f.cancel != nil {
		f.cancel()
	}
	ctx, cancel := context.WithCancel(parent)
	f.cancel = cancel
	f.token.Seq++
	return ctx, f.token
}

// Current returns the token of the latest request.
func (f *Fetcher) Current() FetchToken {
	return f.token
}

// Accept reports whether a response carrying token should be applied.
func (f *Fetcher) Accept(token FetchToken) bool {
	return token == f.token && token.Seq > 0
}

// Stop cancels any in-flight request and invalidates its token.
func (f *Fetcher) Stop() {
	if f.cancel != nil {
		f.cancel()
		f.cancel = nil
	}
	f.token.Seq++
}
