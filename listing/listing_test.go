package listing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eringen/spacetraveling/posts"
	"github.com/eringen/spacetraveling/prismic"
)

func doc(uid string) prismic.Document {
	data, _ := json.Marshal(map[string]string{"title": "Title " + uid, "subtitle": "Sub " + uid, "author": "Author"})
	return prismic.Document{UID: uid, Type: "posts", FirstPublicationDate: "2021-03-25T19:25:28+0000", Data: data}
}

type fakeSource struct {
	mu      sync.Mutex
	first   *prismic.Response
	pages   map[string]*prismic.Response
	errs    map[string]error
	block   chan struct{}
	started chan struct{}
	calls   int
}

func (f *fakeSource) ListByType(ctx context.Context, docType string, pageSize int) (*prismic.Response, error) {
	if f.first == nil {
		return nil, errors.New("unavailable")
	}
	return f.first, nil
}

func (f *fakeSource) FetchPage(ctx context.Context, cursor string) (*prismic.Response, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.block != nil {
		<-f.block
	}
	if err := f.errs[cursor]; err != nil {
		return nil, err
	}
	resp, ok := f.pages[cursor]
	if !ok {
		return nil, fmt.Errorf("unknown cursor %q", cursor)
	}
	return resp, nil
}

func uids(st State) []string {
	out := make([]string, len(st.Posts))
	for i, p := range st.Posts {
		out[i] = p.UID
	}
	return out
}

func TestInitial(t *testing.T) {
	src := &fakeSource{first: &prismic.Response{NextPage: "C1", Results: []prismic.Document{doc("p1")}}}

	st, err := Initial(context.Background(), src, "posts", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"p1"}, uids(st))
	assert.Equal(t, "C1", st.NextPage)
	assert.True(t, st.HasMore())
	assert.Equal(t, "25 Mar 2021", posts.FormatDate(st.Posts[0].FirstPublicationDate))
}

func TestInitial_SourceFailure(t *testing.T) {
	_, err := Initial(context.Background(), &fakeSource{}, "posts", 1)
	require.Error(t, err)
}

func TestLoadMore_PrependsBatchAndExhausts(t *testing.T) {
	src := &fakeSource{pages: map[string]*prismic.Response{
		"C1": {NextPage: "", Results: []prismic.Document{doc("p2"), doc("p3")}},
	}}
	st := State{Posts: []posts.Summary{{UID: "p1"}}, NextPage: "C1"}

	next, err := st.LoadMore(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, []string{"p2", "p3", "p1"}, uids(next))
	assert.False(t, next.HasMore())

	_, err = next.LoadMore(context.Background(), src)
	assert.ErrorIs(t, err, ErrExhausted)
	assert.Equal(t, 1, src.calls, "no fetch once exhausted")

	assert.Equal(t, []string{"p1"}, uids(st), "original state untouched")
}

func TestLoadMore_FailureLeavesStateUnchanged(t *testing.T) {
	src := &fakeSource{errs: map[string]error{"C1": errors.New("network down")}}
	st := State{Posts: []posts.Summary{{UID: "p1"}}, NextPage: "C1"}

	got, err := st.LoadMore(context.Background(), src)
	require.Error(t, err)
	assert.Equal(t, st, got)
}

func TestLoadMore_MalformedBatchLeavesStateUnchanged(t *testing.T) {
	src := &fakeSource{pages: map[string]*prismic.Response{
		"C1": {NextPage: "C2", Results: []prismic.Document{doc("p2"), {UID: "broken", Data: []byte(`{}`)}}},
	}}
	st := State{Posts: []posts.Summary{{UID: "p1"}}, NextPage: "C1"}

	got, err := st.LoadMore(context.Background(), src)
	require.ErrorIs(t, err, posts.ErrMalformed)
	assert.Equal(t, st, got)
}

func TestManager_LoadMore(t *testing.T) {
	ctx := context.Background()
	src := &fakeSource{pages: map[string]*prismic.Response{
		"C1": {NextPage: "C2", Results: []prismic.Document{doc("p2")}},
		"C2": {NextPage: "", Results: []prismic.Document{doc("p3")}},
	}}
	m := NewManager(NewMemoryStore(time.Minute), src)

	id, err := m.Start(ctx, State{Posts: []posts.Summary{{UID: "p1"}}, NextPage: "C1"})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	st, err := m.LoadMore(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []string{"p2", "p1"}, uids(st))

	st, err = m.LoadMore(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []string{"p3", "p2", "p1"}, uids(st))

	st, err = m.LoadMore(ctx, id)
	assert.ErrorIs(t, err, ErrExhausted)
	assert.Equal(t, []string{"p3", "p2", "p1"}, uids(st))

	stored, err := m.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, st, stored)
}

func TestManager_LoadMoreFailureKeepsStoredState(t *testing.T) {
	ctx := context.Background()
	src := &fakeSource{errs: map[string]error{"C1": errors.New("timeout")}}
	m := NewManager(NewMemoryStore(time.Minute), src)
	initial := State{Posts: []posts.Summary{{UID: "p1"}}, NextPage: "C1"}
	id, err := m.Start(ctx, initial)
	require.NoError(t, err)

	st, err := m.LoadMore(ctx, id)
	require.Error(t, err)
	assert.Equal(t, initial, st)

	stored, err := m.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, initial, stored)
}

func TestManager_RejectsConcurrentLoad(t *testing.T) {
	ctx := context.Background()
	src := &fakeSource{
		pages:   map[string]*prismic.Response{"C1": {Results: []prismic.Document{doc("p2")}}},
		block:   make(chan struct{}),
		started: make(chan struct{}, 1),
	}
	m := NewManager(NewMemoryStore(time.Minute), src)
	id, err := m.Start(ctx, State{Posts: []posts.Summary{{UID: "p1"}}, NextPage: "C1"})
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := m.LoadMore(ctx, id)
		done <- err
	}()
	<-src.started

	st, err := m.LoadMore(ctx, id)
	assert.ErrorIs(t, err, ErrLoadInFlight)
	assert.Equal(t, []string{"p1"}, uids(st))

	close(src.block)
	require.NoError(t, <-done)
	assert.Equal(t, 1, src.calls)

	stored, err := m.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []string{"p2", "p1"}, uids(stored))
}

func TestManager_UnknownSession(t *testing.T) {
	m := NewManager(NewMemoryStore(time.Minute), &fakeSource{})

	_, err := m.LoadMore(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, err = m.Get(context.Background(), "")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestMemoryStore_Expiry(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(20 * time.Millisecond)
	require.NoError(t, s.Put(ctx, "a", State{NextPage: "C"}))

	_, err := s.Get(ctx, "a")
	require.NoError(t, err)

	time.Sleep(40 * time.Millisecond)
	_, err = s.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	s.Sweep()
	s.mu.Lock()
	assert.Empty(t, s.entries)
	s.mu.Unlock()
}

func TestMemoryStore_UnlockIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(time.Minute)
	require.NoError(t, s.Put(ctx, "a", State{}))

	unlock, err := s.Lock(ctx, "a")
	require.NoError(t, err)
	unlock()
	unlock()

	unlock2, err := s.Lock(ctx, "a")
	require.NoError(t, err)
	defer unlock2()

	_, err = s.Lock(ctx, "a")
	assert.ErrorIs(t, err, ErrLoadInFlight)
}
