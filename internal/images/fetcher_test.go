package images

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lepinkainen/libris/internal/imagestore"
	"github.com/lepinkainen/libris/internal/model"
	"github.com/lepinkainen/libris/internal/result"
	"github.com/lepinkainen/libris/internal/testutil"
)

type failingSaver struct{}

func (failingSaver) Save(model.Owner, string, []byte, string) (string, error) {
	return "", errors.New("disk full")
}

func TestFetchAndAttachStoresImage(t *testing.T) {
	env := testutil.NewTestEnv(t)
	stub := testutil.NewStubServer(t, map[string]http.HandlerFunc{
		"/cover.png": testutil.Image("image/png", testutil.PNGBytes(t, 20, 30)),
	})
	f := NewFetcher(imagestore.New(env.RootDir(), 0), 0)

	res := f.FetchAndAttach(context.Background(), stub.URL+"/cover.png", &model.Book{ID: 3}, "cover", "emma-3.jpg")
	path, ok := res.Get()
	require.True(t, ok, "unexpected status %s: %v", res.Status, res.Err)
	assert.Equal(t, "covers/emma-3.jpg", path)
	assert.True(t, env.FileExists(path))
}

func TestFetchAndAttachEmptyURL(t *testing.T) {
	f := NewFetcher(failingSaver{}, 0)
	res := f.FetchAndAttach(context.Background(), "", &model.Book{}, "cover", "x")
	assert.Equal(t, result.StatusEmpty, res.Status)
}

func TestFetchAndAttachFailures(t *testing.T) {
	env := testutil.NewTestEnv(t)
	stub := testutil.NewStubServer(t, map[string]http.HandlerFunc{
		"/ok.png": testutil.Image("image/png", testutil.PNGBytes(t, 5, 5)),
	})
	owner := &model.Author{ID: 9, Name: "X"}

	res := NewFetcher(imagestore.New(env.RootDir(), 0), 0).FetchAndAttach(context.Background(), stub.URL+"/missing.png", owner, "photo", "x")
	assert.Equal(t, result.StatusFailed, res.Status)
	assert.ErrorContains(t, res.Err, "unexpected status 404")

	res = NewFetcher(failingSaver{}, 0).FetchAndAttach(context.Background(), stub.URL+"/ok.png", owner, "photo", "x")
	assert.Equal(t, result.StatusFailed, res.Status)
	assert.ErrorContains(t, res.Err, "disk full")

	assert.Empty(t, env.ListFiles("photos"))
}
