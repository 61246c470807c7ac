package imagestore

import (
	"image"
	"os"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lepinkainen/libris/internal/model"
	"github.com/lepinkainen/libris/internal/testutil"
)

func TestSaveResizesAndStoresJPEG(t *testing.T) {
	env := testutil.NewTestEnv(t)
	store := New(env.RootDir(), 100)

	rel, err := store.Save(&model.Book{ID: 12, Title: "Emma"}, "cover", testutil.PNGBytes(t, 400, 200), "Emma-12.jpg")
	require.NoError(t, err)
	assert.Equal(t, "covers/emma-12.jpg", rel)

	img, err := imaging.Open(store.Abs(rel))
	require.NoError(t, err)
	assert.Equal(t, image.Pt(100, 50), img.Bounds().Size())
}

func TestSaveKeepsSmallImages(t *testing.T) {
	env := testutil.NewTestEnv(t)
	store := New(env.RootDir(), 100)

	rel, err := store.Save(&model.Author{ID: 1, Name: "Jane"}, "photo", testutil.PNGBytes(t, 40, 30), "jane-austen.jpg")
	require.NoError(t, err)
	assert.Equal(t, "photos/jane-austen.jpg", rel)

	img, err := imaging.Open(store.Abs(rel))
	require.NoError(t, err)
	assert.Equal(t, image.Pt(40, 30), img.Bounds().Size())
}

func TestSaveAvoidsCollisions(t *testing.T) {
	env := testutil.NewTestEnv(t)
	store := New(env.RootDir(), 0)
	owner := &model.Book{ID: 1}
	data := testutil.PNGBytes(t, 10, 10)

	first, err := store.Save(owner, "cover", data, "same")
	require.NoError(t, err)
	second, err := store.Save(owner, "cover", data, "same")
	require.NoError(t, err)

	assert.Equal(t, "covers/same.jpg", first)
	assert.NotEqual(t, first, second)
	assert.True(t, strings.HasPrefix(second, "covers/same-"))
	assert.Len(t, env.ListFiles("covers"), 2)
}

func TestSaveStoresUndecodableImagesAsIs(t *testing.T) {
	env := testutil.NewTestEnv(t)
	store := New(env.RootDir(), 100)
	webp := append([]byte("RIFF\x24\x00\x00\x00WEBPVP8 \x18\x00\x00\x00"), make([]byte, 24)...)

	rel, err := store.Save(&model.Author{ID: 3, Name: "Jane"}, "photo", webp, "jane-austen.jpg")
	require.NoError(t, err)
	assert.Equal(t, "photos/jane-austen.webp", rel)
	assert.Equal(t, webp, env.ReadFile("photos/jane-austen.webp"))
}

func TestSaveRejectsBadInput(t *testing.T) {
	env := testutil.NewTestEnv(t)
	store := New(env.RootDir(), 0)
	owner := &model.Book{ID: 1}

	_, err := store.Save(owner, "cover", nil, "x")
	assert.ErrorIs(t, err, ErrEmptyImage)

	_, err = store.Save(owner, "cover", []byte("<html>not an image</html>"), "x")
	assert.ErrorContains(t, err, "decode image")

	_, err = store.Save(owner, "", testutil.PNGBytes(t, 2, 2), "x")
	assert.Error(t, err)

	_, statErr := os.Stat(store.Abs("covers/x.jpg"))
	assert.True(t, os.IsNotExist(statErr))
}
