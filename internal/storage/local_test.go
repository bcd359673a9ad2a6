package storage

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"classroom_service/internal/errdefs"
)

func TestLocalStore_Save(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	assignmentID := uuid.New()
	path, err := store.Save(context.Background(), assignmentID, "homework.png", strings.NewReader("png-bytes"))
	require.NoError(t, err)

	assert.Contains(t, path, assignmentID.String())
	assert.True(t, strings.HasSuffix(path, ".png"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))
}

func TestLocalStore_SaveNormalizesExtensionCase(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	path, err := store.Save(context.Background(), uuid.New(), "PHOTO.JPG", strings.NewReader("jpg"))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, ".jpg"))
}

func TestLocalStore_SaveRejectsBadExtensions(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	for _, filename := range []string{"script.exe", "archive.zip", "noextension"} {
		_, err := store.Save(context.Background(), uuid.New(), filename, strings.NewReader("x"))
		assert.ErrorIs(t, err, errdefs.ErrValidation, filename)
	}
}
