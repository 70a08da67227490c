package assetstore

import (
	"context"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "suraksha/pkg/domain-errors"
	"suraksha/pkg/platform/sentinel"
)

func TestDecodeImage_DataURI(t *testing.T) {
	payload := base64.StdEncoding.EncodeToString([]byte("png-bytes"))

	data, contentType, err := DecodeImage("data:image/png;base64," + payload)
	require.NoError(t, err)
	assert.Equal(t, []byte("png-bytes"), data)
	assert.Equal(t, "image/png", contentType)
}

func TestDecodeImage_BareBase64DefaultsToJPEG(t *testing.T) {
	payload := base64.StdEncoding.EncodeToString([]byte("jpeg-bytes"))

	data, contentType, err := DecodeImage(payload)
	require.NoError(t, err)
	assert.Equal(t, []byte("jpeg-bytes"), data)
	assert.Equal(t, "image/jpeg", contentType)
}

func TestDecodeImage_Rejections(t *testing.T) {
	cases := map[string]string{
		"empty input":       "",
		"not base64":        "!!not-base64!!",
		"data URI no comma": "data:image/png;base64",
		"not base64 in URI": "data:image/png;base64,%%%",
		"unsupported URI":   "data:image/png;hex,deadbeef",
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, _, err := DecodeImage(input)
			require.Error(t, err)
			assert.Equal(t, dErrors.CodeValidation, dErrors.CodeOf(err))
		})
	}
}

func TestInMemory_SaveAndLoad(t *testing.T) {
	store := NewInMemory()
	ctx := context.Background()

	ref, err := store.Save(ctx, "selfies/w1", []byte("jpeg-bytes"), "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, "asset://selfies/w1", ref)

	data, contentType, err := store.Load(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, []byte("jpeg-bytes"), data)
	assert.Equal(t, "image/jpeg", contentType)
}

func TestInMemory_LoadUnknownRef(t *testing.T) {
	store := NewInMemory()

	_, _, err := store.Load(context.Background(), "asset://missing")
	require.ErrorIs(t, err, sentinel.ErrNotFound)
}
