package imagerec

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateFile(t *testing.T) {
	tests := []struct {
		name    string
		size    int64
		wantErr bool
	}{
		{"photo.jpg", 1024, false},
		{"photo.JPEG", 1024, false},
		{"photo.png", MaxFileSize, false},
		{"photo.gif", 1024, false},
		{"photo.bmp", 1024, false},
		{"animation.webp", 1024, true},
		{"document.pdf", 1024, true},
		{"noextension", 1024, true},
		{"big.jpg", 11 * 1024 * 1024, true},
	}

	for _, tt := range tests {
		err := ValidateFile(tt.name, tt.size)
		if tt.wantErr {
			require.Error(t, err, tt.name)
			var vErr *ValidationError
			assert.ErrorAs(t, err, &vErr, tt.name)
		} else {
			assert.NoError(t, err, tt.name)
		}
	}
}

func TestOversizedImageMakesNoNetworkCall(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	a := NewAdapter(srv.URL, "", "", 5*time.Second)
	data := make([]byte, 11*1024*1024)
	_, err := a.ClassifyData(context.Background(), "huge.jpg", data, TypeGeneral)

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, int32(0), calls.Load())
}

func TestClassifyNormalizesNameItems(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/2.0/image-classify/v1/animal", r.URL.Path)

		require.NoError(t, r.ParseForm())
		img := r.PostFormValue("image")
		decoded, err := base64.StdEncoding.DecodeString(img)
		require.NoError(t, err)
		assert.Equal(t, []byte("fakeimagebytes"), decoded)
		assert.False(t, strings.HasPrefix(img, "data:"))

		w.Write([]byte(`{
			"result_num": 2,
			"result": [
				{"name": "red fox", "score": 0.92, "baike_info": {"baike_url": "https://baike.example/fox", "description": "a small canid"}},
				{"name": "dog", "score": 0.05}
			]
		}`))
	}))
	defer srv.Close()

	a := NewAdapter(srv.URL, "", "", 5*time.Second)
	items, err := a.ClassifyData(context.Background(), "fox.jpg", []byte("fakeimagebytes"), TypeAnimal)
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, "red fox", items[0].Label)
	assert.InDelta(t, 0.92, items[0].Score, 0.001)
	assert.Equal(t, "https://baike.example/fox", items[0].WikiURL)
	assert.Equal(t, "a small canid", items[0].Description)
	assert.Empty(t, items[1].WikiURL)
}

func TestClassifyNormalizesKeywordAndYear(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"result_num": 3,
			"result": [
				{"keyword": "sedan", "score": 0.8, "year": "2021"},
				{"probability": "0.61", "name": "coupe"},
				{"score": 0.1}
			]
		}`))
	}))
	defer srv.Close()

	a := NewAdapter(srv.URL, "", "", 5*time.Second)
	items, err := a.ClassifyData(context.Background(), "car.png", []byte("img"), TypeCar)
	require.NoError(t, err)
	require.Len(t, items, 3)

	assert.Equal(t, "sedan", items[0].Label)
	assert.Equal(t, "2021", items[0].Year)

	// Dish-style string probability is parsed into the score.
	assert.Equal(t, "coupe", items[1].Label)
	assert.InDelta(t, 0.61, items[1].Score, 0.001)

	// Missing name and keyword falls back to a stable label.
	assert.Equal(t, "unknown object", items[2].Label)
}

func TestClassifyServiceErrorVerbatim(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error_code": 17, "error_msg": "Open api daily request limit reached"}`))
	}))
	defer srv.Close()

	a := NewAdapter(srv.URL, "", "", 5*time.Second)
	_, err := a.ClassifyData(context.Background(), "a.jpg", []byte("img"), TypeGeneral)

	var sErr *ServiceError
	require.ErrorAs(t, err, &sErr)
	assert.Equal(t, 17, sErr.Code)
	assert.Equal(t, "Open api daily request limit reached", sErr.Message)
}

func TestClassifyNoResponseIsTransportError(t *testing.T) {
	a := NewAdapter("http://127.0.0.1:1", "", "", time.Second)
	_, err := a.ClassifyData(context.Background(), "a.jpg", []byte("img"), TypeGeneral)

	var tErr *TransportError
	require.ErrorAs(t, err, &tErr)
	assert.False(t, tErr.Setup)
	assert.Contains(t, err.Error(), "no response")
}

func TestClassifyFetchesAndCachesToken(t *testing.T) {
	var tokenCalls, classifyCalls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/oauth/2.0/token" {
			tokenCalls.Add(1)
			assert.Equal(t, "client_credentials", r.URL.Query().Get("grant_type"))
			assert.Equal(t, "key", r.URL.Query().Get("client_id"))
			w.Write([]byte(`{"access_token": "tok123", "expires_in": 3600}`))
			return
		}
		classifyCalls.Add(1)
		assert.Equal(t, "tok123", r.URL.Query().Get("access_token"))
		w.Write([]byte(`{"result_num": 0, "result": []}`))
	}))
	defer srv.Close()

	a := NewAdapter(srv.URL, "key", "secret", 5*time.Second)

	_, err := a.ClassifyData(context.Background(), "a.jpg", []byte("img"), TypeGeneral)
	require.NoError(t, err)
	_, err = a.ClassifyData(context.Background(), "b.jpg", []byte("img"), TypeGeneral)
	require.NoError(t, err)

	assert.Equal(t, int32(1), tokenCalls.Load())
	assert.Equal(t, int32(2), classifyCalls.Load())
}

func TestTokenFetchRetries(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/oauth/2.0/token" {
			if attempts.Add(1) < 3 {
				w.Write([]byte(`{"error": "server_busy", "error_description": "try later"}`))
				return
			}
			w.Write([]byte(`{"access_token": "tok", "expires_in": 3600}`))
			return
		}
		w.Write([]byte(`{"result_num": 0, "result": []}`))
	}))
	defer srv.Close()

	a := NewAdapter(srv.URL, "key", "secret", 5*time.Second)
	a.retry.BaseDelay = time.Millisecond

	_, err := a.ClassifyData(context.Background(), "a.jpg", []byte("img"), TypeGeneral)
	require.NoError(t, err)
	assert.Equal(t, int32(3), attempts.Load())
}

func TestParseType(t *testing.T) {
	typ, err := ParseType("")
	require.NoError(t, err)
	assert.Equal(t, TypeGeneral, typ)

	typ, err = ParseType("Animal")
	require.NoError(t, err)
	assert.Equal(t, TypeAnimal, typ)

	_, err = ParseType("spaceship")
	assert.Error(t, err)
}
