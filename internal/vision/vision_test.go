package vision

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPDetector_Detect(t *testing.T) {
	t.Parallel()

	t.Run("decodes a bare label array", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, r.ParseMultipartForm(1<<20))
			_, header, err := r.FormFile("image")
			require.NoError(t, err)
			assert.Equal(t, "lunch.jpg", header.Filename)

			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode([]Label{{Label: "nasi", Confidence: 0.9}})
		}))
		defer srv.Close()

		labels, err := NewHTTPDetector(srv.URL).Detect(context.Background(), []byte("fake image"), "lunch.jpg")
		require.NoError(t, err)
		require.Len(t, labels, 1)
		assert.Equal(t, "nasi", labels[0].Label)
		assert.InDelta(t, 0.9, labels[0].Confidence, 0.001)
	})

	t.Run("decodes a wrapped label object", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"labels":[{"label":"telur","confidence":0.75}]}`))
		}))
		defer srv.Close()

		labels, err := NewHTTPDetector(srv.URL).Detect(context.Background(), []byte("fake image"), "a.jpg")
		require.NoError(t, err)
		require.Len(t, labels, 1)
		assert.Equal(t, "telur", labels[0].Label)
	})

	t.Run("surfaces the error body on non-200", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "model loading", http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		_, err := NewHTTPDetector(srv.URL).Detect(context.Background(), []byte("fake image"), "a.jpg")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "503")
		assert.Contains(t, err.Error(), "model loading")
	})
}

func TestStaticDetector_Detect(t *testing.T) {
	t.Parallel()

	labels, err := StaticDetector{}.Detect(context.Background(), nil, "")
	require.NoError(t, err)
	require.Len(t, labels, 2)
	assert.Equal(t, "ayam", labels[0].Label)
	assert.Equal(t, "kentang", labels[1].Label)
}

func TestNew(t *testing.T) {
	t.Parallel()

	assert.IsType(t, StaticDetector{}, New(""))
	assert.IsType(t, &HTTPDetector{}, New("http://localhost:8000/detect"))
}
