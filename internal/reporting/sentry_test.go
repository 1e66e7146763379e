package reporting

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSanitizeError(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		error string
		want  string
	}{
		{
			name:  "connection reset by peer",
			error: `failed to begin transaction: read tcp [dead:beef:feb1:d745::c001]:64079->[dead:beef::6811:112a]:5432: read: connection reset by peer`,
			want:  `failed to begin transaction: read tcp <host>-><host>: read: connection reset by peer`,
		},
		{
			name:  "player uuid",
			error: `failed to lock progress for player 01234567-89ab-cdef-0123-456789abcdef: context deadline exceeded`,
			want:  `failed to lock progress for player <uuid>: context deadline exceeded`,
		},
		{
			name:  "stripped uuid",
			error: `player deadbeef8315465d9d44cfc238c64f71 not found`,
			want:  `player <uuid> not found`,
		},
		{
			name:  "step counts",
			error: `milestone not yet reached: 9999/10000 steps`,
			want:  `milestone not yet reached: <n> steps`,
		},
		{
			name:  "negative step count",
			error: `invalid step count: -12 steps`,
			want:  `invalid step count: <n> steps`,
		},
		{
			name:  "nothing to sanitize",
			error: `failed to commit transaction: pq: could not serialize access`,
			want:  `failed to commit transaction: pq: could not serialize access`,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()

			require.Equal(t, c.want, sanitizeError(c.error))
		})
	}

	t.Run("misc ipv6", func(t *testing.T) {
		t.Parallel()

		ips := []string{
			`1:2:3:4:5:6:7:8`,
			`1::`,
			`1::8`,
			`1:2:3:4:5:6::8`,
			`1::7:8`,
			`1:2:3::5:6:7:8`,
			`::2:3:4:5:6:7:8`,
			`::8`,
			`::`,
		}
		for _, ip := range ips {
			t.Run(ip, func(t *testing.T) {
				t.Parallel()

				require.Equal(t, "<host>", sanitizeError(fmt.Sprintf("[%s]:1234", ip)))
			})
		}
	})
}

func TestReportWithoutHub(t *testing.T) {
	t.Parallel()

	// Must not panic without a Sentry hub in the context
	Report(t.Context(), errors.New("failure"), map[string]string{"key": "value"})
	Report(t.Context(), nil)
}

func TestAddMetaMiddleware(t *testing.T) {
	t.Parallel()

	var meta ReportingMeta
	handler := NewAddMetaMiddleware("steps")(addMetaMiddleware(func(w http.ResponseWriter, r *http.Request) {
		meta = MetaFromContext(r.Context())
	}))

	request := httptest.NewRequest("POST", "/v1/players/x/steps", nil)
	request.Header.Set("User-Agent", "steplings-ios/3.0")
	handler(httptest.NewRecorder(), request)

	require.Equal(t, map[string]string{
		"port":      "steps",
		"userAgent": "steplings-ios/3.0",
		"method":    "POST",
	}, meta.tags)
	require.False(t, meta.startedAt.IsZero())
}
