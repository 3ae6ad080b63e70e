package todos

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idilsaglam/tada/internal/model"
)

func TestEncode(t *testing.T) {
	out, err := Encode(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", out)

	out, err = Encode([]model.Todo{{ID: "a", Title: "x", Completed: true}, {ID: "b", Title: "y"}})
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"a","title":"x","completed":true},{"id":"b","title":"y","completed":false}]`, out)
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name        string
		raw         string
		want        []model.Todo
		wantDropped int
		wantErr     bool
	}{
		{name: "empty array", raw: `[]`, want: []model.Todo{}},
		{name: "not json", raw: `nope`, wantErr: true},
		{name: "object", raw: `{"id":"1","title":"x"}`, wantErr: true},
		{name: "null", raw: `null`, wantErr: true},
		{
			name: "valid",
			raw:  `[{"id":"1","title":"a","completed":false},{"id":"2","title":"b","completed":true}]`,
			want: []model.Todo{{ID: "1", Title: "a"}, {ID: "2", Title: "b", Completed: true}},
		},
		{
			name:        "wrong field types",
			raw:         `[{"id":1,"title":"a"},{"id":"2","title":5},{"id":"3","title":"c","completed":"yes"},{"id":"4","title":"d"}]`,
			want:        []model.Todo{{ID: "4", Title: "d"}},
			wantDropped: 3,
		},
		{
			name:        "non-object records",
			raw:         `[1,"two",null,{"id":"x","title":"kept"}]`,
			want:        []model.Todo{{ID: "x", Title: "kept"}},
			wantDropped: 3,
		},
		{
			name:        "unicode blank titles",
			raw:         `[{"id":"1","title":"\u000b"},{"id":"2","title":"\u00a0"},{"id":"3","title":"\u3000"},{"id":"4","title":"\u00a0d\u3000"}]`,
			want:        []model.Todo{{ID: "4", Title: "d"}},
			wantDropped: 3,
		},
		{
			name:        "empty id",
			raw:         `[{"id":"","title":"a"}]`,
			want:        []model.Todo{},
			wantDropped: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, dropped, err := Decode(tt.raw)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrMalformedPayload)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Len(t, dropped, tt.wantDropped)
			for _, d := range dropped {
				assert.NotEmpty(t, d.Reason)
			}
		})
	}
}
