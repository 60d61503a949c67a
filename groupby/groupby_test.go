package groupby

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestGroupFlatDirective(t *testing.T) {
	rows := []map[string]any{
		{"id": 1, "name": "Gaston"},
		{"id": 2, "name": "Fantasio"},
	}
	out, err := Group(rows, "id: id\nname: name\n")
	require.NoError(t, err)
	require.Len(t, out, 2)
	require.Equal(t, 1, out[0]["id"])
	require.Equal(t, "Gaston", out[0]["name"])
}

func TestGroupDedupesRepeatedLeafAcrossRows(t *testing.T) {
	rows := []map[string]any{
		{"author_id": 1, "author_name": "Gaston", "comment_id": 10},
		{"author_id": 1, "author_name": "Gaston", "comment_id": 11},
		{"author_id": 2, "author_name": "Fantasio", "comment_id": 12},
	}
	directive := "author_id: id\nauthor_name: name\n"
	out, err := Group(rows, directive)
	require.NoError(t, err)
	require.Len(t, out, 2, "rows sharing the leaf's key should fold into one element")
}

func TestGroupNestedListDirective(t *testing.T) {
	rows := []map[string]any{
		{"author_id": 1, "author_name": "Gaston", "comment_id": 10, "comment_text": "hello"},
		{"author_id": 1, "author_name": "Gaston", "comment_id": 11, "comment_text": "world"},
	}
	directive := `
author_id: id
author_name: name
comments:
  - comment_id: id
    comment_text: text
`
	out, err := Group(rows, directive)
	require.NoError(t, err)
	require.Len(t, out, 1)

	comments, ok := out[0]["comments"].([]map[string]any)
	require.True(t, ok)
	require.Len(t, comments, 2)
	require.Equal(t, 10, comments[0]["id"])
	require.Equal(t, "hello", comments[0]["text"])
}

func TestGroupNestedSingleObjectDirective(t *testing.T) {
	rows := []map[string]any{
		{"comment_id": 10, "comment_text": "hello", "author_id": 1, "author_name": "Gaston"},
	}
	directive := `
comment_id: id
comment_text: text
author:
  author_id: id
  author_name: name
`
	out, err := Group(rows, directive)
	require.NoError(t, err)
	require.Len(t, out, 1)

	author, ok := out[0]["author"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, 1, author["id"])
	require.Equal(t, "Gaston", author["name"])
}

func TestToJSONHandlesTimeAndUUID(t *testing.T) {
	id := uuid.New()
	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	rows := []map[string]any{
		{"id": id, "created_at": ts},
	}

	data, err := ToJSON(rows, "")
	require.NoError(t, err)

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Equal(t, id.String(), decoded[0]["id"])
	require.Equal(t, ts.Format(time.RFC3339Nano), decoded[0]["created_at"])
}
