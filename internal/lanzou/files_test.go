package lanzou

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pagedFileServer serves pages of generated file records: full pages of
// pageSize records until total is exhausted.
func pagedFileServer(t *testing.T, total int, pagesSeen *[]int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, taskListFiles, r.PostForm.Get("task"))

		page, err := strconv.Atoi(r.PostForm.Get("pg"))
		require.NoError(t, err)

		*pagesSeen = append(*pagesSeen, page)

		start := (page - 1) * pageSize
		end := min(start+pageSize, total)

		fmt.Fprint(w, `{"zt":1,"text":[`)

		for i := start; i < end; i++ {
			if i > start {
				fmt.Fprint(w, ",")
			}

			fmt.Fprintf(w, `{"id":"f%d","name":"file-%03d","name_all":"file-%03d.zip","size":"1.0 M"}`, i, i, i)
		}

		fmt.Fprint(w, `]}`)
	})
}

func TestListFiles_SinglePage(t *testing.T) {
	var pages []int

	srv := httptest.NewServer(pagedFileServer(t, 3, &pages))
	defer srv.Close()

	s := authedTestSession(t, srv.URL)

	files := s.ListFiles(context.Background(), "42")
	require.Len(t, files, 3)
	assert.Equal(t, []int{1}, pages, "a short first page ends pagination")
	assert.Equal(t, "file-000", files[0].Name)
	assert.Equal(t, "file-000.zip", files[0].NameAll)
}

func TestListFiles_PaginationTerminatesOnShortPage(t *testing.T) {
	var pages []int

	// 50 + 50 + 3: pagination must request exactly pages 1, 2, 3.
	srv := httptest.NewServer(pagedFileServer(t, 103, &pages))
	defer srv.Close()

	s := authedTestSession(t, srv.URL)

	files := s.ListFiles(context.Background(), "42")
	require.Len(t, files, 103)
	assert.Equal(t, []int{1, 2, 3}, pages)

	// Concatenation preserves request order across pages.
	assert.Equal(t, "file-000", files[0].Name)
	assert.Equal(t, "file-050", files[50].Name)
	assert.Equal(t, "file-102", files[102].Name)
}

func TestListFiles_ExactPageBoundary(t *testing.T) {
	var pages []int

	// Exactly one full page: the empty second page ends the walk.
	srv := httptest.NewServer(pagedFileServer(t, pageSize, &pages))
	defer srv.Close()

	s := authedTestSession(t, srv.URL)

	files := s.ListFiles(context.Background(), "42")
	require.Len(t, files, pageSize)
	assert.Equal(t, []int{1, 2}, pages)
}

func TestListFiles_DelaysBetweenPages(t *testing.T) {
	var pages []int

	srv := httptest.NewServer(pagedFileServer(t, 120, &pages))
	defer srv.Close()

	s := authedTestSession(t, srv.URL)

	var delays []time.Duration

	s.sleepFunc = func(_ context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	}

	files := s.ListFiles(context.Background(), "42")
	require.Len(t, files, 120)

	// One pause per full page, none after the final short page.
	require.Len(t, delays, 2)
	assert.Equal(t, pageDelay, delays[0])
}

func TestListFiles_EmptyStringPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"zt":1,"text":""}`)
	}))
	defer srv.Close()

	s := authedTestSession(t, srv.URL)

	assert.Empty(t, s.ListFiles(context.Background(), "42"))
}

func TestListFiles_DegradesToEmptyOnFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"zt":0,"info":"参数错误"}`)
	}))
	defer srv.Close()

	s := authedTestSession(t, srv.URL)

	assert.Empty(t, s.ListFiles(context.Background(), "42"))
}

func TestFileExists(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"zt":1,"text":[
			{"id":"f1","name":"tool-v2.0","name_all":"tool-v2.0.exe"}
		]}`)
	}))
	defer srv.Close()

	s := authedTestSession(t, srv.URL)
	ctx := context.Background()

	// Either the short name or the full name matches.
	assert.True(t, s.FileExists(ctx, "42", "tool-v2.0"))
	assert.True(t, s.FileExists(ctx, "42", "tool-v2.0.exe"))

	assert.False(t, s.FileExists(ctx, "42", "tool-v1.0.exe"))
	// Case-sensitive exact match.
	assert.False(t, s.FileExists(ctx, "42", "Tool-V2.0.exe"))
}

func TestFileEntry_Helpers(t *testing.T) {
	full := FileEntry{Name: "a", NameAll: "a.zip"}
	assert.Equal(t, "a.zip", full.DisplayName())

	short := FileEntry{Name: "b"}
	assert.Equal(t, "b", short.DisplayName())
}
