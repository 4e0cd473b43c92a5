package github

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"unicode/utf8"

	gh "github.com/google/go-github/v57/github"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stubClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	ghc := gh.NewClient(nil)
	base, err := url.Parse(srv.URL + "/")
	require.NoError(t, err)
	ghc.BaseURL = base

	return NewClientFromGitHub(ghc)
}

func base64JSON(content string) string {
	return base64.StdEncoding.EncodeToString([]byte(content))
}

func TestSearchQueryRotation(t *testing.T) {
	var gotQueries []string
	var gotPages []string

	client := stubClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQueries = append(gotQueries, r.URL.Query().Get("q"))
		gotPages = append(gotPages, r.URL.Query().Get("page"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"total_count": 1, "incomplete_results": false, "items": [
			{"name": "web-scraper", "full_name": "acme/web-scraper",
			 "owner": {"login": "acme"}, "description": "Scrapes websites",
			 "stargazers_count": 321, "language": "Python",
			 "html_url": "https://github.com/acme/web-scraper"}
		]}`)
	}))

	ctx := context.Background()
	n := NumSearchQueries()
	require.Equal(t, 6, n)

	// Page 1 uses the first query at remote page 1.
	candidates, err := client.Search(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "acme", candidates[0].Owner)
	assert.Equal(t, "web-scraper", candidates[0].Repo)
	assert.Equal(t, 321, candidates[0].Stars)

	// Page 2 advances to the second query, still remote page 1.
	_, err = client.Search(ctx, 2, 10)
	require.NoError(t, err)

	// Page n+1 wraps back to the first query at remote page 2.
	_, err = client.Search(ctx, n+1, 10)
	require.NoError(t, err)

	require.Len(t, gotQueries, 3)
	assert.Equal(t, searchQueries[0], gotQueries[0])
	assert.Equal(t, searchQueries[1], gotQueries[1])
	assert.Equal(t, searchQueries[0], gotQueries[2])
	assert.Equal(t, []string{"1", "1", "2"}, gotPages)
}

func TestSearchErrorCarriesQueryAndStatus(t *testing.T) {
	client := stubClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"message": "rate limit exceeded"}`)
	}))

	_, err := client.Search(context.Background(), 1, 10)
	require.Error(t, err)

	var searchErr *SearchError
	require.True(t, errors.As(err, &searchErr))
	assert.Equal(t, searchQueries[0], searchErr.Query)
	assert.Equal(t, http.StatusForbidden, searchErr.Status)
	assert.Contains(t, searchErr.Error(), "status 403")
	assert.Error(t, searchErr.Unwrap())
}

func TestFetchRepo(t *testing.T) {
	t.Run("existing repository", func(t *testing.T) {
		client := stubClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"stargazers_count": 1500, "forks_count": 42, "license": {"spdx_id": "MIT"}}`)
		}))

		stats, err := client.FetchRepo(context.Background(), "acme", "web-scraper")
		require.NoError(t, err)
		assert.Equal(t, 1500, stats.Stars)
		assert.Equal(t, 42, stats.Forks)
		assert.Equal(t, "MIT", stats.License)
	})

	t.Run("missing repository", func(t *testing.T) {
		client := stubClient(t, http.NotFoundHandler())

		_, err := client.FetchRepo(context.Background(), "acme", "gone")
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrRepoNotFound))
	})
}

func TestFetchReadme(t *testing.T) {
	t.Run("decodes content", func(t *testing.T) {
		client := stubClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprintf(w, `{"type": "file", "encoding": "base64", "content": %q}`, base64JSON("# My Skill\nDoes things."))
		}))

		readme, err := client.FetchReadme(context.Background(), "acme", "web-scraper")
		require.NoError(t, err)
		assert.Equal(t, "# My Skill\nDoes things.", readme)
	})

	t.Run("missing README", func(t *testing.T) {
		client := stubClient(t, http.NotFoundHandler())

		_, err := client.FetchReadme(context.Background(), "acme", "bare-repo")
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrReadmeMissing))
	})

	t.Run("whitespace-only README counts as missing", func(t *testing.T) {
		client := stubClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprintf(w, `{"type": "file", "encoding": "base64", "content": %q}`, base64JSON("  \n\t\n"))
		}))

		_, err := client.FetchReadme(context.Background(), "acme", "blank")
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrReadmeMissing))
	})
}

func TestFetchManifest(t *testing.T) {
	t.Run("skill.json wins", func(t *testing.T) {
		client := stubClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			manifest := `{"name": "Web Scraper", "version": "1.2.0", "category": "data"}`
			fmt.Fprintf(w, `{"type": "file", "name": "skill.json", "path": "skill.json", "encoding": "base64", "content": %q}`, base64JSON(manifest))
		}))

		manifest, err := client.FetchManifest(context.Background(), "acme", "web-scraper")
		require.NoError(t, err)
		require.NotNil(t, manifest)
		assert.Equal(t, "Web Scraper", manifest.Name)
		assert.Equal(t, "1.2.0", manifest.Version)
		assert.Equal(t, "data", manifest.Category)
	})

	t.Run("malformed skill.json", func(t *testing.T) {
		client := stubClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprintf(w, `{"type": "file", "name": "skill.json", "path": "skill.json", "encoding": "base64", "content": %q}`, base64JSON("{not json"))
		}))

		_, err := client.FetchManifest(context.Background(), "acme", "broken")
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrManifestInvalid))
	})

	t.Run("falls back to SKILL.md frontmatter", func(t *testing.T) {
		skillMD := `---
name: Web Scraper
description: Scrapes websites
version: 2.0.0
frameworks:
  - claude
  - openai
---

# Web Scraper
`
		client := stubClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/repos/acme/web-scraper/contents/skill.json" {
				http.NotFound(w, r)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprintf(w, `{"type": "file", "name": "SKILL.md", "path": "SKILL.md", "encoding": "base64", "content": %q}`, base64JSON(skillMD))
		}))

		manifest, err := client.FetchManifest(context.Background(), "acme", "web-scraper")
		require.NoError(t, err)
		require.NotNil(t, manifest)
		assert.Equal(t, "Web Scraper", manifest.Name)
		assert.Equal(t, "2.0.0", manifest.Version)
		assert.Equal(t, []string{"claude", "openai"}, manifest.Frameworks)
	})

	t.Run("neither file present", func(t *testing.T) {
		client := stubClient(t, http.NotFoundHandler())

		manifest, err := client.FetchManifest(context.Background(), "acme", "plain-repo")
		require.NoError(t, err)
		assert.Nil(t, manifest)
	})
}

func TestParseSkillFrontmatter(t *testing.T) {
	t.Run("all fields", func(t *testing.T) {
		manifest, err := parseSkillFrontmatter(`---
name: PDF Toolkit
description: Split and merge PDFs
version: 1.0.0
author: acme
license: MIT
category: data
frameworks:
  - claude
---

body text
`)
		require.NoError(t, err)
		assert.Equal(t, "PDF Toolkit", manifest.Name)
		assert.Equal(t, "Split and merge PDFs", manifest.Description)
		assert.Equal(t, "1.0.0", manifest.Version)
		assert.Equal(t, "acme", manifest.Author)
		assert.Equal(t, "MIT", manifest.License)
		assert.Equal(t, "data", manifest.Category)
		assert.Equal(t, []string{"claude"}, manifest.Frameworks)
	})

	t.Run("missing name", func(t *testing.T) {
		_, err := parseSkillFrontmatter("---\ndescription: nameless\n---\n\nbody\n")
		require.Error(t, err)
	})

	t.Run("no frontmatter", func(t *testing.T) {
		_, err := parseSkillFrontmatter("# Just a heading\n")
		require.Error(t, err)
	})
}

func TestIsSourceFile(t *testing.T) {
	tests := []struct {
		path     string
		expected bool
	}{
		{"main.go", true},
		{"scripts/install.sh", true},
		{"src/lib.rs", true},
		{"README.md", false},
		{"image.png", false},
		{"node_modules/pkg/index.js", false},
		{"sub/vendor/dep/code.go", false},
		{"__pycache__/mod.py", false},
		{"dist/bundle.js", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.expected, isSourceFile(tt.path))
		})
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 10))
	assert.Equal(t, "abcde", truncate("abcdefgh", 5))
	assert.Equal(t, "", truncate("", 5))

	// Cuts fall on rune boundaries; the result stays valid UTF-8 even when
	// the byte at the limit sits inside a multi-byte character.
	assert.Equal(t, "héllo", truncate("héllo wörld", 5))
	assert.True(t, utf8.ValidString(truncate("日本語のテキスト", 3)))
	assert.Equal(t, "日本語", truncate("日本語のテキスト", 3))
}
