package github

import (
	"context"
	"encoding/json"
	"net/http"
	"path"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/skillhubhq/skillhub/pkg/logger"
	"github.com/skillhubhq/skillhub/pkg/models"
)

var (
	// ErrReadmeMissing marks a repository without a README; such repositories
	// are rejected before any review is attempted.
	ErrReadmeMissing = errors.New("repository has no README")
	// ErrManifestInvalid marks a manifest that exists but fails validation.
	ErrManifestInvalid = errors.New("skill manifest is invalid")
	// ErrRepoNotFound marks a repository that does not exist or is private.
	ErrRepoNotFound = errors.New("repository not found")
)

const (
	manifestFileName  = "skill.json"
	skillFileName     = "SKILL.md"
	maxFileContentLen = 4000
)

// sourceExtensions is the allowlist of file extensions sampled for review.
var sourceExtensions = map[string]bool{
	".go": true, ".py": true, ".js": true, ".ts": true, ".sh": true,
	".rb": true, ".rs": true, ".java": true, ".c": true, ".cpp": true,
}

// excludedDirs are build/vendor trees never sampled.
var excludedDirs = []string{
	"node_modules/", "vendor/", "dist/", "build/", ".git/",
	"third_party/", "__pycache__/", "target/",
}

// FetchRepo retrieves basic repository metadata, doubling as an existence
// check for the validate endpoint.
func (c *Client) FetchRepo(ctx context.Context, owner, repo string) (*models.GitHubStats, error) {
	r, resp, err := c.client.Repositories.Get(ctx, owner, repo)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return nil, errors.Wrapf(ErrRepoNotFound, "%s/%s", owner, repo)
		}
		return nil, errors.Wrapf(err, "failed to fetch repository %s/%s", owner, repo)
	}

	return &models.GitHubStats{
		Stars:     r.GetStargazersCount(),
		Forks:     r.GetForksCount(),
		License:   r.GetLicense().GetSPDXID(),
		UpdatedAt: r.GetPushedAt().Time,
	}, nil
}

// FetchReadme returns the decoded README text. A missing or empty README is
// ErrReadmeMissing, which upstream maps to a skip, not a crash.
func (c *Client) FetchReadme(ctx context.Context, owner, repo string) (string, error) {
	readme, resp, err := c.client.Repositories.GetReadme(ctx, owner, repo, nil)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return "", errors.Wrapf(ErrReadmeMissing, "%s/%s", owner, repo)
		}
		return "", errors.Wrapf(err, "failed to fetch README for %s/%s", owner, repo)
	}

	content, err := readme.GetContent()
	if err != nil {
		return "", errors.Wrapf(err, "failed to decode README for %s/%s", owner, repo)
	}
	if strings.TrimSpace(content) == "" {
		return "", errors.Wrapf(ErrReadmeMissing, "%s/%s", owner, repo)
	}

	return content, nil
}

// FetchManifest looks for skill.json first and SKILL.md frontmatter second.
// A repository without either returns (nil, nil); a manifest that is present
// but malformed returns ErrManifestInvalid.
func (c *Client) FetchManifest(ctx context.Context, owner, repo string) (*models.Manifest, error) {
	raw, found, err := c.fetchFileContent(ctx, owner, repo, manifestFileName)
	if err != nil {
		return nil, err
	}
	if found {
		var manifest models.Manifest
		if err := json.Unmarshal([]byte(raw), &manifest); err != nil {
			return nil, errors.Wrapf(ErrManifestInvalid, "%s/%s: %v", owner, repo, err)
		}
		if manifest.Name == "" {
			return nil, errors.Wrapf(ErrManifestInvalid, "%s/%s: manifest name is required", owner, repo)
		}
		return &manifest, nil
	}

	raw, found, err = c.fetchFileContent(ctx, owner, repo, skillFileName)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}

	manifest, err := parseSkillFrontmatter(raw)
	if err != nil {
		return nil, errors.Wrapf(ErrManifestInvalid, "%s/%s: %v", owner, repo, err)
	}
	return manifest, nil
}

// FetchCodeFiles walks the repository tree, filters to known source
// extensions outside vendor/build directories, and fetches up to maxFiles
// raw contents in parallel. A failed per-file fetch degrades to an
// empty-content entry instead of aborting the batch.
func (c *Client) FetchCodeFiles(ctx context.Context, owner, repo string, maxFiles int) ([]models.CodeFile, error) {
	if maxFiles < 1 {
		return nil, nil
	}

	r, _, err := c.client.Repositories.Get(ctx, owner, repo)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to resolve default branch for %s/%s", owner, repo)
	}

	tree, _, err := c.client.Git.GetTree(ctx, owner, repo, r.GetDefaultBranch(), true)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to fetch file tree for %s/%s", owner, repo)
	}

	var paths []string
	for _, entry := range tree.Entries {
		if entry.GetType() != "blob" {
			continue
		}
		if !isSourceFile(entry.GetPath()) {
			continue
		}
		paths = append(paths, entry.GetPath())
		if len(paths) == maxFiles {
			break
		}
	}

	files := make([]models.CodeFile, len(paths))
	var wg sync.WaitGroup
	for i, p := range paths {
		wg.Add(1)
		go func(i int, p string) {
			defer wg.Done()
			content, _, err := c.fetchFileContent(ctx, owner, repo, p)
			if err != nil {
				logger.G(ctx).WithError(err).WithField("path", p).Warn("failed to fetch source file, keeping empty entry")
				content = ""
			}
			files[i] = models.CodeFile{Path: p, Content: truncate(content, maxFileContentLen)}
		}(i, p)
	}
	wg.Wait()

	return files, nil
}

// fetchFileContent retrieves and decodes a single file. The second return
// value is false when the file does not exist.
func (c *Client) fetchFileContent(ctx context.Context, owner, repo, filePath string) (string, bool, error) {
	file, _, resp, err := c.client.Repositories.GetContents(ctx, owner, repo, filePath, nil)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return "", false, nil
		}
		return "", false, errors.Wrapf(err, "failed to fetch %s from %s/%s", filePath, owner, repo)
	}
	if file == nil {
		return "", false, nil
	}

	content, err := file.GetContent()
	if err != nil {
		return "", false, errors.Wrapf(err, "failed to decode %s from %s/%s", filePath, owner, repo)
	}
	return content, true, nil
}

func isSourceFile(filePath string) bool {
	for _, dir := range excludedDirs {
		if strings.HasPrefix(filePath, dir) || strings.Contains(filePath, "/"+dir) {
			return false
		}
	}
	return sourceExtensions[path.Ext(filePath)]
}

// truncate cuts on rune boundaries so a clipped file never carries a torn
// multi-byte character into the review prompt.
func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
