package library

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/go-git/go-git/v6"
	"github.com/go-git/go-git/v6/plumbing"
	githttp "github.com/go-git/go-git/v6/plumbing/transport/http"

	"prdflow/internal/logging"
	"prdflow/pkg/fileops"
)

// DirState describes what occupies the local cache directory before a sync.
type DirState int

const (
	// DirStateEmpty: directory is absent or empty, safe to clone into.
	DirStateEmpty DirState = iota
	// DirStateSameRepo: directory already holds a clone of this library.
	DirStateSameRepo
	// DirStateOtherRepo: directory holds a clone of some other repository.
	DirStateOtherRepo
	// DirStateConflict: directory holds non-git content.
	DirStateConflict
)

func (s DirState) String() string {
	switch s {
	case DirStateEmpty:
		return "empty or absent"
	case DirStateSameRepo:
		return "existing library clone"
	case DirStateOtherRepo:
		return "different git repository"
	case DirStateConflict:
		return "non-git content"
	default:
		return "unknown"
	}
}

// GitSource is a remote template library repository. It clones on first sync
// and fetches afterwards, trying public access before falling back to a
// stored Personal Access Token.
type GitSource struct {
	RemoteURL string
	// Branch pins a branch; nil uses the remote's default.
	Branch *string
	// Path is the local cache directory for the clone.
	Path string

	creds *CredentialManager
}

// NewGitSource builds a source for the given remote and local cache path.
// SSH-style URLs (git@host:owner/repo.git) are normalized to HTTPS during
// sync, since PAT authentication only works over HTTPS.
func NewGitSource(remoteURL string, branch *string, localPath string) *GitSource {
	return &GitSource{
		RemoteURL: remoteURL,
		Branch:    branch,
		Path:      localPath,
		creds:     NewCredentialManager(),
	}
}

// Prepare clones or refreshes the library and returns the local path.
// A dirty working tree in an existing clone skips the fetch rather than
// discarding local edits.
func (gs *GitSource) Prepare(logger *logging.AppLogger) (string, error) {
	if strings.TrimSpace(gs.RemoteURL) == "" {
		return "", fmt.Errorf("library remote URL cannot be empty")
	}
	if strings.TrimSpace(gs.Path) == "" {
		return "", fmt.Errorf("library cache path cannot be empty")
	}

	remoteURL, err := gs.normalizedRemoteURL()
	if err != nil {
		return "", fmt.Errorf("invalid library URL: %w", err)
	}

	cleanPath, err := gs.cleanLocalPath()
	if err != nil {
		return "", err
	}

	state, err := gs.inspectDir(cleanPath, remoteURL)
	if err != nil {
		return "", err
	}

	switch state {
	case DirStateEmpty:
		if err := gs.cloneWithAuth(cleanPath, remoteURL, logger); err != nil {
			return "", err
		}
	case DirStateSameRepo:
		if err := gs.fetchWithAuth(cleanPath, logger); err != nil {
			return "", err
		}
	default:
		return "", fmt.Errorf("library cache directory %s holds %s, move or remove it and sync again", cleanPath, state)
	}

	if logger != nil {
		logger.Info("template library ready", "path", cleanPath)
	}
	return cleanPath, nil
}

// IsDirty reports whether an existing clone has uncommitted changes.
func IsDirty(repoPath string) (bool, error) {
	repo, err := git.PlainOpen(repoPath)
	if err != nil {
		return false, fmt.Errorf("opening library clone: %w", err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return false, fmt.Errorf("reading working tree: %w", err)
	}
	status, err := wt.Status()
	if err != nil {
		return false, fmt.Errorf("reading working tree status: %w", err)
	}
	return !status.IsClean(), nil
}

func (gs *GitSource) cleanLocalPath() (string, error) {
	clean := filepath.Clean(fileops.ExpandPath(gs.Path))
	if err := fileops.ValidatePathSecurity(clean); err != nil {
		return "", fmt.Errorf("invalid library cache path: %w", err)
	}
	abs, err := filepath.Abs(clean)
	if err != nil {
		return "", fmt.Errorf("resolving library cache path: %w", err)
	}
	return abs, nil
}

// normalizedRemoteURL reconstructs the remote as an HTTPS URL with a .git
// suffix so SSH and HTTPS spellings of the same library compare equal.
func (gs *GitSource) normalizedRemoteURL() (string, error) {
	info, err := ParseGitURL(gs.RemoteURL)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("https://%s/%s/%s.git", info.Host, info.Owner, info.Repo), nil
}

func (gs *GitSource) inspectDir(path, remoteURL string) (DirState, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return DirStateEmpty, nil
	}
	if err != nil {
		return DirStateConflict, fmt.Errorf("cannot access %s: %w", path, err)
	}
	if !info.IsDir() {
		return DirStateConflict, fmt.Errorf("library cache path exists but is not a directory: %s", path)
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return DirStateConflict, fmt.Errorf("cannot read %s: %w", path, err)
	}
	if len(entries) == 0 {
		return DirStateEmpty, nil
	}

	current, err := originURL(path)
	if err != nil {
		if strings.Contains(err.Error(), "not a git repository") {
			return DirStateConflict, nil
		}
		return DirStateConflict, fmt.Errorf("inspecting existing clone: %w", err)
	}

	if comparableURL(current) == comparableURL(remoteURL) {
		return DirStateSameRepo, nil
	}
	return DirStateOtherRepo, nil
}

func (gs *GitSource) cloneWithAuth(path, remoteURL string, logger *logging.AppLogger) error {
	err := gs.clone(path, remoteURL, nil, logger)
	if err == nil || !isAuthError(err) {
		return err
	}

	auth, authErr := gs.auth(logger)
	if authErr != nil {
		return authErr
	}
	if auth == nil {
		return fmt.Errorf("library requires authentication, store a token with 'prdflow auth set-token'")
	}
	return gs.clone(path, remoteURL, auth, logger)
}

func (gs *GitSource) clone(path, remoteURL string, auth *githttp.BasicAuth, logger *logging.AppLogger) error {
	if logger != nil {
		logger.Info("cloning template library", "url", remoteURL, "path", path)
	}

	parent := filepath.Dir(path)
	if err := fileops.ValidatePathSecurity(parent); err != nil {
		return fmt.Errorf("invalid library parent directory: %w", err)
	}
	if err := os.MkdirAll(parent, 0755); err != nil {
		return fmt.Errorf("creating library parent directory: %w", err)
	}

	opts := &git.CloneOptions{URL: remoteURL, Auth: auth}
	if gs.Branch != nil && *gs.Branch != "" {
		opts.ReferenceName = plumbing.NewBranchReferenceName(*gs.Branch)
		opts.SingleBranch = true
	}

	if _, err := git.PlainClone(path, opts); err != nil {
		return translateGitError("clone", err, gs.RemoteURL)
	}
	return nil
}

func (gs *GitSource) fetchWithAuth(path string, logger *logging.AppLogger) error {
	err := gs.fetch(path, nil, logger)
	if err == nil || !isAuthError(err) {
		return err
	}

	auth, authErr := gs.auth(logger)
	if authErr != nil {
		return authErr
	}
	if auth == nil {
		return fmt.Errorf("library requires authentication, store a token with 'prdflow auth set-token'")
	}
	return gs.fetch(path, auth, logger)
}

func (gs *GitSource) fetch(path string, auth *githttp.BasicAuth, logger *logging.AppLogger) error {
	repo, err := git.PlainOpen(path)
	if err != nil {
		return fmt.Errorf("opening library clone: %w", err)
	}

	dirty, err := IsDirty(path)
	if err != nil {
		return err
	}
	if dirty {
		if logger != nil {
			logger.Warn("template library has local edits, skipping fetch", "path", path)
		}
		return nil
	}

	remote, err := repo.Remote("origin")
	if err != nil {
		return fmt.Errorf("library clone has no origin remote: %w", err)
	}

	err = remote.Fetch(&git.FetchOptions{Auth: auth, Force: true})
	if err != nil && err != git.NoErrAlreadyUpToDate {
		return translateGitError("fetch", err, gs.RemoteURL)
	}

	if logger != nil && err == git.NoErrAlreadyUpToDate {
		logger.Debug("template library already up to date", "path", path)
	}
	return nil
}

// auth returns PAT credentials from the OS store, or nil when none are
// stored so public access can be attempted.
func (gs *GitSource) auth(logger *logging.AppLogger) (*githttp.BasicAuth, error) {
	if !gs.creds.HasToken() {
		return nil, nil
	}
	token, err := gs.creds.GetToken()
	if err != nil {
		return nil, err
	}
	if logger != nil {
		logger.Debug("using stored token for library access")
	}
	return &githttp.BasicAuth{Username: "token", Password: token}, nil
}

// GitURLInfo is a parsed git remote URL.
type GitURLInfo struct {
	Host  string
	Owner string
	Repo  string
}

var sshURLPattern = regexp.MustCompile(`^git@([^:]+):([^/]+)/(.+?)(?:\.git)?$`)

// ParseGitURL parses SSH (git@host:owner/repo.git) and HTTPS
// (https://host/owner/repo.git) remote URLs. The .git suffix is optional.
func ParseGitURL(gitURL string) (GitURLInfo, error) {
	gitURL = strings.TrimSpace(gitURL)

	if m := sshURLPattern.FindStringSubmatch(gitURL); m != nil {
		return GitURLInfo{Host: m[1], Owner: m[2], Repo: m[3]}, nil
	}

	parsed, err := url.Parse(gitURL)
	if err != nil {
		return GitURLInfo{}, fmt.Errorf("invalid URL: %w", err)
	}
	if parsed.Host == "" {
		return GitURLInfo{}, fmt.Errorf("URL has no host: %s", gitURL)
	}

	parts := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	if len(parts) < 2 {
		return GitURLInfo{}, fmt.Errorf("URL path must be owner/repo: %s", parsed.Path)
	}

	owner := parts[0]
	repo := strings.TrimSuffix(parts[1], ".git")
	if owner == "" || repo == "" {
		return GitURLInfo{}, fmt.Errorf("URL path must be owner/repo: %s", parsed.Path)
	}

	return GitURLInfo{Host: parsed.Host, Owner: owner, Repo: repo}, nil
}

// comparableURL reduces a remote URL to host/owner/repo so SSH and HTTPS
// spellings of the same repository compare equal.
func comparableURL(gitURL string) string {
	gitURL = strings.TrimSuffix(strings.TrimSpace(gitURL), ".git")

	if m := regexp.MustCompile(`^git@([^:]+):(.+)$`).FindStringSubmatch(gitURL); m != nil {
		return m[1] + "/" + m[2]
	}
	if after, found := strings.CutPrefix(gitURL, "https://"); found {
		return after
	}
	if after, found := strings.CutPrefix(gitURL, "http://"); found {
		return after
	}
	return gitURL
}

func originURL(repoPath string) (string, error) {
	repo, err := git.PlainOpen(repoPath)
	if err != nil {
		if err == git.ErrRepositoryNotExists {
			return "", fmt.Errorf("not a git repository: %s", repoPath)
		}
		return "", fmt.Errorf("cannot open repository: %w", err)
	}

	remote, err := repo.Remote("origin")
	if err != nil {
		return "", fmt.Errorf("cannot read origin remote: %w", err)
	}

	cfg := remote.Config()
	if cfg == nil || len(cfg.URLs) == 0 {
		return "", fmt.Errorf("origin remote has no URL")
	}
	return cfg.URLs[0], nil
}

var authErrorPatterns = []string{
	"authentication required",
	"401",
	"unauthorized",
	"403",
	"forbidden",
}

func isAuthError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, p := range authErrorPatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}

// translateGitError turns common go-git failures into messages a user can
// act on without reading the transport error.
func translateGitError(op string, err error, remoteURL string) error {
	msg := strings.ToLower(err.Error())

	if isAuthError(err) {
		if strings.Contains(msg, "403") || strings.Contains(msg, "forbidden") {
			return fmt.Errorf("stored token lacks repository access, update it with 'prdflow auth set-token'")
		}
		return fmt.Errorf("authentication failed, update the stored token with 'prdflow auth set-token'")
	}
	if strings.Contains(msg, "404") || strings.Contains(msg, "not found") {
		return fmt.Errorf("library repository not found, check the URL: %s", remoteURL)
	}
	if strings.Contains(msg, "network") || strings.Contains(msg, "connection") || strings.Contains(msg, "timeout") {
		return fmt.Errorf("network error during %s: %w", op, err)
	}
	return fmt.Errorf("library %s failed: %w", op, err)
}
