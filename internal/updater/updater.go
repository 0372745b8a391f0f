package updater

import (
	"context"
	"fmt"
	"runtime"

	"github.com/creativeprojects/go-selfupdate"

	"github.com/Binidu01/video-fetcher/internal/version"
)

const (
	repoOwner = "Binidu01"
	repoName  = "video-fetcher"
)

// CheckUpdate checks if a new version is available
func CheckUpdate() (*selfupdate.Release, bool, error) {
	source, err := selfupdate.NewGitHubSource(selfupdate.GitHubConfig{})
	if err != nil {
		return nil, false, err
	}

	updater, err := selfupdate.NewUpdater(selfupdate.Config{
		Source: source,
	})
	if err != nil {
		return nil, false, err
	}

	latest, found, err := updater.DetectLatest(context.Background(), selfupdate.NewRepositorySlug(repoOwner, repoName))
	if err != nil {
		return nil, false, fmt.Errorf("failed to check for updates: %w", err)
	}

	if !found {
		return nil, false, nil
	}

	if latest.LessOrEqual(currentVersion()) {
		return latest, false, nil
	}

	return latest, true, nil
}

// Update performs the self-update
func Update() error {
	source, err := selfupdate.NewGitHubSource(selfupdate.GitHubConfig{})
	if err != nil {
		return err
	}

	updater, err := selfupdate.NewUpdater(selfupdate.Config{
		Source: source,
	})
	if err != nil {
		return err
	}

	latest, found, err := updater.DetectLatest(context.Background(), selfupdate.NewRepositorySlug(repoOwner, repoName))
	if err != nil {
		return fmt.Errorf("failed to check for updates: %w", err)
	}

	if !found {
		return fmt.Errorf("no releases found for %s/%s", repoOwner, repoName)
	}

	current := currentVersion()
	if latest.LessOrEqual(current) {
		fmt.Printf("Already up to date (v%s)\n", current)
		return nil
	}

	fmt.Printf("Updating from v%s to %s...\n", current, latest.Version())

	exe, err := selfupdate.ExecutablePath()
	if err != nil {
		return fmt.Errorf("failed to get executable path: %w", err)
	}

	if err := updater.UpdateTo(context.Background(), latest, exe); err != nil {
		return fmt.Errorf("failed to update: %w", err)
	}

	fmt.Printf("Successfully updated to %s\n", latest.Version())
	return nil
}

// GetPlatformAssetName returns the expected release asset name for the
// current platform
func GetPlatformAssetName() string {
	return fmt.Sprintf("video-fetcher_%s_%s", runtime.GOOS, runtime.GOARCH)
}

func currentVersion() string {
	v := version.Version
	// Strip 'v' prefix for comparison
	if len(v) > 0 && v[0] == 'v' {
		v = v[1:]
	}
	return v
}
