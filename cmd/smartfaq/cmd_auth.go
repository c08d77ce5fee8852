package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/jrsteele09/go-smartfaq/client"
	apperrors "github.com/jrsteele09/go-smartfaq/internal/errors"
	"github.com/jrsteele09/go-smartfaq/session"
	"github.com/jrsteele09/go-smartfaq/session/filerepo"
)

// sessionKey keys the single CLI session within the session file.
const sessionKey = "default"

func sessionFilePath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}
	return filepath.Join(configDir, "smartfaq", "session.json"), nil
}

func sessionRepo() (*filerepo.FileSessionRepo, error) {
	path, err := sessionFilePath()
	if err != nil {
		return nil, err
	}
	return filerepo.New(path)
}

// apiClient loads the stored session and binds a backend client to it. Token
// rotations are written back to the session file; invalidation deletes it.
func apiClient() (*client.Client, *session.Session, error) {
	repo, err := sessionRepo()
	if err != nil {
		return nil, nil, err
	}

	stored, err := repo.Get(sessionKey)
	if err != nil {
		return nil, nil, fmt.Errorf("not signed in (run \"smartfaq login\"): %w", apperrors.ErrNoSession)
	}

	api := client.New(cfg.GetBackendAPIBase(), client.WithTimeout(cfg.GetRequestTimeout()))
	sess := session.New(stored.Pair(), api, session.WithOnChange(func(pair session.TokenPair) {
		if pair.AccessToken == "" && pair.RefreshToken == "" {
			_ = repo.Delete(sessionKey)
			return
		}
		stored.AccessToken = pair.AccessToken
		stored.RefreshToken = pair.RefreshToken
		_ = repo.Upsert(sessionKey, stored)
	}))
	api.UseSession(sess)

	return api, sess, nil
}

func runLogin(cmd *cobra.Command, _ []string) error {
	repo, err := sessionRepo()
	if err != nil {
		return err
	}

	api := client.New(cfg.GetBackendAPIBase(), client.WithTimeout(cfg.GetRequestTimeout()))
	login, err := api.Login(cmd.Context(), loginEmail, loginPassword)
	if err != nil {
		return err
	}

	stored := session.StoredSession{
		AccessToken:  login.Access,
		RefreshToken: login.Refresh,
		Email:        login.User.Email,
		Name:         login.User.FirstName + " " + login.User.LastName,
		CreatedAt:    time.Now(),
	}
	if err := repo.Upsert(sessionKey, stored); err != nil {
		return fmt.Errorf("store session: %w", err)
	}

	fmt.Printf("Signed in as %s\n", login.User.Email)
	return nil
}

func runLogout(_ *cobra.Command, _ []string) error {
	repo, err := sessionRepo()
	if err != nil {
		return err
	}
	if err := repo.Delete(sessionKey); err != nil {
		return fmt.Errorf("discard session: %w", err)
	}
	fmt.Println("Signed out")
	return nil
}

func runWhoami(_ *cobra.Command, _ []string) error {
	repo, err := sessionRepo()
	if err != nil {
		return err
	}

	stored, err := repo.Get(sessionKey)
	if err != nil {
		return fmt.Errorf("not signed in: %w", apperrors.ErrNoSession)
	}

	fmt.Printf("%s (signed in %s)\n", stored.Email, stored.CreatedAt.Format(time.RFC822))
	return nil
}
